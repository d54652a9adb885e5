package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fittrack/fittrack/internal/email"
	"github.com/fittrack/fittrack/internal/krypto"
	"github.com/fittrack/fittrack/internal/web"
)

// httpConfig is the configuration for the HTTP server.
type httpConfig struct {
	addr            string
	readTimeout     time.Duration
	writeTimeout    time.Duration
	idleTimeout     time.Duration
	shutdownTimeout time.Duration
	cookieKeys      []krypto.Key
	server          web.ServerConfig
}

// dbConfig is the configuration for the database.
type dbConfig struct {
	file    string
	migrate bool
}

// authConfig is the configuration for the admin identity.
type authConfig struct {
	adminEmail        email.Address
	adminPasswordHash krypto.Argon2Hash
}

// config is the configuration for the server command.
type config struct {
	http httpConfig
	db   dbConfig
	auth authConfig

	// signupMinFillTime is the minimum time between rendering the
	// signup form and submitting it.
	signupMinFillTime time.Duration
}

// defaultConfig returns a config with sane default values.
func defaultConfig() config {
	return config{
		http: httpConfig{
			addr:            ":8888",
			readTimeout:     time.Second * 5,
			writeTimeout:    time.Second * 10,
			idleTimeout:     time.Second * 120,
			shutdownTimeout: time.Second * 15,
			server: web.ServerConfig{
				SecureCookie: true,
			},
		},
		db: dbConfig{
			file:    "fittrack.db",
			migrate: true,
		},
		signupMinFillTime: time.Second * 2,
	}
}

// requiredKeys are the environment variables without usable defaults.
var requiredKeys = []string{
	"HTTP_COOKIE_KEYS",
	"HTTP_CSRF_KEY",
	"ADMIN_EMAIL",
	"ADMIN_PASSWORD_HASH",
}

// envMap maps environment variable names to fields in the config struct.
var envMap = map[string]func(v string, c *config) error{
	"HTTP_ADDR": func(v string, c *config) error {
		c.http.addr = v
		return nil
	},
	"HTTP_READ_TIMEOUT": func(v string, c *config) error {
		return confDuration(v, &c.http.readTimeout, 0, math.MaxInt64)
	},
	"HTTP_WRITE_TIMEOUT": func(v string, c *config) error {
		return confDuration(v, &c.http.writeTimeout, 0, math.MaxInt64)
	},
	"HTTP_IDLE_TIMEOUT": func(v string, c *config) error {
		return confDuration(v, &c.http.idleTimeout, 0, math.MaxInt64)
	},
	"HTTP_SHUTDOWN_TIMEOUT": func(v string, c *config) error {
		return confDuration(v, &c.http.shutdownTimeout, 0, math.MaxInt64)
	},
	"HTTP_COOKIE_KEYS": func(v string, c *config) error {
		return confKeys(v, &c.http.cookieKeys)
	},
	"HTTP_CSRF_KEY": func(v string, c *config) error {
		key, err := krypto.ParseKey(v)
		if err != nil {
			return err
		}

		c.http.server.CSRFKey = key
		return nil
	},
	"HTTP_SECURE_COOKIE": func(v string, c *config) error {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}

		c.http.server.SecureCookie = secure
		return nil
	},
	"DB_FILE": func(v string, c *config) error {
		if v == "" {
			return errors.New("empty database file")
		}

		c.db.file = v
		return nil
	},
	"DB_MIGRATE": func(v string, c *config) error {
		migrate, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}

		c.db.migrate = migrate
		return nil
	},
	"ADMIN_EMAIL": func(v string, c *config) error {
		addr, err := email.ParseAddress(v)
		if err != nil {
			return err
		}

		c.auth.adminEmail = addr
		return nil
	},
	"ADMIN_PASSWORD_HASH": func(v string, c *config) error {
		hash, err := krypto.ParseArgon2Hash(v)
		if err != nil {
			return err
		}

		c.auth.adminPasswordHash = hash
		return nil
	},
	"SIGNUP_FORM_MIN_TIME": func(v string, c *config) error {
		return confDuration(v, &c.signupMinFillTime, 0, math.MaxInt64)
	},
}

// configFromEnv returns a config with values from the environment. It falls
// back to default values for any missing environment variables that have a
// default.
//
// It does a best effort to validate provided values, so that mistakes are
// caught ASAP. However, there is no guarantee that the returned config
// is valid and will work.
func configFromEnv() (config, error) {
	c := defaultConfig()

	var errs []error
	for _, key := range requiredKeys {
		if _, ok := os.LookupEnv(key); !ok {
			errs = append(errs, fmt.Errorf("missing required env variable %s", key))
		}
	}

	for key, mf := range envMap {
		if val, ok := os.LookupEnv(key); ok {
			if err := mf(val, &c); err != nil {
				errs = append(errs, fmt.Errorf("invalid env variable %s: %w", key, err))
			}
		}
	}

	return c, errors.Join(errs...)
}

// confDuration attempts to parse v into tgt and checks if the result is in
// the provided range (inclusive).
func confDuration(v string, tgt *time.Duration, min, max time.Duration) error {
	dur, err := time.ParseDuration(v)
	if err != nil {
		return err
	}

	if dur < min || dur > max {
		return fmt.Errorf("duration %s not in range [%s, %s] (inclusive)", dur, min, max)
	}

	*tgt = dur

	return nil
}

// confKeys parses a comma separated list of hex encoded keys.
func confKeys(v string, tgt *[]krypto.Key) error {
	parts := strings.Split(v, ",")

	keys := make([]krypto.Key, 0, len(parts))
	for _, part := range parts {
		key, err := krypto.ParseKey(part)
		if err != nil {
			return err
		}

		keys = append(keys, key)
	}

	*tgt = keys
	return nil
}
