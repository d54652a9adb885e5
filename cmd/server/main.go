package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fittrack/fittrack/assets"
	"github.com/fittrack/fittrack/internal"
	"github.com/fittrack/fittrack/internal/abuse"
	"github.com/fittrack/fittrack/internal/activity"
	activitydb "github.com/fittrack/fittrack/internal/activity/db"
	"github.com/fittrack/fittrack/internal/auth"
	authdb "github.com/fittrack/fittrack/internal/auth/db"
	"github.com/fittrack/fittrack/internal/db"
	"github.com/fittrack/fittrack/internal/db/migrate"
	"github.com/fittrack/fittrack/internal/stats"
	statsdb "github.com/fittrack/fittrack/internal/stats/db"
	"github.com/fittrack/fittrack/internal/web"
	websessions "github.com/fittrack/fittrack/internal/web/sessions"
	"github.com/fittrack/fittrack/internal/web/view"
	"github.com/fittrack/fittrack/migrations"
	gorillasessions "github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Stderr))
}

func run(ctx context.Context, w io.Writer) int {
	logger := slog.New(slog.NewTextHandler(w, nil))

	cfg, err := configFromEnv()
	if err != nil {
		logger.Error("failed to get config from environment", "error", err)
		return 1
	}

	// Two pools for the same database: one for writes limited to a
	// single connection, one for concurrent reads.
	writeDB, err := db.OpenSQLite(cfg.db.file, true)
	if err != nil {
		logger.Error("failed to open database for writing", "error", err)
		return 1
	}
	defer writeDB.Close()

	readDB, err := db.OpenSQLite(cfg.db.file, false)
	if err != nil {
		logger.Error("failed to open database for reading", "error", err)
		return 1
	}
	defer readDB.Close()

	if cfg.db.migrate {
		migrateCtx, cancel := context.WithTimeout(ctx, time.Second*60)
		defer cancel()

		applied, err := migrate.RunFS(migrateCtx, writeDB, migrations.FS)
		if err != nil {
			logger.Error("failed to run migrations", "error", err)
			return 1
		}

		for _, migration := range applied {
			logger.Info("applied migration", "sequence", migration.Sequence, "filename", migration.Filename)
		}
	}

	authService, err := auth.NewService(authdb.New(writeDB, readDB), auth.AdminCredentials{
		Email:        cfg.auth.adminEmail,
		PasswordHash: cfg.auth.adminPasswordHash,
	})
	if err != nil {
		logger.Error("failed to create auth service", "error", err)
		return 1
	}

	viewRenderer, err := view.NewMemRenderer(assets.TemplateFS)
	if err != nil {
		logger.Error("failed to parse views", "error", err)
		return 1
	}

	keys := make([][]byte, 0, len(cfg.http.cookieKeys))
	for _, key := range cfg.http.cookieKeys {
		keys = append(keys, key.SecretValue())
	}

	cookieStore := gorillasessions.NewCookieStore(keys...)
	cookieStore.Options = &gorillasessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.http.server.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}

	deps := &web.ServerDeps{
		Logger:       logger,
		ViewRenderer: viewRenderer,
		AuthService:  authService,
		Activities:   activity.NewService(activitydb.New(writeDB, readDB)),
		Stats:        stats.NewAggregator(statsdb.New(readDB)),
		SessionStore: websessions.NewStore(cookieStore),
		Limits:       web.NewLimits(),
		SpamCheck:    abuse.NewSpamCheck(cfg.signupMinFillTime),
		Metrics:      web.NewMetrics(),
	}

	srv := &http.Server{
		Addr:         cfg.http.addr,
		ReadTimeout:  cfg.http.readTimeout,
		WriteTimeout: cfg.http.writeTimeout,
		IdleTimeout:  cfg.http.idleTimeout,
		Handler:      web.NewServer(deps, cfg.http.server),
	}

	// We need to run two tasks concurrently:
	// - Listen and serving of the HTTP server.
	// - Waiting for a signal to stop the server.

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server",
			"addr", cfg.http.addr,
			"buildRevision", internal.BuildRevision,
			"buildRevisionTime", internal.BuildRevisionTime,
			"buildLocalModified", internal.BuildLocalModified,
		)
		// ListenAndServe always returns a non-nil error,
		// g will cancel gCtx when an error is returned, so
		// this will also stop the other goroutine.
		return srv.ListenAndServe()
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("stopping http server")

		shutCtx, cancel := context.WithTimeout(context.Background(), cfg.http.shutdownTimeout)
		defer cancel()

		return srv.Shutdown(shutCtx)
	})

	err = g.Wait()
	if err != nil && err != http.ErrServerClosed {
		logger.Error("http server stopped with error", "error", err)
		return 1
	}

	logger.Info("http server stopped successfully")

	return 0
}
