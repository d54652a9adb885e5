package krypto_test

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/fittrack/fittrack/internal/krypto"
)

const rawKey = "568554094ec040ab8a6b3e6d7cc138b0dc855f39ba1aeb2ffc903f7260b3a452"

func Test_ParseKey(t *testing.T) {
	t.Run("ok, parse key", func(t *testing.T) {
		key, err := krypto.ParseKey(rawKey)
		if err != nil {
			t.Fatalf("failed to parse key: %v", err)
		}

		if len(key.SecretValue()) != 32 {
			t.Errorf("expected 32 byte key, got %d", len(key.SecretValue()))
		}
	})

	failTests := map[string]string{
		"fail, empty":     "",
		"fail, too short": rawKey[:62],
		"fail, too long":  rawKey + "ab",
		"fail, non-hex":   strings.Replace(rawKey, "5", "z", 1),
	}

	for name, raw := range failTests {
		t.Run(name, func(t *testing.T) {
			_, err := krypto.ParseKey(raw)
			if !errors.Is(err, krypto.ErrInvalidKey) {
				t.Fatalf("expected %v, but got %v (via errors.Is)", krypto.ErrInvalidKey, err)
			}
		})
	}
}

func Test_Key_PreventExposure(t *testing.T) {
	key, err := krypto.ParseKey(rawKey)
	if err != nil {
		t.Fatalf("failed to parse key: %v", err)
	}

	t.Run("ok, fmt redacts value", func(t *testing.T) {
		for _, verb := range []string{"%s", "%v", "%+v", "%#v", "%d"} {
			got := fmt.Sprintf(verb, key)
			if got != krypto.SecretMarker {
				t.Errorf("verb %s exposed %q", verb, got)
			}
		}
	})

	t.Run("ok, marshal text redacts value", func(t *testing.T) {
		got, err := key.MarshalText()
		if err != nil {
			t.Fatalf("failed to marshal text: %v", err)
		}

		if !bytes.Equal(got, []byte(krypto.SecretMarker)) {
			t.Errorf("marshal text exposed %q", got)
		}
	})
}
