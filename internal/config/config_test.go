package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/finbridge/investor-agent/pkg/cache"
	"github.com/finbridge/investor-agent/pkg/errors"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Cache.Backend != BackendFile {
		t.Errorf("backend = %q, want file", cfg.Cache.Backend)
	}
	if cfg.TTL() != 15*time.Minute {
		t.Errorf("ttl = %v, want 15m", cfg.TTL())
	}
	if cfg.Bridge.Addr != "127.0.0.1:8000" {
		t.Errorf("bridge addr = %q", cfg.Bridge.Addr)
	}
	if cfg.Serve.Addr != "127.0.0.1:8080" {
		t.Errorf("serve addr = %q", cfg.Serve.Addr)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[cache]
backend = "none"
ttl_minutes = 60

[bridge]
addr = "0.0.0.0:9000"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Cache.Backend != BackendNone {
		t.Errorf("backend = %q, want none", cfg.Cache.Backend)
	}
	if cfg.TTL() != time.Hour {
		t.Errorf("ttl = %v, want 1h", cfg.TTL())
	}
	if cfg.Bridge.Addr != "0.0.0.0:9000" {
		t.Errorf("bridge addr = %q", cfg.Bridge.Addr)
	}
	if cfg.Serve.Addr != "127.0.0.1:8080" {
		t.Errorf("serve addr should keep its default, got %q", cfg.Serve.Addr)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("cache = [broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if !errors.Is(err, errors.ErrCodeConfigInvalid) {
		t.Fatalf("expected CONFIG_INVALID, got %v", err)
	}
}

func TestLoad_UnknownBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[cache]\nbackend = \"memcached\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if !errors.Is(err, errors.ErrCodeConfigInvalid) {
		t.Fatalf("expected CONFIG_INVALID, got %v", err)
	}
}

func TestDefaultPath_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	path, err := DefaultPath()
	if err != nil {
		t.Fatal(err)
	}
	if path != "/tmp/xdg/investor-agent/config.toml" {
		t.Errorf("path = %q", path)
	}
}

func TestOpenCache(t *testing.T) {
	ctx := context.Background()

	t.Run("none", func(t *testing.T) {
		cfg, _ := Load(filepath.Join(t.TempDir(), "nope.toml"))
		cfg.Cache.Backend = BackendNone
		backend, err := cfg.OpenCache(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := backend.(*cache.NullCache); !ok {
			t.Errorf("backend = %T, want *cache.NullCache", backend)
		}
	})

	t.Run("file", func(t *testing.T) {
		cfg, _ := Load(filepath.Join(t.TempDir(), "nope.toml"))
		cfg.Cache.Dir = filepath.Join(t.TempDir(), "cache")
		backend, err := cfg.OpenCache(ctx)
		if err != nil {
			t.Fatal(err)
		}
		defer backend.Close()
		if err := backend.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
			t.Fatal(err)
		}
		data, ok, err := backend.Get(ctx, "k")
		if err != nil || !ok || string(data) != "v" {
			t.Errorf("Get = %q, %v, %v", data, ok, err)
		}
	})
}
