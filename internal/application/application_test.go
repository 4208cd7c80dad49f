package application

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/fir-settings/internal/config"
	"github.com/eugenenazirov/fir-settings/internal/settings"
)

func TestNewInitializesDependencies(t *testing.T) {
	cfg := baseTestConfig(t, ":8085")
	cfg.Capabilities = []string{"two_factor"}
	logger := zaptest.NewLogger(t)

	app, err := New(cfg, logger, WithEnvironment(settings.MapEnvironment{settings.EnvEnforce2FA: "yes"}))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if !app.registry.Available("two_factor") {
		t.Fatalf("expected two_factor to be registered")
	}
	if !app.Settings().TwoFactorEnabled() {
		t.Fatalf("expected two-factor to be active")
	}
	if app.server == nil || app.router == nil || app.handler == nil {
		t.Fatalf("expected server, router, and handler to be initialized")
	}
	if app.Server() != app.server {
		t.Fatalf("Server accessor did not return underlying instance")
	}
	if app.Handler() != app.router {
		t.Fatalf("Handler accessor did not return the router")
	}
}

func TestNewServerAppliesConfig(t *testing.T) {
	cfg := baseTestConfig(t, "9090")
	handler := http.NewServeMux()

	server := NewServer(cfg, handler)
	if server.Addr != ":9090" {
		t.Fatalf("expected address :9090, got %s", server.Addr)
	}
	if server.Handler != handler {
		t.Fatalf("expected handler to be applied")
	}
	if server.ReadHeaderTimeout != cfg.ReadHeaderTimeout ||
		server.WriteTimeout != cfg.WriteTimeout ||
		server.IdleTimeout != cfg.IdleTimeout {
		t.Fatalf("server timeouts do not match configuration")
	}
}

func TestNewReturnsMissingDependency(t *testing.T) {
	cfg := baseTestConfig(t, ":0")

	_, err := New(cfg, zaptest.NewLogger(t), WithEnvironment(settings.MapEnvironment{settings.EnvEnforceAAD: "on"}))
	if !errors.Is(err, settings.ErrMissingDependency) {
		t.Fatalf("expected missing dependency error, got %v", err)
	}
}

func TestLoadSettingsSkipsBlankCapabilities(t *testing.T) {
	cfg := baseTestConfig(t, ":0")
	cfg.Capabilities = []string{" django_auth_adfs ", ""}

	_, reg, err := LoadSettings(cfg, zaptest.NewLogger(t), WithEnvironment(settings.MapEnvironment{}))
	if err != nil {
		t.Fatalf("LoadSettings returned error: %v", err)
	}
	if got := reg.Capabilities(); len(got) != 1 || got[0] != "django_auth_adfs" {
		t.Fatalf("expected only django_auth_adfs, got %v", got)
	}
}

func TestLoadSettingsResolvesBaseDir(t *testing.T) {
	cfg := baseTestConfig(t, ":0")

	s, _, err := LoadSettings(cfg, zaptest.NewLogger(t), WithEnvironment(settings.MapEnvironment{}))
	if err != nil {
		t.Fatalf("LoadSettings returned error: %v", err)
	}

	v, ok := s.Value("BASE_DIR")
	if !ok {
		t.Fatalf("expected BASE_DIR to be set")
	}
	if dir, _ := v.(string); !filepath.IsAbs(dir) {
		t.Fatalf("expected absolute BASE_DIR, got %v", v)
	}
}

func TestResolveBaseDir(t *testing.T) {
	dir := t.TempDir()
	got, err := resolveBaseDir(dir)
	if err != nil {
		t.Fatalf("resolveBaseDir returned error: %v", err)
	}
	if got != dir {
		t.Fatalf("expected %s, got %s", dir, got)
	}

	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, nil, 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := resolveBaseDir(file); err == nil {
		t.Fatalf("expected error for non-directory base dir")
	}
	if _, err := resolveBaseDir(filepath.Join(dir, "missing")); err == nil {
		t.Fatalf("expected error for missing base dir")
	}
}

func baseTestConfig(t *testing.T, port string) config.Config {
	t.Helper()

	dir := t.TempDir()
	return config.Config{
		Port:                 port,
		BaseDir:              dir,
		ManifestPath:         settings.DefaultManifestPath(dir),
		FragmentsDir:         dir,
		ShutdownGracePeriod:  50 * time.Millisecond,
		ReadHeaderTimeout:    20 * time.Millisecond,
		WriteTimeout:         30 * time.Millisecond,
		IdleTimeout:          40 * time.Millisecond,
		EnableRequestLogging: false,
		RateLimitRPS:         0,
		RateLimitBurst:       0,
	}
}
