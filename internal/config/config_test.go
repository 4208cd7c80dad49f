package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/eugenenazirov/fir-settings/internal/capability"
)

func clearEnv(t *testing.T) {
	t.Helper()

	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, EnvPrefix) {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
}

func writeYAML(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != defaultPort {
		t.Fatalf("expected default port %s, got %s", defaultPort, cfg.Port)
	}
	if cfg.ShutdownGracePeriod != 10*time.Second {
		t.Fatalf("unexpected shutdown grace period: %s", cfg.ShutdownGracePeriod)
	}
	if want := filepath.Join(".", "fir", "config", "installed_apps.txt"); cfg.ManifestPath != want {
		t.Fatalf("expected manifest %s, got %s", want, cfg.ManifestPath)
	}
	if cfg.FragmentsDir != cfg.BaseDir {
		t.Fatalf("expected fragments dir to default to base dir, got %s", cfg.FragmentsDir)
	}
	if !cfg.EnableRequestLogging {
		t.Fatalf("expected request logging enabled by default")
	}
	if len(cfg.Capabilities) != 0 {
		t.Fatalf("expected no capabilities by default, got %v", cfg.Capabilities)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("FIR_PORT", "9000")
	t.Setenv("FIR_BASE_DIR", "/srv/fir")
	t.Setenv("FIR_CAPABILITIES", "two_factor, otp_yubikey")
	t.Setenv("FIR_RATE_LIMIT_RPS", "0")
	t.Setenv("FIR_REQUEST_LOGGING", "false")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "9000" {
		t.Fatalf("expected overridden port, got %s", cfg.Port)
	}
	if want := filepath.Join("/srv/fir", "fir", "config", "installed_apps.txt"); cfg.ManifestPath != want {
		t.Fatalf("expected manifest below base dir, got %s", cfg.ManifestPath)
	}
	want := []capability.Capability{capability.TwoFactor, capability.HardwareToken}
	if got := cfg.CapabilityNames(); !slices.Equal(got, want) {
		t.Fatalf("expected capabilities %v, got %v", want, got)
	}
	if cfg.RateLimitRPS != 0 {
		t.Fatalf("expected rate limiting disabled, got %v", cfg.RateLimitRPS)
	}
	if cfg.EnableRequestLogging {
		t.Fatalf("expected request logging disabled")
	}
}

func TestLoadInvalidEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("FIR_RATE_LIMIT_BURST", "lots")

	if _, err := Load(nil); err == nil {
		t.Fatalf("expected error for non-numeric burst")
	}
}

func TestLoadYAMLThenEnvThenCLI(t *testing.T) {
	clearEnv(t)
	path := writeYAML(t, `
port: "7000"
base_dir: /opt/fir
manifest: /opt/fir/apps.txt
capabilities: [django_auth_adfs]
shutdown_grace_period: 3s
enable_request_logging: false
rate_limit:
  rps: 5
  burst: 7
`)
	t.Setenv("FIR_PORT", "7100")

	port := "7200"
	burst := 9
	cfg, err := Load(&CLIOverrides{ConfigFile: path, Port: &port, RateLimitBurst: &burst})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "7200" {
		t.Fatalf("expected CLI port to win, got %s", cfg.Port)
	}
	if cfg.BaseDir != "/opt/fir" || cfg.ManifestPath != "/opt/fir/apps.txt" {
		t.Fatalf("unexpected paths: %s %s", cfg.BaseDir, cfg.ManifestPath)
	}
	if cfg.FragmentsDir != "/opt/fir" {
		t.Fatalf("expected fragments dir to follow base dir, got %s", cfg.FragmentsDir)
	}
	if !slices.Equal(cfg.Capabilities, []string{"django_auth_adfs"}) {
		t.Fatalf("unexpected capabilities %v", cfg.Capabilities)
	}
	if cfg.ShutdownGracePeriod != 3*time.Second {
		t.Fatalf("unexpected grace period %s", cfg.ShutdownGracePeriod)
	}
	if cfg.EnableRequestLogging {
		t.Fatalf("expected YAML to disable request logging")
	}
	if cfg.RateLimitRPS != 5 || cfg.RateLimitBurst != 9 {
		t.Fatalf("unexpected rate limit %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
}

func TestLoadEnvBeatsYAML(t *testing.T) {
	clearEnv(t)
	path := writeYAML(t, "port: \"7000\"\n")
	t.Setenv("FIR_PORT", "7100")

	cfg, err := Load(&CLIOverrides{ConfigFile: path})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Port != "7100" {
		t.Fatalf("expected env port to win over YAML, got %s", cfg.Port)
	}
}

func TestLoadYAMLErrors(t *testing.T) {
	clearEnv(t)

	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(&CLIOverrides{ConfigFile: filepath.Join(t.TempDir(), "absent.yaml")}); err == nil {
			t.Fatalf("expected error for missing config file")
		}
	})

	t.Run("bad duration", func(t *testing.T) {
		path := writeYAML(t, "idle_timeout: forever\n")
		if _, err := Load(&CLIOverrides{ConfigFile: path}); err == nil {
			t.Fatalf("expected error for invalid duration")
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeYAML(t, "port: [unterminated\n")
		if _, err := Load(&CLIOverrides{ConfigFile: path}); err == nil {
			t.Fatalf("expected error for malformed YAML")
		}
	})
}

func TestCLICapabilitiesReplaceConfigured(t *testing.T) {
	clearEnv(t)
	t.Setenv("FIR_CAPABILITIES", "two_factor")

	cfg, err := Load(&CLIOverrides{Capabilities: []string{"django_auth_adfs"}})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !slices.Equal(cfg.Capabilities, []string{"django_auth_adfs"}) {
		t.Fatalf("expected CLI capabilities to replace env ones, got %v", cfg.Capabilities)
	}
}

func TestValidateConfig(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		if err := validateConfig(defaultConfig()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		cfg := defaultConfig()
		cfg.RateLimitRPS = -1
		if err := validateConfig(cfg); err == nil {
			t.Fatalf("expected error for negative rps")
		}

		cfg = defaultConfig()
		cfg.Port = ""
		if err := validateConfig(cfg); err == nil {
			t.Fatalf("expected error for empty port")
		}
	})
}
