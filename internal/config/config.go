package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/fir-settings/internal/capability"
	"github.com/eugenenazirov/fir-settings/internal/settings"
)

const (
	defaultPort           = "8080"
	defaultBaseDir        = "."
	defaultLogLevel       = "info"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
)

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > Environment variables > YAML config > Defaults
type Config struct {
	Port                 string
	BaseDir              string
	ManifestPath         string
	FragmentsDir         string
	Capabilities         []string
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	LogLevel             string
	RateLimitRPS         float64
	RateLimitBurst       int
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	Port                 string        `yaml:"port"`
	BaseDir              string        `yaml:"base_dir"`
	Manifest             string        `yaml:"manifest"`
	FragmentsDir         string        `yaml:"fragments_dir"`
	Capabilities         []string      `yaml:"capabilities"`
	ShutdownGracePeriod  string        `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string        `yaml:"read_header_timeout"`
	WriteTimeout         string        `yaml:"write_timeout"`
	IdleTimeout          string        `yaml:"idle_timeout"`
	EnableRequestLogging *bool         `yaml:"enable_request_logging"`
	LogLevel             string        `yaml:"log_level"`
	RateLimit            yamlRateLimit `yaml:"rate_limit"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile     string
	Port           *string
	BaseDir        *string
	Manifest       *string
	FragmentsDir   *string
	Capabilities   []string
	LogLevel       *string
	RateLimitRPS   *float64
	RateLimitBurst *int
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > Environment variables > YAML config > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	b := newConfigBuilder(defaultConfig())

	if overrides != nil && overrides.ConfigFile != "" {
		b.withYAML(overrides.ConfigFile)
	}
	b.withEnv()
	if overrides != nil {
		b.withCLI(overrides)
	}

	cfg, err := b.build()
	if err != nil {
		return Config{}, err
	}

	if cfg.ManifestPath == "" {
		cfg.ManifestPath = settings.DefaultManifestPath(cfg.BaseDir)
	}
	if cfg.FragmentsDir == "" {
		cfg.FragmentsDir = cfg.BaseDir
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// CapabilityNames returns the configured capabilities, trimmed and without blanks.
func (c Config) CapabilityNames() []capability.Capability {
	return capability.Parse(c.Capabilities)
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		BaseDir:              defaultBaseDir,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		LogLevel:             defaultLogLevel,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// yamlLayer converts the YAML file structure into a configuration layer.
func yamlLayer(yamlCfg *yamlConfig) (layer, error) {
	l := layer{
		cfg: Config{
			Port:         yamlCfg.Port,
			BaseDir:      yamlCfg.BaseDir,
			ManifestPath: yamlCfg.Manifest,
			FragmentsDir: yamlCfg.FragmentsDir,
			Capabilities: yamlCfg.Capabilities,
			LogLevel:     yamlCfg.LogLevel,
		},
		requestLogging: yamlCfg.EnableRequestLogging,
		rateLimitRPS:   yamlCfg.RateLimit.RPS,
		rateLimitBurst: yamlCfg.RateLimit.Burst,
	}

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"shutdown_grace_period", yamlCfg.ShutdownGracePeriod, &l.cfg.ShutdownGracePeriod},
		{"read_header_timeout", yamlCfg.ReadHeaderTimeout, &l.cfg.ReadHeaderTimeout},
		{"write_timeout", yamlCfg.WriteTimeout, &l.cfg.WriteTimeout},
		{"idle_timeout", yamlCfg.IdleTimeout, &l.cfg.IdleTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return layer{}, fmt.Errorf("parse %s: %w", d.name, err)
		}
		*d.dst = parsed
	}

	return l, nil
}

// cliLayer converts command-line flag overrides into a configuration layer.
func cliLayer(overrides *CLIOverrides) layer {
	l := layer{
		cfg: Config{
			Capabilities: overrides.Capabilities,
		},
		rateLimitRPS:   overrides.RateLimitRPS,
		rateLimitBurst: overrides.RateLimitBurst,
	}
	if overrides.Port != nil {
		l.cfg.Port = *overrides.Port
	}
	if overrides.BaseDir != nil {
		l.cfg.BaseDir = *overrides.BaseDir
	}
	if overrides.Manifest != nil {
		l.cfg.ManifestPath = *overrides.Manifest
	}
	if overrides.FragmentsDir != nil {
		l.cfg.FragmentsDir = *overrides.FragmentsDir
	}
	if overrides.LogLevel != nil {
		l.cfg.LogLevel = *overrides.LogLevel
	}
	return l
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("rate limit rps must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("rate limit burst must be >= 0")
	}
	if cfg.Port == "" {
		return fmt.Errorf("port cannot be empty")
	}
	if cfg.BaseDir == "" {
		return fmt.Errorf("base dir cannot be empty")
	}
	return nil
}
