package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every environment variable the host reads.
const EnvPrefix = "FIR_"

// envConfig maps FIR_* environment variables onto a configuration layer.
type envConfig struct {
	Port                 string        `env:"PORT"`
	BaseDir              string        `env:"BASE_DIR"`
	Manifest             string        `env:"MANIFEST"`
	FragmentsDir         string        `env:"FRAGMENTS_DIR"`
	Capabilities         []string      `env:"CAPABILITIES" envSeparator:","`
	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD"`
	EnableRequestLogging *bool         `env:"REQUEST_LOGGING"`
	LogLevel             string        `env:"LOG_LEVEL"`
	RateLimitRPS         *float64      `env:"RATE_LIMIT_RPS"`
	RateLimitBurst       *int          `env:"RATE_LIMIT_BURST"`
}

// parseEnv reads the FIR_* variables with caarlos0/env. A value that cannot
// be converted to its field type is an error.
func parseEnv() (layer, error) {
	var e envConfig
	if err := env.ParseWithOptions(&e, env.Options{Prefix: EnvPrefix}); err != nil {
		return layer{}, fmt.Errorf("error getting env configs: %w", err)
	}

	return layer{
		cfg: Config{
			Port:                e.Port,
			BaseDir:             e.BaseDir,
			ManifestPath:        e.Manifest,
			FragmentsDir:        e.FragmentsDir,
			Capabilities:        e.Capabilities,
			ShutdownGracePeriod: e.ShutdownGracePeriod,
			LogLevel:            e.LogLevel,
		},
		requestLogging: e.EnableRequestLogging,
		rateLimitRPS:   e.RateLimitRPS,
		rateLimitBurst: e.RateLimitBurst,
	}, nil
}
