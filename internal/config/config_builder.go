package config

import (
	"errors"
	"fmt"

	"dario.cat/mergo"
)

// layer is one configuration source. Fields whose zero value is meaningful
// (disabling logging or rate limiting) travel as pointers because mergo
// skips zero values.
type layer struct {
	cfg            Config
	requestLogging *bool
	rateLimitRPS   *float64
	rateLimitBurst *int
}

type configBuilder struct {
	base   Config
	layers []layer
	err    error
}

func newConfigBuilder(base Config) *configBuilder {
	return &configBuilder{
		base:   base,
		layers: make([]layer, 0, 3),
	}
}

func (b *configBuilder) build() (Config, error) {
	if b.err != nil {
		return Config{}, fmt.Errorf("error occured during building config: %w", b.err)
	}

	cfg := b.base
	for _, l := range b.layers {
		if err := mergo.Merge(&cfg, l.cfg, mergo.WithOverride); err != nil {
			return Config{}, fmt.Errorf("error merging configs: %w", err)
		}
		if l.requestLogging != nil {
			cfg.EnableRequestLogging = *l.requestLogging
		}
		if l.rateLimitRPS != nil && *l.rateLimitRPS >= 0 {
			cfg.RateLimitRPS = *l.rateLimitRPS
		}
		if l.rateLimitBurst != nil && *l.rateLimitBurst >= 0 {
			cfg.RateLimitBurst = *l.rateLimitBurst
		}
	}

	return cfg, nil
}

func (b *configBuilder) withYAML(path string) *configBuilder {
	yamlCfg, err := loadFromFile(path)
	if err != nil {
		b.err = errors.Join(b.err, fmt.Errorf("load YAML config: %w", err))
		return b
	}

	l, err := yamlLayer(yamlCfg)
	if err != nil {
		b.err = errors.Join(b.err, fmt.Errorf("load YAML config: %w", err))
		return b
	}

	b.layers = append(b.layers, l)
	return b
}

func (b *configBuilder) withEnv() *configBuilder {
	l, err := parseEnv()
	if err != nil {
		b.err = errors.Join(b.err, err)
		return b
	}

	b.layers = append(b.layers, l)
	return b
}

func (b *configBuilder) withCLI(overrides *CLIOverrides) *configBuilder {
	b.layers = append(b.layers, cliLayer(overrides))
	return b
}
