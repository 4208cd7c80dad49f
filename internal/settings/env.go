package settings

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
)

// Environment variables consumed by the assembler.
const (
	EnvEnforce2FA   = "ENFORCE_2FA"
	EnvEnforceAAD   = "ENFORCE_AAD"
	EnvHTTPS        = "HTTPS"
	EnvAADAppID     = "AAD_APP_ID"
	EnvAADAppSecret = "AAD_APP_SECRET"
	EnvAADTenantID  = "AAD_TENANT_ID"
)

// EnvironmentReader supplies the variables the assembler reads.
type EnvironmentReader interface {
	Environ() map[string]string
}

// OSEnvironment reads the process environment.
type OSEnvironment struct{}

// Environ returns a snapshot of the process environment.
func (OSEnvironment) Environ() map[string]string {
	return env.ToMap(os.Environ())
}

// MapEnvironment is a fixed set of variables.
type MapEnvironment map[string]string

// Environ returns a copy of m.
func (m MapEnvironment) Environ() map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Flags holds the parsed boolean switches.
type Flags struct {
	Enforce2FA bool
	EnforceAAD bool
	HTTPS      bool
}

// AADCredentials holds the Azure AD application registration.
type AADCredentials struct {
	AppID     string `env:"AAD_APP_ID"`
	AppSecret string `env:"AAD_APP_SECRET"`
	TenantID  string `env:"AAD_TENANT_ID"`
}

type rawEnvironment struct {
	Enforce2FA string `env:"ENFORCE_2FA"`
	EnforceAAD string `env:"ENFORCE_AAD"`
	HTTPS      string `env:"HTTPS"`
	AAD        AADCredentials
}

// readEnvironment decodes the assembler variables from r. Flags are parsed
// in a fixed order so the first invalid one is always reported.
func readEnvironment(r EnvironmentReader) (Flags, AADCredentials, error) {
	var raw rawEnvironment
	if err := env.ParseWithOptions(&raw, env.Options{Environment: r.Environ()}); err != nil {
		return Flags{}, AADCredentials{}, fmt.Errorf("error getting env configs: %w", err)
	}

	var flags Flags
	var err error
	if flags.Enforce2FA, err = parseFlag(EnvEnforce2FA, raw.Enforce2FA); err != nil {
		return Flags{}, AADCredentials{}, err
	}
	if flags.EnforceAAD, err = parseFlag(EnvEnforceAAD, raw.EnforceAAD); err != nil {
		return Flags{}, AADCredentials{}, err
	}
	if flags.HTTPS, err = parseFlag(EnvHTTPS, raw.HTTPS); err != nil {
		return Flags{}, AADCredentials{}, err
	}

	return flags, raw.AAD, nil
}
