package settings

import (
	"errors"
	"fmt"

	"github.com/eugenenazirov/fir-settings/internal/capability"
)

var (
	// ErrInvalidConfigValue is returned when an environment variable cannot be parsed as a boolean.
	ErrInvalidConfigValue = errors.New("invalid configuration value")
	// ErrMissingDependency is returned when an enforcement flag requires a capability that is not available.
	ErrMissingDependency = errors.New("missing dependency")
	// ErrInvalidFragment is returned when a settings fragment exists but cannot be decoded as a mapping.
	ErrInvalidFragment = errors.New("invalid settings fragment")
)

// InvalidConfigValueError describes the variable and value that failed to parse.
type InvalidConfigValueError struct {
	Key   string
	Value string
}

func (e *InvalidConfigValueError) Error() string {
	return fmt.Sprintf("%s: %s=%q is not a boolean (use yes/no, true/false, on/off or 1/0)", ErrInvalidConfigValue, e.Key, e.Value)
}

func (e *InvalidConfigValueError) Unwrap() error {
	return ErrInvalidConfigValue
}

// MissingDependencyError names the capability an enforcement flag requires.
type MissingDependencyError struct {
	Flag       string
	Capability capability.Capability
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("%s: %s is set to true but %s is not installed; either set %s to false or install %s",
		ErrMissingDependency, e.Flag, e.Capability, e.Flag, e.Capability.Package())
}

func (e *MissingDependencyError) Unwrap() error {
	return ErrMissingDependency
}
