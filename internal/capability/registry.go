package capability

import (
	"errors"
	"sort"
	"strings"
	"sync"
)

// Capability names an optional feature whose backing package may or may not
// be installed alongside the web application.
type Capability string

const (
	// TwoFactor is the django-two-factor-auth integration.
	TwoFactor Capability = "two_factor"
	// AzureAD is the django-auth-adfs integration for Azure Active Directory.
	AzureAD Capability = "django_auth_adfs"
	// HardwareToken is the YubiKey OTP plugin layered on top of TwoFactor.
	HardwareToken Capability = "otp_yubikey"
)

var (
	// ErrInvalidCapability indicates a blank capability name was registered.
	ErrInvalidCapability = errors.New("capability name must not be blank")
)

var packages = map[Capability]string{
	TwoFactor:     "django-two-factor-auth",
	AzureAD:       "django-auth-adfs",
	HardwareToken: "django-otp-yubikey",
}

// Package returns the distribution that provides c, or c itself when the
// capability is not one of the well-known ones.
func (c Capability) Package() string {
	if pkg, ok := packages[c]; ok {
		return pkg
	}
	return string(c)
}

// Registry reports which optional capabilities the host process provides.
type Registry interface {
	Available(name Capability) bool
	Capabilities() []Capability
}

// MemoryRegistry keeps registered capabilities in-memory and guards access with a RWMutex.
type MemoryRegistry struct {
	mu    sync.RWMutex
	names map[Capability]struct{}
}

// NewMemoryRegistry returns a registry holding the given capabilities.
func NewMemoryRegistry(names ...Capability) (*MemoryRegistry, error) {
	r := &MemoryRegistry{names: make(map[Capability]struct{}, len(names))}
	if err := r.Register(names...); err != nil {
		return nil, err
	}
	return r, nil
}

// Parse converts raw names, typically read from configuration, into capabilities.
// Surrounding whitespace is trimmed and blank entries are skipped.
func Parse(raw []string) []Capability {
	out := make([]Capability, 0, len(raw))
	for _, name := range raw {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		out = append(out, Capability(name))
	}
	return out
}

// Register validates and adds the provided capabilities. Nothing is added if
// any name is invalid.
func (r *MemoryRegistry) Register(names ...Capability) error {
	normalized, err := normalize(names)
	if err != nil {
		return err
	}

	r.mu.Lock()
	for _, name := range normalized {
		r.names[name] = struct{}{}
	}
	r.mu.Unlock()

	return nil
}

// Available reports whether name has been registered.
func (r *MemoryRegistry) Available(name Capability) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.names[name]
	return ok
}

// Capabilities returns a sorted copy of the registered capabilities.
func (r *MemoryRegistry) Capabilities() []Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Capability, 0, len(r.names))
	for name := range r.names {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func normalize(names []Capability) ([]Capability, error) {
	out := make([]Capability, 0, len(names))
	for _, name := range names {
		trimmed := Capability(strings.TrimSpace(string(name)))
		if trimmed == "" {
			return nil, ErrInvalidCapability
		}
		out = append(out, trimmed)
	}
	return out, nil
}
