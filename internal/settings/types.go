package settings

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/zeebo/blake3"
)

// Setting names referenced outside the base table.
const (
	KeyLoginURL               = "LOGIN_URL"
	KeyLoginRedirectURL       = "LOGIN_REDIRECT_URL"
	KeyLogoutURL              = "LOGOUT_URL"
	KeyMiddleware             = "MIDDLEWARE"
	KeyInstalledApps          = "INSTALLED_APPS"
	KeyAuthenticationBackends = "AUTHENTICATION_BACKENDS"
	KeySessionCookieSecure    = "SESSION_COOKIE_SECURE"
	KeyCSRFCookieSecure       = "CSRF_COOKIE_SECURE"
	KeyAuthADFS               = "AUTH_ADFS"
	KeyAADAppSecret           = "AAD_APP_SECRET"
)

const redacted = "********"

// Override records a fragment replacing a key that was already set.
type Override struct {
	App string `json:"app"`
	Key string `json:"key"`
}

// Settings is the immutable result of an assembly. Accessors return copies.
type Settings struct {
	flags         Flags
	twoFactor     bool
	aad           bool
	hardwareToken bool
	fragments     []Fragment
	overrides     []Override
	mapping       *Mapping
}

// Flags returns the parsed environment switches.
func (s *Settings) Flags() Flags { return s.flags }

// TwoFactorEnabled reports whether two-factor authentication is wired in.
func (s *Settings) TwoFactorEnabled() bool { return s.twoFactor }

// AADEnabled reports whether Azure AD authentication is wired in.
func (s *Settings) AADEnabled() bool { return s.aad }

// HardwareTokenEnabled reports whether the YubiKey plugin is wired in.
func (s *Settings) HardwareTokenEnabled() bool { return s.hardwareToken }

// Fragments returns the applied fragments in manifest order.
func (s *Settings) Fragments() []Fragment {
	out := make([]Fragment, len(s.fragments))
	for i, f := range s.fragments {
		out[i] = Fragment{App: f.App, Values: f.Values.Clone()}
	}
	return out
}

// Overrides returns every key a fragment replaced, in the order it happened.
func (s *Settings) Overrides() []Override {
	out := make([]Override, len(s.overrides))
	copy(out, s.overrides)
	return out
}

// Mapping returns a copy of the final settings mapping.
func (s *Settings) Mapping() *Mapping {
	return s.mapping.Clone()
}

// Value returns a copy of the value stored under key.
func (s *Settings) Value(key string) (any, bool) {
	v, ok := s.mapping.Get(key)
	if !ok {
		return nil, false
	}
	return cloneValue(v), true
}

// LoginURL returns the LOGIN_URL setting.
func (s *Settings) LoginURL() string { return s.stringValue(KeyLoginURL) }

// LoginRedirectURL returns the LOGIN_REDIRECT_URL setting, empty when unset.
func (s *Settings) LoginRedirectURL() string { return s.stringValue(KeyLoginRedirectURL) }

// LogoutURL returns the LOGOUT_URL setting.
func (s *Settings) LogoutURL() string { return s.stringValue(KeyLogoutURL) }

// Middleware returns the MIDDLEWARE sequence.
func (s *Settings) Middleware() []string { return s.stringsValue(KeyMiddleware) }

// InstalledApps returns the INSTALLED_APPS sequence.
func (s *Settings) InstalledApps() []string { return s.stringsValue(KeyInstalledApps) }

// AuthenticationBackends returns the AUTHENTICATION_BACKENDS sequence.
func (s *Settings) AuthenticationBackends() []string {
	return s.stringsValue(KeyAuthenticationBackends)
}

// SessionCookieSecure returns the SESSION_COOKIE_SECURE setting.
func (s *Settings) SessionCookieSecure() bool { return s.boolValue(KeySessionCookieSecure) }

// CSRFCookieSecure returns the CSRF_COOKIE_SECURE setting.
func (s *Settings) CSRFCookieSecure() bool { return s.boolValue(KeyCSRFCookieSecure) }

// JSON returns the canonical JSON encoding of the mapping.
func (s *Settings) JSON() ([]byte, error) {
	data, err := json.Marshal(s.mapping)
	if err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}
	return data, nil
}

// Digest returns the hex BLAKE3 digest of the canonical JSON encoding.
// Equal inputs produce equal digests.
func (s *Settings) Digest() (string, error) {
	data, err := s.JSON()
	if err != nil {
		return "", err
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Redacted returns a copy of the mapping with secrets masked.
func (s *Settings) Redacted() *Mapping {
	out := s.mapping.Clone()
	if v, ok := out.Get(KeyAADAppSecret); ok && v != "" {
		out.Set(KeyAADAppSecret, redacted)
	}
	if v, ok := out.Get(KeyAuthADFS); ok {
		if adfs, ok := v.(*Mapping); ok {
			if secret, ok := adfs.Get("CLIENT_SECRET"); ok && secret != "" {
				adfs.Set("CLIENT_SECRET", redacted)
			}
		}
	}
	return out
}

func (s *Settings) stringValue(key string) string {
	v, _ := s.mapping.Get(key)
	str, _ := v.(string)
	return str
}

func (s *Settings) boolValue(key string) bool {
	v, _ := s.mapping.Get(key)
	b, _ := v.(bool)
	return b
}

// stringsValue accepts both assembled []string values and []any sequences
// decoded from fragments.
func (s *Settings) stringsValue(key string) []string {
	v, _ := s.mapping.Get(key)
	switch seq := v.(type) {
	case []string:
		out := make([]string, len(seq))
		copy(out, seq)
		return out
	case []any:
		out := make([]string, 0, len(seq))
		for _, item := range seq {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}
