package settings

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/eugenenazirov/fir-settings/internal/capability"
)

// Loader describes the behaviour required from a settings assembler.
type Loader interface {
	Load(env EnvironmentReader, manifestPath string) (*Settings, error)
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithBaseDir sets the directory MEDIA_ROOT and STATIC_ROOT are resolved against.
func WithBaseDir(dir string) Option {
	return func(a *Assembler) {
		a.baseDir = dir
	}
}

// WithFragmentSource sets where manifest applications' fragments are looked up.
func WithFragmentSource(src FragmentSource) Option {
	return func(a *Assembler) {
		if src != nil {
			a.fragments = src
		}
	}
}

// WithLogger sets the logger used to report fragment overrides.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Assembler) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// Assembler builds Settings from the environment, the capability registry
// and the optional application manifest.
type Assembler struct {
	registry  capability.Registry
	fragments FragmentSource
	baseDir   string
	logger    *zap.Logger
}

// New creates an Assembler probing capabilities through registry.
func New(registry capability.Registry, opts ...Option) *Assembler {
	a := &Assembler{
		registry:  registry,
		fragments: noFragments{},
		baseDir:   ".",
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type capabilities struct {
	twoFactor     bool
	aad           bool
	hardwareToken bool
}

// Load assembles the settings. It fails with ErrInvalidConfigValue when a
// flag cannot be parsed and with ErrMissingDependency when an enforcement
// flag names a capability the registry does not provide. No partial result
// is returned on error. An empty manifestPath means no manifest.
func (a *Assembler) Load(env EnvironmentReader, manifestPath string) (*Settings, error) {
	if env == nil {
		env = OSEnvironment{}
	}

	flags, creds, err := readEnvironment(env)
	if err != nil {
		return nil, err
	}

	caps := a.probe()
	if flags.Enforce2FA && !caps.twoFactor {
		return nil, &MissingDependencyError{Flag: EnvEnforce2FA, Capability: capability.TwoFactor}
	}
	if flags.EnforceAAD && !caps.aad {
		return nil, &MissingDependencyError{Flag: EnvEnforceAAD, Capability: capability.AzureAD}
	}

	apps, err := ReadManifest(manifestPath)
	if err != nil {
		return nil, err
	}

	fragments := make([]Fragment, 0, len(apps))
	for _, app := range apps {
		values, found, err := a.fragments.Fragment(app)
		if err != nil {
			return nil, fmt.Errorf("load %s.settings: %w", app, err)
		}
		if found {
			fragments = append(fragments, Fragment{App: app, Values: values})
		}
	}

	mapping := a.base(flags, creds, caps, apps)
	later := afterMerge()

	var overrides []Override
	for _, fragment := range fragments {
		for _, key := range fragment.Values.Keys() {
			if protected(key, later) {
				a.logger.Warn("settings fragment key ignored",
					zap.String("app", fragment.App),
					zap.String("key", key),
				)
				continue
			}
			value, _ := fragment.Values.Get(key)
			if mapping.Set(key, value) {
				overrides = append(overrides, Override{App: fragment.App, Key: key})
				a.logger.Warn("settings fragment overrides existing key",
					zap.String("app", fragment.App),
					zap.String("key", key),
				)
			}
		}
	}

	for _, key := range later.Keys() {
		value, _ := later.Get(key)
		mapping.Set(key, value)
	}
	for _, key := range []string{KeySessionCookieSecure, KeyCSRFCookieSecure} {
		if _, ok := mapping.Get(key); !ok {
			mapping.Set(key, false)
		}
	}

	if flags.HTTPS {
		mapping.Set(KeySessionCookieSecure, true)
		mapping.Set(KeyCSRFCookieSecure, true)
	}

	a.logger.Info("settings assembled",
		zap.Bool("two_factor", caps.twoFactor),
		zap.Bool("aad", caps.aad),
		zap.Bool("hardware_token", caps.hardwareToken),
		zap.Bool("https", flags.HTTPS),
		zap.Strings("manifest_apps", apps),
		zap.Int("fragments", len(fragments)),
	)

	return &Settings{
		flags:         flags,
		twoFactor:     caps.twoFactor,
		aad:           caps.aad,
		hardwareToken: caps.hardwareToken,
		fragments:     fragments,
		overrides:     overrides,
		mapping:       mapping,
	}, nil
}

func (a *Assembler) probe() capabilities {
	if a.registry == nil {
		return capabilities{}
	}
	caps := capabilities{
		twoFactor: a.registry.Available(capability.TwoFactor),
		aad:       a.registry.Available(capability.AzureAD),
	}
	caps.hardwareToken = caps.twoFactor && a.registry.Available(capability.HardwareToken)
	return caps
}

// base builds the mapping before fragments are applied. Keys keep the order
// in which the web application declares them.
func (a *Assembler) base(flags Flags, creds AADCredentials, caps capabilities, apps []string) *Mapping {
	m := NewMapping()
	m.Set("BASE_DIR", a.baseDir)
	m.Set("ENFORCE_2FA", flags.Enforce2FA)
	m.Set("TF_INSTALLED", caps.twoFactor)
	m.Set("ENFORCE_AAD", flags.EnforceAAD)
	m.Set("AAD_INSTALLED", caps.aad)
	m.Set("AAD_APP_ID", creds.AppID)
	m.Set(KeyAADAppSecret, creds.AppSecret)
	m.Set("AAD_TENANT_ID", creds.TenantID)
	if caps.aad {
		m.Set(KeyAuthADFS, authADFS(creds))
	}

	switch {
	case caps.aad:
		m.Set(KeyLoginURL, "django_auth_adfs:login")
		m.Set(KeyLoginRedirectURL, "/")
	case caps.twoFactor:
		m.Set(KeyLoginURL, "two_factor:login")
		m.Set(KeyLoginRedirectURL, "two_factor:profile")
	default:
		m.Set(KeyLoginURL, "/login/")
	}
	m.Set(KeyLogoutURL, "/logout/")

	m.Set("TIME_ZONE", "Europe/Paris")
	m.Set("LANGUAGE_CODE", "en-us")
	m.Set("SITE_ID", 1)
	m.Set("USE_I18N", true)
	m.Set("USE_L10N", true)
	m.Set("USE_TZ", false)
	m.Set("MEDIA_URL", "/files/")
	m.Set("STATIC_URL", "/static/")
	m.Set("STATICFILES_FINDERS", clone(staticFilesFinders))

	middleware := clone(baseMiddleware)
	if caps.twoFactor {
		middleware = append(middleware, twoFactorMiddleware)
	}
	if caps.aad {
		middleware = append(middleware, aadMiddleware)
	}
	m.Set(KeyMiddleware, middleware)

	backends := clone(baseAuthenticationBackends)
	if caps.aad {
		backends = append(backends, aadBackend)
	}
	m.Set(KeyAuthenticationBackends, backends)

	m.Set("MEDIA_ROOT", filepath.Join(a.baseDir, "uploads"))
	m.Set("STATIC_ROOT", filepath.Join(a.baseDir, "static"))
	m.Set("ROOT_URLCONF", "fir.urls")
	m.Set("WSGI_APPLICATION", "fir.wsgi.application")

	installed := clone(baseInstalledApps)
	if caps.twoFactor {
		installed = append(installed, twoFactorApps...)
		if caps.hardwareToken {
			installed = append(installed, hardwareTokenApps...)
		}
	}
	if caps.aad {
		installed = append(installed, aadApp)
	}
	installed = append(installed, apps...)
	m.Set(KeyInstalledApps, installed)
	return m
}

// afterMerge holds the keys declared after the manifest block. They are set
// once fragments are applied, so fragments cannot change them.
func afterMerge() *Mapping {
	m := NewMapping()
	m.Set("TEMPLATES", templates())
	m.Set("INCIDENT_CREATOR_PERMISSION", "incidents.view_incidents")
	m.Set("INCIDENT_VIEWER_CAN_COMMENT", true)
	m.Set("MARKDOWN_SAFE_MODE", true)
	m.Set("ALLOWED_HOSTS", clone(allowedHosts))
	m.Set("CSRF_TRUSTED_ORIGINS", csrfTrustedOrigins(allowedHosts))
	m.Set("MARKDOWN_ALLOWED_TAGS", clone(markdownAllowedTags))
	m.Set("USER_SELF_SERVICE", userSelfService())
	m.Set("NOTIFICATIONS_DISABLED_EVENTS", []string{})
	m.Set("NOTIFICATIONS_MERGE_INCIDENTS_AND_EVENTS", false)
	return m
}

// protected reports whether a fragment may not set key: INSTALLED_APPS is
// rebuilt from the manifest and the afterMerge keys are declared later.
func protected(key string, later *Mapping) bool {
	if key == KeyInstalledApps {
		return true
	}
	_, ok := later.Get(key)
	return ok
}
