package settings

import "path/filepath"

var baseMiddleware = []string{
	"django.middleware.common.CommonMiddleware",
	"django.contrib.sessions.middleware.SessionMiddleware",
	"django.middleware.csrf.CsrfViewMiddleware",
	"django.contrib.auth.middleware.AuthenticationMiddleware",
	"django.contrib.messages.middleware.MessageMiddleware",
	"django.middleware.locale.LocaleMiddleware",
}

var baseAuthenticationBackends = []string{
	"django.contrib.auth.backends.ModelBackend",
	"incidents.authorization.ObjectPermissionBackend",
}

var baseInstalledApps = []string{
	"django.contrib.auth",
	"django.contrib.contenttypes",
	"django.contrib.sessions",
	"django.contrib.sites",
	"django.contrib.messages",
	"django.contrib.staticfiles",
	"django.contrib.admin",
	"rest_framework",
	"rest_framework.authtoken",
	"fir_plugins",
	"incidents",
	"fir_artifacts",
	"treebeard",
	"fir_email",
}

const (
	twoFactorMiddleware = "django_otp.middleware.OTPMiddleware"
	aadMiddleware       = "django_auth_adfs.middleware.LoginRequiredMiddleware"
	aadBackend          = "django_auth_adfs.backend.AdfsAccessTokenBackend"
	aadApp              = "django_auth_adfs"
)

var twoFactorApps = []string{
	"django_otp",
	"django_otp.plugins.otp_static",
	"django_otp.plugins.otp_totp",
	"two_factor",
}

var hardwareTokenApps = []string{
	"otp_yubikey",
	"two_factor.plugins.yubikey",
}

var staticFilesFinders = []string{
	"django.contrib.staticfiles.finders.FileSystemFinder",
	"django.contrib.staticfiles.finders.AppDirectoriesFinder",
}

var templateContextProcessors = []string{
	"django.contrib.auth.context_processors.auth",
	"django.template.context_processors.debug",
	"django.template.context_processors.i18n",
	"django.template.context_processors.media",
	"django.template.context_processors.static",
	"django.template.context_processors.request",
	"django.contrib.messages.context_processors.messages",
	"microsoft_auth.context_processors.microsoft",
}

var markdownAllowedTags = []string{
	"a", "abbr", "acronym", "b", "blockquote", "code", "em", "i", "li", "ol",
	"strong", "ul", "p", "h1", "h2", "h3", "h4",
	"table", "thead", "th", "tbody", "tr", "td",
	"br", "hr", "pre",
}

var allowedHosts = []string{"127.0.0.1", "0.0.0.0"}

// DefaultManifestPath returns where the installed applications manifest lives below baseDir.
func DefaultManifestPath(baseDir string) string {
	return filepath.Join(baseDir, "fir", "config", "installed_apps.txt")
}

func csrfTrustedOrigins(hosts []string) []string {
	out := make([]string, 0, 2*len(hosts))
	for _, h := range hosts {
		out = append(out, "http://"+h)
	}
	for _, h := range hosts {
		out = append(out, "https://"+h)
	}
	return out
}

func templates() []any {
	options := NewMapping()
	options.Set("context_processors", clone(templateContextProcessors))

	backend := NewMapping()
	backend.Set("BACKEND", "django.template.backends.django.DjangoTemplates")
	backend.Set("OPTIONS", options)
	return []any{backend}
}

func userSelfService() *Mapping {
	m := NewMapping()
	m.Set("CHANGE_EMAIL", true)
	m.Set("CHANGE_NAMES", true)
	m.Set("CHANGE_PROFILE", true)
	m.Set("CHANGE_PASSWORD", true)
	return m
}

func authADFS(creds AADCredentials) *Mapping {
	claims := NewMapping()
	claims.Set("first_name", "given_name")
	claims.Set("last_name", "family_name")
	claims.Set("email", "upn")

	m := NewMapping()
	m.Set("AUDIENCE", creds.AppID)
	m.Set("CLIENT_ID", creds.AppID)
	m.Set("CLIENT_SECRET", creds.AppSecret)
	m.Set("CLAIM_MAPPING", claims)
	m.Set("GROUPS_CLAIM", "roles")
	m.Set("MIRROR_GROUPS", true)
	m.Set("USERNAME_CLAIM", "upn")
	m.Set("TENANT_ID", creds.TenantID)
	m.Set("RELYING_PARTY_ID", creds.TenantID)
	return m
}

func clone(src []string) []string {
	out := make([]string, len(src))
	copy(out, src)
	return out
}
