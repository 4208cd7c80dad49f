package settings

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBool(t *testing.T) {
	t.Parallel()

	truthy := []string{"true", "True", "TRUE", "1", "yes", "YES", "Yes", "y", "t", "on", " true "}
	for _, s := range truthy {
		got, err := ParseBool(s)
		require.NoError(t, err, s)
		assert.True(t, got, s)
	}

	falsy := []string{"false", "False", "FALSE", "0", "no", "NO", "n", "f", "off", "\tno\n"}
	for _, s := range falsy {
		got, err := ParseBool(s)
		require.NoError(t, err, s)
		assert.False(t, got, s)
	}

	invalid := []string{"maybe", "2", "yess", "tru", "-1", "enabled"}
	for _, s := range invalid {
		_, err := ParseBool(s)
		assert.Error(t, err, s)
	}
}

func TestParseFlag(t *testing.T) {
	t.Parallel()

	t.Run("blank defaults to false", func(t *testing.T) {
		got, err := parseFlag(EnvHTTPS, "  ")
		require.NoError(t, err)
		assert.False(t, got)
	})

	t.Run("invalid value names the variable", func(t *testing.T) {
		_, err := parseFlag(EnvEnforce2FA, "sometimes")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidConfigValue))

		var valueErr *InvalidConfigValueError
		require.True(t, errors.As(err, &valueErr))
		assert.Equal(t, EnvEnforce2FA, valueErr.Key)
		assert.Equal(t, "sometimes", valueErr.Value)
		assert.Contains(t, err.Error(), "ENFORCE_2FA")
	})
}

func TestReadEnvironment(t *testing.T) {
	t.Parallel()

	flags, creds, err := readEnvironment(MapEnvironment{
		EnvEnforce2FA:   "yes",
		EnvEnforceAAD:   "0",
		EnvHTTPS:        "On",
		EnvAADAppID:     "app-id",
		EnvAADAppSecret: "app-secret",
		EnvAADTenantID:  "tenant",
	})
	require.NoError(t, err)

	assert.Equal(t, Flags{Enforce2FA: true, EnforceAAD: false, HTTPS: true}, flags)
	assert.Equal(t, AADCredentials{AppID: "app-id", AppSecret: "app-secret", TenantID: "tenant"}, creds)
}

func TestReadEnvironmentDefaults(t *testing.T) {
	t.Parallel()

	flags, creds, err := readEnvironment(MapEnvironment{})
	require.NoError(t, err)
	assert.Equal(t, Flags{}, flags)
	assert.Equal(t, AADCredentials{}, creds)
}

func TestReadEnvironmentReportsFirstInvalidFlag(t *testing.T) {
	t.Parallel()

	_, _, err := readEnvironment(MapEnvironment{
		EnvEnforceAAD: "bogus",
		EnvHTTPS:      "also-bogus",
	})

	var valueErr *InvalidConfigValueError
	require.True(t, errors.As(err, &valueErr))
	assert.Equal(t, EnvEnforceAAD, valueErr.Key)
}

func TestOSEnvironment(t *testing.T) {
	t.Setenv(EnvAADTenantID, "from-process")

	got := OSEnvironment{}.Environ()
	assert.Equal(t, "from-process", got[EnvAADTenantID])
}

func TestMapEnvironmentReturnsCopy(t *testing.T) {
	t.Parallel()

	m := MapEnvironment{EnvHTTPS: "true"}
	got := m.Environ()
	got[EnvHTTPS] = "false"
	assert.Equal(t, "true", m[EnvHTTPS])
}
