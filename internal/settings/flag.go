package settings

import (
	"fmt"
	"strings"
)

// ParseBool interprets s permissively and case-insensitively.
// Truthy values are y, yes, t, true, on and 1; falsy values are n, no, f,
// false, off and 0.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "t", "true", "on", "1":
		return true, nil
	case "n", "no", "f", "false", "off", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean value %q", s)
	}
}

// parseFlag parses the raw value of the environment variable key. Unset and
// blank values yield false.
func parseFlag(key, raw string) (bool, error) {
	if strings.TrimSpace(raw) == "" {
		return false, nil
	}
	value, err := ParseBool(raw)
	if err != nil {
		return false, &InvalidConfigValueError{Key: key, Value: raw}
	}
	return value, nil
}
