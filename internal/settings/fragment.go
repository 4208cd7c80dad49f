package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Fragment is the set of settings contributed by one manifest application.
type Fragment struct {
	App    string
	Values *Mapping
}

// FragmentSource locates the "<app>.settings" fragment of an application.
// A missing fragment is reported with found == false and a nil error.
type FragmentSource interface {
	Fragment(app string) (values *Mapping, found bool, err error)
}

// DirFragmentSource resolves fragments to YAML files below Root. The
// application "fir_alerting" maps to <Root>/fir_alerting/settings.yaml and
// dotted names map to nested directories.
type DirFragmentSource struct {
	Root string
}

var fragmentFileNames = []string{"settings.yaml", "settings.yml"}

// Fragment reads and decodes the fragment file of app, if there is one.
func (s DirFragmentSource) Fragment(app string) (*Mapping, bool, error) {
	if s.Root == "" || !validAppName(app) {
		return nil, false, nil
	}

	dir := filepath.Join(s.Root, filepath.Join(strings.Split(app, ".")...))
	for _, name := range fragmentFileNames {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, false, fmt.Errorf("read fragment %s: %w", path, err)
		}

		values := NewMapping()
		if err := yaml.Unmarshal(data, values); err != nil {
			return nil, false, fmt.Errorf("%w %s: %v", ErrInvalidFragment, path, err)
		}
		return values, true, nil
	}

	return nil, false, nil
}

// validAppName rejects names that could escape the fragment root.
func validAppName(app string) bool {
	if app == "" || strings.ContainsAny(app, `/\`) {
		return false
	}
	for _, part := range strings.Split(app, ".") {
		if part == "" {
			return false
		}
	}
	return true
}

// MapFragmentSource serves fragments from memory, keyed by application name.
type MapFragmentSource map[string]*Mapping

// Fragment returns a copy of the fragment registered for app.
func (s MapFragmentSource) Fragment(app string) (*Mapping, bool, error) {
	values, ok := s[app]
	if !ok {
		return nil, false, nil
	}
	return values.Clone(), true, nil
}

type noFragments struct{}

func (noFragments) Fragment(string) (*Mapping, bool, error) {
	return nil, false, nil
}
