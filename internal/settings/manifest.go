package settings

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

// ReadManifest returns the application names listed in the manifest at path,
// one per line, trimmed, with blank lines skipped. An empty path or a missing
// file yields no names and no error.
func ReadManifest(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	apps, err := parseManifest(f)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	return apps, nil
}

func parseManifest(r io.Reader) ([]string, error) {
	var apps []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		apps = append(apps, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return apps, nil
}
