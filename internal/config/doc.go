// Package config loads the host process configuration from multiple sources
// (YAML files, FIR_* environment variables, CLI flags) with precedence:
// CLI flags > Environment variables > YAML config > Defaults. Sources are
// merged with mergo; the result tells the host which capabilities to
// register and where the manifest and settings fragments live.
package config
