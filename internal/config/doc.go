// Package config handles configuration loading, parsing, and validation
// from defaults, an optional YAML file and environment variables. The
// resulting Config is built once at startup and treated as immutable: it is
// passed explicitly to the components that need it and never mutated.
package config
