// Package config loads service configuration from an optional config.yaml and
// POSTMEDIA_* environment variables, applies defaults and validates the result
// before any component is constructed.
package config
