// Package config loads the tokengate server configuration.
//
// Values come from three layers, later ones winning: built-in defaults, a
// YAML file, and TOKENGATE_* environment variables. Secrets are expected to
// arrive through the environment in production.
package config
