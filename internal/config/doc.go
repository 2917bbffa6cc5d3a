// Package config loads, normalizes, and validates clipflow configuration.
//
// Configuration comes from a TOML file (default ~/.config/clipflow/config.toml
// or ./clipflow.toml), with environment variables filling in missing
// credentials and CLI flags overriding both. Path fields are expanded to
// absolute paths during load.
package config
