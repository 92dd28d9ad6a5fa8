// Package config loads and validates loggestd configuration.
//
// Configuration comes from an optional TOML file merged over built-in
// defaults; command-line flags override file values at the call site.
// All path fields are expanded (~ and relative paths) during load so
// downstream code always sees absolute paths.
package config
