// Package config holds the runtime configuration for dolapscan.
//
// Configuration flows from three sources, in increasing precedence:
//  1. Built-in defaults (NewConfig)
//  2. The .dolapscan YAML file found in the current or home directory
//  3. CLI flags
//
// The resulting Config is validated once after CLI parsing and then passed
// through the application by dependency injection rather than global state.
package config
