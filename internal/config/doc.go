// Package config loads and validates the application configuration from
// environment variables (prefix CHARTDESK) layered over an optional YAML
// file, with defaults carried in struct tags.
package config
