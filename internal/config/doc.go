// Package config handles configuration loading for the familiar client.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from FAMILIAR_CONFIG environment variable
//  2. ./familiar.yaml (current directory)
//  3. ~/.config/familiar/config.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	gateway:
//	  url: "${FAMILIAR_GATEWAY_URL}"
//
// Syntax: ${VAR_NAME}
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	session:
//	  refresh_delay: "750ms"
//	  poll_interval: "3s"
//
// Supported units: ns, us, ms, s, m, h
//
// # Configuration Sections
//
// Gateway connection:
//
//	gateway:
//	  url: "http://localhost:8080"
//	  workspace: "acme"
//
// Credentials:
//
//	auth:
//	  token_path: "~/.config/familiar/token"  # optional, this is the default
//
// Local cache:
//
//	cache:
//	  path: "~/.local/share/familiar/cache.db"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//	  path: ""        # log file; empty logs to stderr
//
// # Usage
//
// Load configuration from a specific path:
//
//	cfg, err := config.Load("/etc/familiar/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
