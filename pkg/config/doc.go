// Package config provides configuration management for the soul gateway node.
//
// Configuration is read from a YAML file, completed with defaults and
// validated. Unknown keys are rejected so typos surface at startup.
//
//	cfg, err := config.LoadConfig("soul.yaml")
//	cfg, err := config.LoadConfigWithEnvOverrides("soul.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention SOUL_SECTION_FIELD:
//
//   - SOUL_GATEWAY_LISTEN_ADDRESS overrides gateway.listen_address
//   - SOUL_SYNC_WEBSOCKET_URLS overrides sync.websocket.urls (comma separated)
//   - SOUL_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Singleton
//
// The CLI stores the loaded configuration with Initialize and reads it
// back with GetConfig. Library packages take explicit values instead.
//
// # Example Configuration
//
//	gateway:
//	  listen_address: "0.0.0.0:9195"
//	  upstream: "http://127.0.0.1:8189"
//
//	sync:
//	  mode: "websocket"
//	  websocket:
//	    urls: ["ws://localhost:9095/websocket"]
//
//	store:
//	  enabled: true
//	  url: "sqlite://data/soul.db"
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
package config
