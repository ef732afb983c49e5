// Package config handles configuration loading for koop-auth-gateway.
//
// # Overview
//
// Configuration is loaded from a YAML file with environment variable
// expansion, or built entirely from environment variables when no file is
// present. The package provides validation and sensible defaults.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  session_secret: "${JWT_SECRET}"
//
// Syntax: ${VAR_NAME}
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "localhost:9000"
//
// Signing secrets:
//
//	auth:
//	  session_secret: "${JWT_SECRET}"
//	  salesforce_secret: "${SALESFORCE_JWT_SECRET}"
//
// CORS:
//
//	cors:
//	  allowed_origins: ["*"]
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Development Defaults
//
// When a secret is configured nowhere, it falls back to an insecure
// built-in development default so the gateway starts out of the box. The
// serve command warns loudly when a dev default is in use; production
// deployments must set real secrets. See DevSecretsInUse.
package config
