// Package config handles YAML configuration loading with environment variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable interpolation.
// A PORT environment variable overrides server.port, to match the hosting
// platforms the service is deployed on.
package config
