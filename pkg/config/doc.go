// Package config provides configuration loading and validation for Shepherd.
//
// Configuration is read from a YAML file, filled in with defaults, optionally
// overridden from SHEPHERD_* environment variables, and validated as a whole
// so every problem is reported in one pass.
//
// # Usage
//
//	cfg, err := config.LoadConfigWithEnvOverrides("shepherd.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Secrets (the provider API key) should be supplied through the environment
// rather than the file; SHEPHERD_PROVIDER_API_KEY always wins over the file
// value.
package config
