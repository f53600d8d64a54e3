// Package config provides configuration loading for the Lunchbox device agent.
//
// Configuration is loaded from a YAML file with hardcoded defaults and
// environment variable overrides (LUNCHBOX_* pattern). The connection
// string carries the device's shared secret and should always come from
// the environment in production.
//
// # Usage
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
