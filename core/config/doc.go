// Package config loads typed configuration from environment variables with
// per-type caching.
//
// The first Load reads a .env file from the working directory when one exists
// (github.com/joho/godotenv) and fields are parsed with github.com/caarlos0/env/v11,
// so struct tags follow that library:
//
//	import (
//		"github.com/dmitrymomot/cookiejar/core/config"
//		"github.com/dmitrymomot/cookiejar/core/cookie"
//	)
//
//	var cfg cookie.Config
//	if err := config.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
//
//	// Or panic on failure (useful for startup)
//	config.MustLoad(&cfg)
//
// # Caching Behavior
//
// Each configuration type is parsed once per process. Later calls for the same type
// return the cached value even if the environment changed; different types are
// cached independently.
package config
