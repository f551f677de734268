// Package config provides type-safe environment variable loading with
// per-type caching. A .env file is loaded automatically on first use; struct
// fields are parsed with the caarlos0/env library.
//
//	type ServerConfig struct {
//		Addr string `env:"SERVER_ADDR" envDefault:":8080"`
//	}
//
//	var cfg ServerConfig
//	config.MustLoad(&cfg)
//
// Each configuration type is loaded once per process; later calls for the
// same type return the cached value.
package config

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	dotenvOnce sync.Once
	cache      sync.Map // reflect.Type -> loaded struct value
)

// Load populates cfg (a pointer to struct) from the environment. The first
// load of each type parses the environment; subsequent loads copy the cached
// result.
func Load(cfg any) error {
	dotenvOnce.Do(func() {
		// Missing .env files are expected outside development.
		_ = godotenv.Load()
	})

	rv := reflect.ValueOf(cfg)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("config: target must be a non-nil pointer to struct, got %T", cfg)
	}

	t := rv.Elem().Type()
	if cached, ok := cache.Load(t); ok {
		rv.Elem().Set(reflect.ValueOf(cached))
		return nil
	}

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("config: failed to parse %s: %w", t, err)
	}
	cache.Store(t, rv.Elem().Interface())
	return nil
}

// MustLoad is like Load but panics on failure. Intended for startup paths
// where a broken environment should stop the process.
func MustLoad(cfg any) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}
