package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrParse is returned when environment variables cannot be parsed into the config type.
var ErrParse = errors.New("failed to parse configuration from environment")

var (
	dotenvOnce sync.Once
	mu         sync.Mutex
	cache      = make(map[reflect.Type]any)
)

// Load fills cfg from the environment. The first call loads a .env file if present.
// Each type is parsed once; later calls return the cached value.
func Load[T any](cfg *T) error {
	dotenvOnce.Do(func() {
		// A missing .env file is the common case in production.
		_ = godotenv.Load()
	})

	t := reflect.TypeFor[T]()

	mu.Lock()
	defer mu.Unlock()

	if v, ok := cache[t]; ok {
		*cfg = v.(T)
		return nil
	}

	v, err := env.ParseAs[T]()
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrParse, t, err)
	}

	cache[t] = v
	*cfg = v
	return nil
}

// MustLoad is like Load but panics on failure. Useful during startup.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}
