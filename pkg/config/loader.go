package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type entry struct {
	once  sync.Once
	value any
	err   error
}

var (
	entries    sync.Map // reflect.Type -> *entry
	dotenvOnce sync.Once
)

// Load parses the environment into v. The result for a given type T is
// memoized, including a parse failure, so misconfiguration is reported the
// same way on every call.
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}

	dotenvOnce.Do(func() {
		// A missing .env file is normal outside local development.
		_ = godotenv.Load()
	})

	key := reflect.TypeOf((*T)(nil)).Elem()
	actual, _ := entries.LoadOrStore(key, &entry{})
	e := actual.(*entry)

	e.once.Do(func() {
		var parsed T
		if err := env.Parse(&parsed); err != nil {
			e.err = errors.Join(ErrParsingConfig, err)
			return
		}
		e.value = parsed
	})

	if e.err != nil {
		return e.err
	}
	*v = e.value.(T)
	return nil
}

// MustLoad is Load for configuration the process cannot start without.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
}

// Forget drops the memoized value for T so the next Load re-reads the
// environment. Intended for tests.
func Forget[T any]() {
	entries.Delete(reflect.TypeOf((*T)(nil)).Elem())
}
