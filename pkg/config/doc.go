// Package config loads typed configuration from the process environment.
//
// Values are read from an optional .env file (loaded once, never overriding
// variables already set) and parsed into structs annotated with caarlos0/env
// tags. Each struct type is parsed at most once per process; later Load calls
// for the same type receive a copy of the memoized value.
//
//	type Config struct {
//		Addr string `env:"HTTP_ADDR" envDefault:":8080"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
package config
