// Package logger holds the process-wide structured logger.
package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	sugar *zap.SugaredLogger
	once  sync.Once
)

// Init builds the global logger for the given environment. "production"
// logs JSON, "test" discards everything, and anything else gets the
// console encoder. Safe to call more than once; only the first call wins.
func Init(env string) {
	once.Do(func() {
		sugar = build(env).Sugar()
	})
}

func build(env string) *zap.Logger {
	switch env {
	case "production":
		base, err := zap.NewProduction()
		if err != nil {
			return zap.NewNop()
		}
		return base
	case "test":
		return zap.NewNop()
	default:
		base, err := zap.NewDevelopment()
		if err != nil {
			return zap.NewNop()
		}
		return base
	}
}

// Get returns the global sugared logger, initializing a development
// logger if Init was never called.
func Get() *zap.SugaredLogger {
	if sugar == nil {
		Init("development")
	}
	return sugar
}

// Sync flushes buffered entries. Call before exit.
func Sync() {
	if sugar != nil {
		_ = sugar.Sync()
	}
}
