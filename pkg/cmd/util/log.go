package util

import (
	"os"

	"github.com/mpapenbr/f1-livetiming-go/log"
	"github.com/mpapenbr/f1-livetiming-go/pkg/config"
)

func ParseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}

// SetupLogger replaces the default logger according to the log-* settings
func SetupLogger() *log.Logger {
	opts := []log.Option{log.WithCaller(true), log.AddCallerSkip(1)}
	if config.LogFilter != "" {
		if filter, err := log.WithFilter(config.LogFilter); err == nil {
			opts = append(opts, filter)
		} else {
			log.Warn("ignoring invalid log filter",
				log.String("filter", config.LogFilter), log.ErrorField(err))
		}
	}
	var logger *log.Logger
	switch config.LogFormat {
	case "json":
		logger = log.New(os.Stderr, ParseLogLevel(config.LogLevel, log.InfoLevel), opts...)
	default:
		logger = log.DevLogger(os.Stderr,
			ParseLogLevel(config.LogLevel, log.DebugLevel), opts...)
	}
	log.ResetDefault(logger)
	return logger
}

// ApplyLogLevel changes the level of the default logger at runtime
func ApplyLogLevel(l string) {
	level, err := log.ParseLevel(l)
	if err != nil {
		log.Warn("ignoring invalid log level", log.String("level", l))
		return
	}
	if log.Default().Level() != level {
		log.Default().SetLevel(level)
		log.Info("log level changed", log.String("level", level.String()))
	}
}
