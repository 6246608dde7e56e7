package conf

import "github.com/tphakala/bonsai-go/internal/logger"

// GetLogger returns the config package logger scoped to the config module.
func GetLogger() logger.Logger {
	return logger.Global().Module("config")
}
