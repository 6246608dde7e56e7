package datastore

import "github.com/tphakala/bonsai-go/internal/logger"

// GetLogger returns the datastore package logger scoped to the datastore module.
func GetLogger() logger.Logger {
	return logger.Global().Module("datastore")
}
