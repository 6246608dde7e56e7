package collection

import "github.com/tphakala/bonsai-go/internal/logger"

// GetLogger returns the collection package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("collection")
}
