package imagestore

import "github.com/tphakala/bonsai-go/internal/logger"

// GetLogger returns the imagestore package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("imagestore")
}
