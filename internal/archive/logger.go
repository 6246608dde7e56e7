package archive

import "github.com/tphakala/bonsai-go/internal/logger"

// GetLogger returns the archive package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("archive")
}
