package transfer

import "github.com/tphakala/bonsai-go/internal/logger"

// GetLogger returns the transfer package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("datastore.transfer")
}
