package targets

import "github.com/tphakala/bonsai-go/internal/logger"

// GetLogger returns the logger for archive upload targets.
func GetLogger() logger.Logger {
	return logger.Global().Module("archive.targets")
}
