package conf

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/tphakala/bonsai-go/internal/errors"
)

const (
	osWindows = "windows"
	appDir    = "bonsai-go"
)

// GetDefaultConfigPaths returns the directories searched for config.yaml, most specific first.
func GetDefaultConfigPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategorySystem).
			Context("operation", "get-home-directory").
			Build()
	}

	var configPaths []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		configPaths = append(configPaths, filepath.Join(xdg, appDir))
	}

	switch runtime.GOOS {
	case osWindows:
		configPaths = append(configPaths, filepath.Join(homeDir, "AppData", "Roaming", appDir))
	default:
		configPaths = append(configPaths, filepath.Join(homeDir, ".config", appDir))
	}

	return append(configPaths, "."), nil
}

// defaultDataDir is where the database, photos and exports live unless configured otherwise
func defaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "data"
	}
	if runtime.GOOS == osWindows {
		return filepath.Join(homeDir, "AppData", "Local", appDir)
	}
	return filepath.Join(homeDir, ".local", "share", appDir)
}
