// Package conf provides configuration management for bonsai-go.
package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/labstack/gommon/bytes"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/bonsai-go/internal/errors"
	"github.com/tphakala/bonsai-go/internal/logger"
)

// Database backends
const (
	DatabaseSQLite = "sqlite"
	DatabaseMySQL  = "mysql"
)

// MainSettings contains application wide settings
type MainSettings struct {
	Name    string `yaml:"name"`    // application title shown by the CLI and API
	DataDir string `yaml:"datadir"` // base directory for the database, images and exports
}

// SQLiteSettings contains settings for the SQLite database
type SQLiteSettings struct {
	Path string `yaml:"path"` // path to the database file, relative paths resolve against main.datadir
}

// MySQLSettings contains settings for the MySQL database
type MySQLSettings struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// DatabaseSettings selects and configures the datastore backend
type DatabaseSettings struct {
	Type               string         `yaml:"type"` // sqlite or mysql
	SQLite             SQLiteSettings `yaml:"sqlite"`
	MySQL              MySQLSettings  `yaml:"mysql"`
	SlowQueryThreshold time.Duration  `yaml:"slowquerythreshold"`
}

// ImageSettings controls where and how tree photos are stored
type ImageSettings struct {
	Path              string   `yaml:"path"`              // photo storage directory
	AllowedExtensions []string `yaml:"allowedextensions"` // accepted upload extensions, lower case with dot
	MaxUploadSize     string   `yaml:"maxuploadsize"`     // human readable size limit, e.g. 25MB
	FixOrientation    bool     `yaml:"fixorientation"`    // rotate JPEGs according to EXIF orientation
}

// ExportSettings controls collection archive export
type ExportSettings struct {
	Path         string `yaml:"path"`         // default export directory
	MinFreeSpace string `yaml:"minfreespace"` // refuse to export below this much free space, e.g. 200MB
	Upload       bool   `yaml:"upload"`       // copy new archives to the enabled targets
}

// NotificationSettings controls reminder push notifications
type NotificationSettings struct {
	Enabled       bool          `yaml:"enabled"`
	URLs          []string      `yaml:"urls"`          // shoutrrr service URLs
	Timeout       time.Duration `yaml:"timeout"`       // per send timeout
	CheckInterval time.Duration `yaml:"checkinterval"` // how often serve checks for due reminders
	RateLimit     int           `yaml:"ratelimit"`     // notifications per minute
	Burst         int           `yaml:"burst"`
}

// MQTTSettings contains settings for publishing reminder events
type MQTTSettings struct {
	Enabled  bool   `yaml:"enabled"`
	Broker   string `yaml:"broker"` // e.g. tcp://localhost:1883
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"clientid"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	QoS      byte   `yaml:"qos"`
	Retain   bool   `yaml:"retain"`
}

// WebServerSettings contains settings for the HTTP API
type WebServerSettings struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// MetricsSettings contains settings for the Prometheus endpoint
type MetricsSettings struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// SentrySettings contains settings for error telemetry
type SentrySettings struct {
	Enabled     bool    `yaml:"enabled"`
	DSN         string  `yaml:"dsn"`
	Environment string  `yaml:"environment"`
	SampleRate  float64 `yaml:"samplerate"`
}

// LocalTargetSettings copies archives to another directory, e.g. a mounted NAS share
type LocalTargetSettings struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// FTPTargetSettings uploads archives over FTP
type FTPTargetSettings struct {
	Enabled  bool          `yaml:"enabled"`
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	Path     string        `yaml:"path"`
	Timeout  time.Duration `yaml:"timeout"`
}

// SFTPTargetSettings uploads archives over SFTP
type SFTPTargetSettings struct {
	Enabled        bool          `yaml:"enabled"`
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	KeyFile        string        `yaml:"keyfile"`
	KnownHostsFile string        `yaml:"knownhostsfile"`
	Path           string        `yaml:"path"`
	Timeout        time.Duration `yaml:"timeout"`
}

// TargetSettings lists the archive upload targets
type TargetSettings struct {
	Local LocalTargetSettings `yaml:"local"`
	FTP   FTPTargetSettings   `yaml:"ftp"`
	SFTP  SFTPTargetSettings  `yaml:"sftp"`
}

// Settings contains all configuration options
type Settings struct {
	Debug        bool                 `yaml:"debug"`
	Main         MainSettings         `yaml:"main"`
	Logging      logger.LoggingConfig `yaml:"logging"`
	Database     DatabaseSettings     `yaml:"database"`
	Images       ImageSettings        `yaml:"images"`
	Export       ExportSettings       `yaml:"export"`
	Notification NotificationSettings `yaml:"notification"`
	MQTT         MQTTSettings         `yaml:"mqtt"`
	WebServer    WebServerSettings    `yaml:"webserver"`
	Metrics      MetricsSettings      `yaml:"metrics"`
	Sentry       SentrySettings       `yaml:"sentry"`
	Targets      TargetSettings       `yaml:"targets"`
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into a Settings instance.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	settings, err := unmarshalSettings()
	if err != nil {
		return nil, err
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// unmarshalSettings decodes the current viper state, resolves paths and validates
func unmarshalSettings() (*Settings, error) {
	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	settings.resolvePaths()

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	return settings, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()
	bindEnvVars()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return createDefaultConfig(configPaths[0])
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	GetLogger().Debug("configuration loaded", logger.String("path", viper.ConfigFileUsed()))
	return nil
}

// createDefaultConfig writes the default settings to dir/config.yaml and reads it back
func createDefaultConfig(dir string) error {
	defaults := &Settings{}
	if err := viper.Unmarshal(defaults); err != nil {
		return fmt.Errorf("error building default config: %w", err)
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	configPath := filepath.Join(dir, "config.yaml")
	if err := SaveYAMLConfig(configPath, defaults); err != nil {
		return err
	}

	GetLogger().Info("created default config file", logger.String("path", configPath))
	viper.SetConfigFile(configPath)
	return viper.ReadInConfig()
}

// resolvePaths makes data paths absolute relative to main.datadir
func (s *Settings) resolvePaths() {
	if s.Main.DataDir == "" {
		return
	}
	s.Main.DataDir = expandHome(s.Main.DataDir)

	resolve := func(p string) string {
		p = expandHome(p)
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(s.Main.DataDir, p)
	}

	s.Database.SQLite.Path = resolve(s.Database.SQLite.Path)
	s.Images.Path = resolve(s.Images.Path)
	s.Export.Path = resolve(s.Export.Path)
	if s.Logging.FileOutput != nil {
		s.Logging.FileOutput.Path = resolve(s.Logging.FileOutput.Path)
	}
}

func expandHome(p string) string {
	if !strings.HasPrefix(p, "~") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// MaxUploadBytes returns images.maxuploadsize in bytes, 0 when unset or invalid
func (s *ImageSettings) MaxUploadBytes() int64 {
	n, err := bytes.Parse(s.MaxUploadSize)
	if err != nil {
		return 0
	}
	return n
}

// MinFreeBytes returns export.minfreespace in bytes, 0 when unset or invalid
func (s *ExportSettings) MinFreeBytes() int64 {
	n, err := bytes.Parse(s.MinFreeSpace)
	if err != nil {
		return 0
	}
	return n
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// SaveYAMLConfig writes settings to configPath atomically.
// It overwrites the existing file, not preserving comments or structure.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempFileName := tempFile.Name()
	defer os.Remove(tempFileName)

	if _, err := tempFile.Write(yamlData); err != nil {
		tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}

	if err := os.Chmod(tempFileName, 0o600); err != nil {
		return fmt.Errorf("error setting config file permissions: %w", err)
	}

	if err := os.Rename(tempFileName, configPath); err != nil {
		return fmt.Errorf("error replacing config file: %w", err)
	}

	return nil
}
