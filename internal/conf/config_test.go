package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loadDefaults runs the same decode path as Load against a fresh viper state.
func loadDefaults(t *testing.T, dataDir string) *Settings {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	setDefaultConfig()
	viper.Set("main.datadir", dataDir)

	settings, err := unmarshalSettings()
	require.NoError(t, err)
	return settings
}

func TestDefaultSettingsAreValid(t *testing.T) {
	dataDir := t.TempDir()
	settings := loadDefaults(t, dataDir)

	assert.Equal(t, "Bonsai Tracker", settings.Main.Name)
	assert.Equal(t, DatabaseSQLite, settings.Database.Type)
	assert.Equal(t, filepath.Join(dataDir, "bonsai.db"), settings.Database.SQLite.Path)
	assert.Equal(t, filepath.Join(dataDir, "images"), settings.Images.Path)
	assert.Equal(t, filepath.Join(dataDir, "exports"), settings.Export.Path)
	assert.Equal(t, 200*time.Millisecond, settings.Database.SlowQueryThreshold)
	assert.Equal(t, time.Hour, settings.Notification.CheckInterval)
	assert.Equal(t, "info", settings.Logging.DefaultLevel)
	require.NotNil(t, settings.Logging.Console)
	assert.True(t, settings.Logging.Console.Enabled)
	assert.Contains(t, settings.Images.AllowedExtensions, ".jpg")
}

func TestSaveYAMLConfigRoundTrip(t *testing.T) {
	dataDir := t.TempDir()
	settings := loadDefaults(t, dataDir)
	settings.Notification.URLs = []string{"generic://example.com/hook"}
	settings.Notification.Enabled = true

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, SaveYAMLConfig(configPath, settings))

	info, err := os.Stat(configPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	viper.Reset()
	viper.SetConfigFile(configPath)
	require.NoError(t, viper.ReadInConfig())

	reloaded, err := unmarshalSettings()
	require.NoError(t, err)
	assert.Equal(t, settings.Notification, reloaded.Notification)
	assert.Equal(t, settings.Database, reloaded.Database)
	assert.Equal(t, settings.Targets, reloaded.Targets)
}

func TestValidateSettings(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr string
	}{
		{
			name:    "unknown database type",
			mutate:  func(s *Settings) { s.Database.Type = "postgres" },
			wantErr: "database.type",
		},
		{
			name: "mysql without host",
			mutate: func(s *Settings) {
				s.Database.Type = DatabaseMySQL
				s.Database.MySQL.Host = ""
			},
			wantErr: "database.mysql requires host",
		},
		{
			name:    "extension without dot",
			mutate:  func(s *Settings) { s.Images.AllowedExtensions = []string{"jpg"} },
			wantErr: "must start with a dot",
		},
		{
			name:    "bad free space size",
			mutate:  func(s *Settings) { s.Export.MinFreeSpace = "lots" },
			wantErr: "export.minfreespace",
		},
		{
			name:    "notifications without urls",
			mutate:  func(s *Settings) { s.Notification.Enabled = true },
			wantErr: "notification.urls",
		},
		{
			name: "mqtt qos out of range",
			mutate: func(s *Settings) {
				s.MQTT.Enabled = true
				s.MQTT.QoS = 3
			},
			wantErr: "mqtt.qos",
		},
		{
			name:    "bad listen address",
			mutate:  func(s *Settings) { s.WebServer.Listen = "8080" },
			wantErr: "webserver.listen",
		},
		{
			name: "sftp without credentials",
			mutate: func(s *Settings) {
				s.Targets.SFTP.Enabled = true
				s.Targets.SFTP.Host = "nas.local"
			},
			wantErr: "password or keyfile",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := loadDefaults(t, t.TempDir())
			tt.mutate(settings)

			err := ValidateSettings(settings)
			require.Error(t, err)

			var ve ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Error(), tt.wantErr)
		})
	}
}
