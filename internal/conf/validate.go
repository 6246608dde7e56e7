// conf/validate.go

package conf

import (
	"fmt"
	"net"
	"strings"

	"github.com/labstack/gommon/bytes"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	validators := []func(*Settings) []string{
		validateDatabaseSettings,
		validateImageSettings,
		validateExportSettings,
		validateNotificationSettings,
		validateMQTTSettings,
		validateListenAddresses,
		validateSentrySettings,
		validateTargetSettings,
	}
	for _, validate := range validators {
		ve.Errors = append(ve.Errors, validate(settings)...)
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateDatabaseSettings(s *Settings) []string {
	var errs []string

	switch s.Database.Type {
	case DatabaseSQLite:
		if s.Database.SQLite.Path == "" {
			errs = append(errs, "database.sqlite.path must be set")
		}
	case DatabaseMySQL:
		m := s.Database.MySQL
		if m.Host == "" || m.Username == "" || m.Database == "" {
			errs = append(errs, "database.mysql requires host, username and database")
		}
		if m.Port <= 0 || m.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database.mysql.port %d is out of range", m.Port))
		}
	default:
		errs = append(errs, fmt.Sprintf("database.type must be %q or %q, got %q", DatabaseSQLite, DatabaseMySQL, s.Database.Type))
	}

	return errs
}

func validateImageSettings(s *Settings) []string {
	var errs []string

	if s.Images.Path == "" {
		errs = append(errs, "images.path must be set")
	}
	if len(s.Images.AllowedExtensions) == 0 {
		errs = append(errs, "images.allowedextensions must list at least one extension")
	}
	for _, ext := range s.Images.AllowedExtensions {
		if !strings.HasPrefix(ext, ".") {
			errs = append(errs, fmt.Sprintf("images.allowedextensions entry %q must start with a dot", ext))
		}
	}
	if _, err := bytes.Parse(s.Images.MaxUploadSize); err != nil {
		errs = append(errs, fmt.Sprintf("images.maxuploadsize %q is not a valid size", s.Images.MaxUploadSize))
	}

	return errs
}

func validateExportSettings(s *Settings) []string {
	var errs []string

	if s.Export.Path == "" {
		errs = append(errs, "export.path must be set")
	}
	if _, err := bytes.Parse(s.Export.MinFreeSpace); err != nil {
		errs = append(errs, fmt.Sprintf("export.minfreespace %q is not a valid size", s.Export.MinFreeSpace))
	}

	return errs
}

func validateNotificationSettings(s *Settings) []string {
	n := s.Notification
	if !n.Enabled {
		return nil
	}

	var errs []string
	if len(n.URLs) == 0 {
		errs = append(errs, "notification.urls must contain at least one URL when notifications are enabled")
	}
	if n.RateLimit <= 0 {
		errs = append(errs, "notification.ratelimit must be positive")
	}
	if n.CheckInterval <= 0 {
		errs = append(errs, "notification.checkinterval must be positive")
	}
	return errs
}

func validateMQTTSettings(s *Settings) []string {
	m := s.MQTT
	if !m.Enabled {
		return nil
	}

	var errs []string
	if m.Broker == "" {
		errs = append(errs, "mqtt.broker must be set when MQTT is enabled")
	}
	if m.Topic == "" {
		errs = append(errs, "mqtt.topic must be set when MQTT is enabled")
	}
	if m.QoS > 2 {
		errs = append(errs, fmt.Sprintf("mqtt.qos must be 0, 1 or 2, got %d", m.QoS))
	}
	return errs
}

func validateListenAddresses(s *Settings) []string {
	var errs []string

	check := func(key, addr string) {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			errs = append(errs, fmt.Sprintf("%s %q is not a valid host:port", key, addr))
		}
	}
	if s.WebServer.Enabled {
		check("webserver.listen", s.WebServer.Listen)
	}
	if s.Metrics.Enabled {
		check("metrics.listen", s.Metrics.Listen)
	}

	return errs
}

func validateSentrySettings(s *Settings) []string {
	if s.Sentry.Enabled && s.Sentry.DSN == "" {
		return []string{"sentry.dsn must be set when Sentry is enabled"}
	}
	if s.Sentry.SampleRate < 0 || s.Sentry.SampleRate > 1 {
		return []string{"sentry.samplerate must be between 0 and 1"}
	}
	return nil
}

func validateTargetSettings(s *Settings) []string {
	var errs []string
	t := s.Targets

	if t.Local.Enabled && t.Local.Path == "" {
		errs = append(errs, "targets.local.path must be set when the local target is enabled")
	}
	if t.FTP.Enabled && t.FTP.Host == "" {
		errs = append(errs, "targets.ftp.host must be set when the FTP target is enabled")
	}
	if t.SFTP.Enabled {
		if t.SFTP.Host == "" {
			errs = append(errs, "targets.sftp.host must be set when the SFTP target is enabled")
		}
		if t.SFTP.Password == "" && t.SFTP.KeyFile == "" {
			errs = append(errs, "targets.sftp requires a password or keyfile")
		}
	}

	return errs
}
