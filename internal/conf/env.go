package conf

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/tphakala/bonsai-go/internal/logger"
)

// EnvPrefix is prepended to environment variable overrides, e.g. BONSAI_DATABASE_TYPE.
const EnvPrefix = "BONSAI"

// secretEnvBindings are bound explicitly so credentials can stay out of config.yaml
var secretEnvBindings = map[string]string{
	"database.mysql.password": "BONSAI_MYSQL_PASSWORD",
	"mqtt.password":           "BONSAI_MQTT_PASSWORD",
	"targets.ftp.password":    "BONSAI_FTP_PASSWORD",
	"targets.sftp.password":   "BONSAI_SFTP_PASSWORD",
	"sentry.dsn":              "BONSAI_SENTRY_DSN",
}

// bindEnvVars maps BONSAI_* environment variables onto config keys
func bindEnvVars() {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	for key, env := range secretEnvBindings {
		if err := viper.BindEnv(key, env); err != nil {
			GetLogger().Warn("failed to bind environment variable",
				logger.String("env", env),
				logger.Error(err))
		}
	}
}
