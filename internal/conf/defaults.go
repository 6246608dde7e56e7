// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "Bonsai Tracker")
	viper.SetDefault("main.datadir", defaultDataDir())

	viper.SetDefault("logging.default_level", "info")
	viper.SetDefault("logging.timezone", "Local")
	viper.SetDefault("logging.console.enabled", true)
	viper.SetDefault("logging.console.level", "info")
	viper.SetDefault("logging.file_output.enabled", false)
	viper.SetDefault("logging.file_output.path", "logs/bonsai.log")
	viper.SetDefault("logging.file_output.level", "info")

	viper.SetDefault("database.type", DatabaseSQLite)
	viper.SetDefault("database.sqlite.path", "bonsai.db")
	viper.SetDefault("database.mysql.host", "localhost")
	viper.SetDefault("database.mysql.port", 3306)
	viper.SetDefault("database.mysql.username", "bonsai")
	viper.SetDefault("database.mysql.password", "")
	viper.SetDefault("database.mysql.database", "bonsai")
	viper.SetDefault("database.slowquerythreshold", 200*time.Millisecond)

	viper.SetDefault("images.path", "images")
	viper.SetDefault("images.allowedextensions", []string{".jpg", ".jpeg", ".png", ".webp"})
	viper.SetDefault("images.maxuploadsize", "25MB")
	viper.SetDefault("images.fixorientation", true)

	viper.SetDefault("export.path", "exports")
	viper.SetDefault("export.minfreespace", "200MB")
	viper.SetDefault("export.upload", false)

	viper.SetDefault("notification.enabled", false)
	viper.SetDefault("notification.urls", []string{})
	viper.SetDefault("notification.timeout", 10*time.Second)
	viper.SetDefault("notification.checkinterval", time.Hour)
	viper.SetDefault("notification.ratelimit", 30)
	viper.SetDefault("notification.burst", 5)

	viper.SetDefault("mqtt.enabled", false)
	viper.SetDefault("mqtt.broker", "tcp://localhost:1883")
	viper.SetDefault("mqtt.topic", "bonsai/reminders")
	viper.SetDefault("mqtt.clientid", "bonsai-go")
	viper.SetDefault("mqtt.qos", 1)
	viper.SetDefault("mqtt.retain", false)

	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.listen", "127.0.0.1:8080")

	viper.SetDefault("metrics.enabled", false)
	viper.SetDefault("metrics.listen", "127.0.0.1:9090")

	viper.SetDefault("sentry.enabled", false)
	viper.SetDefault("sentry.dsn", "")
	viper.SetDefault("sentry.environment", "production")
	viper.SetDefault("sentry.samplerate", 1.0)

	viper.SetDefault("targets.local.enabled", false)
	viper.SetDefault("targets.local.path", "")
	viper.SetDefault("targets.ftp.enabled", false)
	viper.SetDefault("targets.ftp.port", 21)
	viper.SetDefault("targets.ftp.path", "/bonsai")
	viper.SetDefault("targets.ftp.timeout", 30*time.Second)
	viper.SetDefault("targets.sftp.enabled", false)
	viper.SetDefault("targets.sftp.port", 22)
	viper.SetDefault("targets.sftp.path", "bonsai")
	viper.SetDefault("targets.sftp.timeout", 30*time.Second)
}
