package logger

import (
	"regexp"
)

// sensitiveDataPatterns match credentials that may leak into error strings
// from FTP, SFTP, MQTT and notification URLs.
var sensitiveDataPatterns = []*regexp.Regexp{
	// user:password@ in connection URLs
	regexp.MustCompile(`(://[^:/@\s]+:)([^@\s]+)(@)`),
	regexp.MustCompile(`(?i)((token|secret|passw(or)?d|api[_-]?key)[\s:=]+)([^;,\s&]{3,})`),
}

// RedactSensitiveData replaces sensitive information with "[REDACTED]"
func RedactSensitiveData(input string) string {
	if input == "" {
		return input
	}

	input = sensitiveDataPatterns[0].ReplaceAllString(input, "${1}[REDACTED]${3}")
	return sensitiveDataPatterns[1].ReplaceAllString(input, "${1}[REDACTED]")
}
