// Package telemetry reports unexpected errors to Sentry. Reporting is opt-in
// and events are stripped of user, host and path details before sending.
package telemetry

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/tphakala/bonsai-go/internal/conf"
	"github.com/tphakala/bonsai-go/internal/errors"
	"github.com/tphakala/bonsai-go/internal/logger"
	"github.com/tphakala/bonsai-go/internal/privacy"
)

// FlushTimeout bounds how long Flush waits for queued events.
const FlushTimeout = 2 * time.Second

var initialized atomic.Bool

// allowedExtras are the only event extras kept by the privacy filter.
var allowedExtras = map[string]bool{"error_type": true, "component": true}

// InitSentry initializes Sentry when enabled in settings and routes
// categorized errors to it.
func InitSentry(settings *conf.Settings, version string) error {
	if !settings.Sentry.Enabled {
		GetLogger().Debug("sentry telemetry disabled")
		return nil
	}
	return initSentry(settings, version, nil)
}

// initSentry allows tests to supply a transport.
func initSentry(settings *conf.Settings, version string, transport sentry.Transport) error {
	sampleRate := settings.Sentry.SampleRate
	if sampleRate == 0 {
		sampleRate = 1.0
	}
	environment := settings.Sentry.Environment
	if environment == "" {
		environment = "production"
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              settings.Sentry.DSN,
		SampleRate:       sampleRate,
		Environment:      environment,
		Release:          fmt.Sprintf("bonsai-go@%s", version),
		AttachStacktrace: false,
		ServerName:       "",
		Transport:        transport,
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			return applyPrivacyFilters(event)
		},
	})
	if err != nil {
		return errors.New(fmt.Errorf("sentry initialization failed: %w", err)).
			Component("telemetry").
			Category(errors.CategoryConfiguration).
			Build()
	}

	errors.SetTelemetryReporter(errors.NewSentryReporter(true))
	initialized.Store(true)
	GetLogger().Info("sentry telemetry enabled",
		logger.String("environment", environment),
		logger.Float64("sample_rate", sampleRate))
	return nil
}

// applyPrivacyFilters removes user, host and runtime details from event.
func applyPrivacyFilters(event *sentry.Event) *sentry.Event {
	event.User = sentry.User{}
	event.ServerName = ""

	delete(event.Contexts, "device")
	delete(event.Contexts, "os")
	delete(event.Contexts, "runtime")

	for k := range event.Extra {
		if !allowedExtras[k] {
			delete(event.Extra, k)
		}
	}

	delete(event.Tags, "server_name")
	delete(event.Tags, "hostname")

	event.Message = privacy.ScrubMessage(event.Message)
	for i := range event.Exception {
		event.Exception[i].Value = privacy.ScrubMessage(event.Exception[i].Value)
	}
	return event
}

// Flush waits for queued events. It is a no-op when Sentry is not enabled.
func Flush() {
	if !initialized.Load() {
		return
	}
	if !sentry.Flush(FlushTimeout) {
		GetLogger().Warn("timed out flushing sentry events")
	}
}

// Shutdown flushes events and detaches the error reporter.
func Shutdown() {
	Flush()
	if initialized.CompareAndSwap(true, false) {
		errors.SetTelemetryReporter(nil)
	}
}
