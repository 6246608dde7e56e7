package observability

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/tphakala/bonsai-go/internal/conf"
	"github.com/tphakala/bonsai-go/internal/logger"
	"github.com/tphakala/bonsai-go/internal/observability/metrics"
	"github.com/tphakala/bonsai-go/internal/telemetry"
)

// Endpoint serves /metrics on its own listener.
type Endpoint struct {
	listenAddress string
	metrics       *Metrics
	debug         bool // also serve pprof
}

// NewEndpoint returns an error when the metrics endpoint is disabled.
func NewEndpoint(settings *conf.Settings, m *Metrics) (*Endpoint, error) {
	if !settings.Metrics.Enabled {
		return nil, errors.New("metrics endpoint not enabled in settings")
	}
	return &Endpoint{listenAddress: settings.Metrics.Listen, metrics: m, debug: settings.Debug}, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (e *Endpoint) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", e.listenAddress)
	if err != nil {
		return err
	}
	return e.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (e *Endpoint) Serve(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	e.metrics.RegisterHandlers(mux)
	if e.debug {
		telemetry.RegisterDebugHandlers(mux)
	}

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		GetLogger().Info("metrics endpoint starting", logger.String("address", ln.Addr().String()))
		errCh <- server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	GetLogger().Info("stopping metrics endpoint")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), metrics.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		GetLogger().Error("metrics endpoint shutdown error", logger.Error(err))
		return err
	}
	return nil
}
