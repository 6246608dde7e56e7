// Package app opens the collection service for the CLI commands.
package app

import (
	"fmt"

	"github.com/tphakala/bonsai-go/internal/archive"
	"github.com/tphakala/bonsai-go/internal/collection"
	"github.com/tphakala/bonsai-go/internal/conf"
	"github.com/tphakala/bonsai-go/internal/datastore"
	"github.com/tphakala/bonsai-go/internal/imagestore"
	"github.com/tphakala/bonsai-go/internal/observability"
)

// App bundles the opened store and the service built on it.
type App struct {
	Settings *conf.Settings
	Store    datastore.Interface
	Images   *imagestore.Store
	Service  *collection.Service
}

type options struct {
	version string
	archive bool
	metrics *observability.Metrics
}

// Option configures Open.
type Option func(*options)

// WithArchive enables export and import, stamping archives with version.
func WithArchive(version string) Option {
	return func(o *options) {
		o.archive = true
		o.version = version
	}
}

// WithMetrics records service operations on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// Open opens and migrates the configured database and builds the service.
// The caller must Close the returned App.
func Open(settings *conf.Settings, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	store, err := datastore.New(settings)
	if err != nil {
		return nil, err
	}
	if err := store.Open(); err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	images, err := imagestore.New(&settings.Images)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to open image store: %w", err)
	}

	var serviceOpts []collection.Option
	if o.archive {
		serviceOpts = append(serviceOpts, collection.WithArchiver(archive.NewCodec(store, settings, images, o.version)))
	}
	if o.metrics != nil {
		serviceOpts = append(serviceOpts, collection.WithMetrics(o.metrics.Collection))
	}

	return &App{
		Settings: settings,
		Store:    store,
		Images:   images,
		Service:  collection.NewService(store, images, serviceOpts...),
	}, nil
}

// Close closes the database.
func (a *App) Close() error {
	return a.Store.Close()
}
