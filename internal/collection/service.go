// Package collection is the data-access surface of the bonsai tracker.
//
// Service methods are what the CLI and the HTTP API call. Each user-facing
// action runs as one database transaction: inputs are validated first, then
// every row the action touches is written through the same transaction
// handle, so a failure leaves nothing half-applied. Photo files are written
// before the transaction and removed again if it rolls back.
package collection

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"

	"github.com/tphakala/bonsai-go/internal/datastore"
	"github.com/tphakala/bonsai-go/internal/datastore/repository"
	"github.com/tphakala/bonsai-go/internal/errors"
	"github.com/tphakala/bonsai-go/internal/imagestore"
	"github.com/tphakala/bonsai-go/internal/logger"
	"github.com/tphakala/bonsai-go/internal/observability/metrics"
)

// speciesCacheTTL bounds how stale the cached species list may get when
// another process writes to the same database.
const speciesCacheTTL = 5 * time.Minute

const speciesCacheKey = "species"

// TreeFilter narrows ListTrees.
type TreeFilter = repository.TreeFilter

// ReminderFilter narrows ListReminders.
type ReminderFilter = repository.ReminderFilter

// Service implements collection operations on top of a datastore and an
// image store. It is safe for concurrent use.
type Service struct {
	store    datastore.Interface
	images   *imagestore.Store
	archiver Archiver
	metrics  metrics.Recorder
	validate *inputValidator
	species  *cache.Cache
	now      func() time.Time

	// numberMu serializes tree number generation with the insert that uses it.
	numberMu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithArchiver enables ExportCollection and ImportCollection.
func WithArchiver(a Archiver) Option {
	return func(s *Service) { s.archiver = a }
}

// WithMetrics records operation counts and durations.
func WithMetrics(r metrics.Recorder) Option {
	return func(s *Service) { s.metrics = r }
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service. store must already be open.
func NewService(store datastore.Interface, images *imagestore.Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		images:   images,
		validate: newInputValidator(),
		species:  cache.New(speciesCacheTTL, 2*speciesCacheTTL),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Images returns the photo store.
func (s *Service) Images() *imagestore.Store {
	return s.images
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time {
	return s.now()
}

// read returns repositories outside any transaction.
func (s *Service) read() *repository.Set {
	return repository.NewSet(s.store.DB())
}

// unitOfWork runs fn in one transaction and records the outcome under op.
func (s *Service) unitOfWork(ctx context.Context, op string, fn func(r *repository.Set) error) error {
	start := time.Now()
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		return fn(repository.NewSet(tx))
	})
	err = s.wrap(op, err)
	s.observe(op, start, err)
	return err
}

// observe records operation metrics when a recorder is configured.
func (s *Service) observe(op string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordDuration(op, time.Since(start).Seconds())
	if err != nil {
		s.metrics.RecordOperation(op, "error")
		var ee *errors.EnhancedError
		if errors.As(err, &ee) {
			s.metrics.RecordError(op, string(ee.Category))
		} else {
			s.metrics.RecordError(op, string(errors.CategoryGeneric))
		}
		return
	}
	s.metrics.RecordOperation(op, "success")
}

// wrap converts repository errors into categorized errors. Errors that are
// already categorized pass through unchanged.
func (s *Service) wrap(op string, err error) error {
	if err == nil {
		return nil
	}

	var ee *errors.EnhancedError
	if errors.As(err, &ee) {
		return err
	}

	category := errors.CategoryDatabase
	switch {
	case isNotFound(err):
		category = errors.CategoryNotFound
	case errors.Is(err, repository.ErrDuplicateKey):
		category = errors.CategoryConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		category = errors.CategoryCancellation
	}

	return errors.New(err).
		Component("collection").
		Category(category).
		Context("operation", op).
		Build()
}

func isNotFound(err error) bool {
	for _, sentinel := range []error{
		repository.ErrSpeciesNotFound,
		repository.ErrTreeNotFound,
		repository.ErrUpdateNotFound,
		repository.ErrPhotoNotFound,
		repository.ErrReminderNotFound,
		repository.ErrSettingsNotFound,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// conflictError builds a conflict category error.
func conflictError(format string, args ...any) error {
	return errors.Newf(format, args...).
		Component("collection").
		Category(errors.CategoryConflict).
		Build()
}

func treeFields(id uint, number string) []logger.Field {
	return []logger.Field{logger.Uint("tree_id", id), logger.String("tree_number", number)}
}
