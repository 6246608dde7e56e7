package notification

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/tphakala/bonsai-go/internal/datastore/entities"
	"github.com/tphakala/bonsai-go/internal/errors"
	"github.com/tphakala/bonsai-go/internal/logger"
	"github.com/tphakala/bonsai-go/internal/observability/metrics"
)

// ReminderSource is the part of the collection service the checker needs.
type ReminderSource interface {
	PendingNotifications(ctx context.Context, now time.Time) ([]*entities.Reminder, error)
	MarkReminderNotified(ctx context.Context, id uint) error
}

// CheckResult summarizes one reminder check.
type CheckResult struct {
	Pending int // due reminders not yet notified
	Sent    int // delivered and flagged
	Failed  int // left for the next check
}

// Checker sends notifications for due reminders.
type Checker struct {
	source  ReminderSource
	senders []Sender
	limiter *rate.Limiter
	metrics *metrics.NotificationMetrics
	now     func() time.Time
}

// CheckerOption configures a Checker.
type CheckerOption func(*Checker)

// WithRateLimit allows perMinute notifications per minute with bursts of
// up to burst. A non-positive perMinute disables throttling.
func WithRateLimit(perMinute, burst int) CheckerOption {
	return func(c *Checker) {
		if perMinute <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), max(burst, 1))
	}
}

// WithMetrics records delivery outcomes.
func WithMetrics(m *metrics.NotificationMetrics) CheckerOption {
	return func(c *Checker) { c.metrics = m }
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) CheckerOption {
	return func(c *Checker) { c.now = now }
}

// NewChecker creates a Checker that delivers to senders.
func NewChecker(source ReminderSource, senders []Sender, opts ...CheckerOption) (*Checker, error) {
	if len(senders) == 0 {
		return nil, errors.Newf("no notification senders configured").
			Component("notification").
			Category(errors.CategoryConfiguration).
			Build()
	}

	c := &Checker{
		source:  source,
		senders: senders,
		limiter: rate.NewLimiter(rate.Inf, 0),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Check notifies about every reminder that is due and not completed or
// notified yet. A reminder is flagged as notified when at least one sender
// accepted it; otherwise it is retried on the next check.
func (c *Checker) Check(ctx context.Context) (CheckResult, error) {
	var result CheckResult

	reminders, err := c.source.PendingNotifications(ctx, c.now())
	if err != nil {
		return result, err
	}
	result.Pending = len(reminders)
	if c.metrics != nil {
		c.metrics.RecordCheck(result.Pending)
	}

	log := GetLogger()
	for _, r := range reminders {
		if err := c.wait(ctx); err != nil {
			return result, err
		}

		msg := ReminderMessage(r)
		if !c.deliver(ctx, msg) {
			result.Failed++
			continue
		}

		if err := c.source.MarkReminderNotified(ctx, r.ID); err != nil {
			// Delivered but not flagged: the next check sends it again.
			log.Error("failed to flag reminder as notified",
				logger.Uint("reminder_id", r.ID),
				logger.Error(err))
			result.Failed++
			continue
		}
		result.Sent++
	}

	if result.Pending > 0 {
		log.Info("reminder check finished",
			logger.Int("pending", result.Pending),
			logger.Int("sent", result.Sent),
			logger.Int("failed", result.Failed))
	}
	return result, nil
}

// wait blocks until the rate limiter admits another notification.
func (c *Checker) wait(ctx context.Context) error {
	if c.limiter.Allow() {
		return nil
	}
	if c.metrics != nil {
		c.metrics.RateLimited.Inc()
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.New(err).
			Component("notification").
			Category(errors.CategoryCancellation).
			Context("operation", "rate_limit_wait").
			Build()
	}
	return nil
}

// deliver sends msg through every sender and reports whether any succeeded.
func (c *Checker) deliver(ctx context.Context, msg *Message) bool {
	delivered := false
	for _, s := range c.senders {
		start := time.Now()
		err := s.Send(ctx, msg)
		if c.metrics != nil {
			c.metrics.RecordDelivery(s.Name(), err, time.Since(start).Seconds())
		}
		if err != nil {
			GetLogger().Warn("notification delivery failed",
				logger.String("sender", s.Name()),
				logger.Uint("reminder_id", msg.ReminderID),
				logger.Error(err))
			continue
		}
		delivered = true
	}
	return delivered
}

// Run checks immediately and then every interval until ctx is done.
func (c *Checker) Run(ctx context.Context, interval time.Duration) {
	log := GetLogger()
	log.Info("reminder checker started", logger.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := c.Check(ctx); err != nil && ctx.Err() == nil {
			log.Error("reminder check failed", logger.Error(err))
		}

		select {
		case <-ctx.Done():
			log.Info("reminder checker stopped")
			return
		case <-ticker.C:
		}
	}
}
