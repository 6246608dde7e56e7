package notification

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/nicholas-fedor/shoutrrr"
	"github.com/nicholas-fedor/shoutrrr/pkg/router"
	"github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/tphakala/bonsai-go/internal/errors"
	"github.com/tphakala/bonsai-go/internal/logger"
	"github.com/tphakala/bonsai-go/internal/privacy"
)

// ShoutrrrSender sends through every configured shoutrrr service URL.
type ShoutrrrSender struct {
	router *router.ServiceRouter
	count  int
}

var _ Sender = (*ShoutrrrSender)(nil)

// NewShoutrrrSender validates urls and builds the service router. A timeout
// of zero keeps the router default.
func NewShoutrrrSender(urls []string, timeout time.Duration) (*ShoutrrrSender, error) {
	if len(urls) == 0 {
		return nil, errors.Newf("at least one notification URL is required").
			Component("notification").
			Category(errors.CategoryConfiguration).
			Build()
	}

	sender, err := shoutrrr.CreateSender(urls...)
	if err != nil {
		// URLs carry service tokens
		return nil, errors.New(privacy.WrapError(err)).
			Component("notification").
			Category(errors.CategoryConfiguration).
			Context("operation", "create_sender").
			Build()
	}

	if timeout > 0 {
		sender.Timeout = timeout
	}
	sender.SetLogger(log.New(io.Discard, "", 0))

	return &ShoutrrrSender{router: sender, count: len(urls)}, nil
}

// Name implements Sender.
func (s *ShoutrrrSender) Name() string { return "shoutrrr" }

// Send delivers msg to all services. It fails only when every service failed.
func (s *ShoutrrrSender) Send(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := types.Params{}
	params.SetTitle(msg.Title)

	var failed []error
	for _, err := range s.router.Send(msg.Body, &params) {
		if err != nil {
			failed = append(failed, privacy.WrapError(err))
		}
	}

	if len(failed) == 0 {
		return nil
	}
	if len(failed) < s.count {
		GetLogger().Warn("some notification services failed",
			logger.Int("failed", len(failed)),
			logger.Int("services", s.count),
			logger.Error(errors.Join(failed...)))
		return nil
	}

	return errors.New(errors.Join(failed...)).
		Component("notification").
		Category(errors.CategoryNotification).
		Context("reminder_id", msg.ReminderID).
		Build()
}
