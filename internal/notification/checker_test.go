package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tphakala/bonsai-go/internal/datastore/entities"
	bonsaierrors "github.com/tphakala/bonsai-go/internal/errors"
	"github.com/tphakala/bonsai-go/internal/observability/metrics"
)

var testNow = time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

type fakeSource struct {
	mu        sync.Mutex
	reminders []*entities.Reminder
	notified  []uint
	markErr   error
	listErr   error
	calls     int
}

func (f *fakeSource) PendingNotifications(_ context.Context, _ time.Time) ([]*entities.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	var pending []*entities.Reminder
	for _, r := range f.reminders {
		if !r.NotificationSent {
			pending = append(pending, r)
		}
	}
	return pending, nil
}

func (f *fakeSource) MarkReminderNotified(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return f.markErr
	}
	for _, r := range f.reminders {
		if r.ID == id {
			r.NotificationSent = true
		}
	}
	f.notified = append(f.notified, id)
	return nil
}

func (f *fakeSource) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeSender struct {
	name string
	err  error

	mu   sync.Mutex
	sent []*Message
}

func (f *fakeSender) Name() string { return f.name }

func (f *fakeSender) Send(_ context.Context, msg *Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSender) Sent() []*Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Message(nil), f.sent...)
}

func reminder(id uint, number, message string) *entities.Reminder {
	return &entities.Reminder{
		ID:           id,
		TreeID:       id * 10,
		ReminderDate: testNow.AddDate(0, 0, -1),
		Message:      message,
		Tree:         &entities.Tree{ID: id * 10, TreeNumber: number, TreeName: "Tree " + number},
	}
}

func newTestChecker(t *testing.T, source ReminderSource, senders []Sender, opts ...CheckerOption) *Checker {
	t.Helper()
	opts = append([]CheckerOption{WithClock(func() time.Time { return testNow })}, opts...)
	c, err := NewChecker(source, senders, opts...)
	require.NoError(t, err)
	return c
}

func TestCheckSendsAndFlagsReminders(t *testing.T) {
	t.Parallel()

	source := &fakeSource{reminders: []*entities.Reminder{
		reminder(1, "BON-001", "Repot before summer"),
		reminder(2, "BON-002", "Check wiring"),
	}}
	sender := &fakeSender{name: "fake"}
	c := newTestChecker(t, source, []Sender{sender})

	result, err := c.Check(t.Context())
	require.NoError(t, err)
	assert.Equal(t, CheckResult{Pending: 2, Sent: 2}, result)
	assert.Equal(t, []uint{1, 2}, source.notified)

	sent := sender.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "Bonsai Reminder: Tree BON-001", sent[0].Title)
	assert.Equal(t, "Repot before summer", sent[0].Body)
	assert.Equal(t, "BON-002", sent[1].TreeNumber)

	// Flagged reminders are not sent twice.
	result, err = c.Check(t.Context())
	require.NoError(t, err)
	assert.Equal(t, CheckResult{}, result)
	assert.Len(t, sender.Sent(), 2)
}

func TestCheckLeavesUndeliveredRemindersPending(t *testing.T) {
	t.Parallel()

	source := &fakeSource{reminders: []*entities.Reminder{reminder(1, "BON-001", "Water")}}
	c := newTestChecker(t, source, []Sender{&fakeSender{name: "down", err: errors.New("connection refused")}})

	result, err := c.Check(t.Context())
	require.NoError(t, err)
	assert.Equal(t, CheckResult{Pending: 1, Failed: 1}, result)
	assert.Empty(t, source.notified)
	assert.False(t, source.reminders[0].NotificationSent)
}

func TestCheckFlagsWhenAnySenderSucceeds(t *testing.T) {
	t.Parallel()

	source := &fakeSource{reminders: []*entities.Reminder{reminder(1, "BON-001", "Water")}}
	up := &fakeSender{name: "up"}
	c := newTestChecker(t, source, []Sender{&fakeSender{name: "down", err: errors.New("boom")}, up})

	result, err := c.Check(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)
	assert.Len(t, up.Sent(), 1)
	assert.Equal(t, []uint{1}, source.notified)
}

func TestCheckCountsFlagFailures(t *testing.T) {
	t.Parallel()

	source := &fakeSource{
		reminders: []*entities.Reminder{reminder(1, "BON-001", "Water")},
		markErr:   errors.New("database is locked"),
	}
	c := newTestChecker(t, source, []Sender{&fakeSender{name: "fake"}})

	result, err := c.Check(t.Context())
	require.NoError(t, err)
	assert.Equal(t, CheckResult{Pending: 1, Failed: 1}, result)
}

func TestCheckPropagatesListError(t *testing.T) {
	t.Parallel()

	source := &fakeSource{listErr: errors.New("no such table: reminders")}
	c := newTestChecker(t, source, []Sender{&fakeSender{name: "fake"}})

	_, err := c.Check(t.Context())
	require.Error(t, err)
}

func TestCheckRecordsMetrics(t *testing.T) {
	t.Parallel()

	m, err := metrics.NewNotificationMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	source := &fakeSource{reminders: []*entities.Reminder{
		reminder(1, "BON-001", "Water"),
		reminder(2, "BON-002", "Feed"),
	}}
	c := newTestChecker(t, source, []Sender{&fakeSender{name: "fake"}},
		WithMetrics(m), WithRateLimit(600, 1))

	start := time.Now()
	result, err := c.Check(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Sent)

	// 600 per minute with a burst of one spaces the second send by 100ms.
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RateLimited), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.PendingReminders), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.DeliveriesTotal.WithLabelValues("fake", metrics.StatusSuccess)), 0)
}

func TestCheckStopsWhenRateLimitWaitIsCancelled(t *testing.T) {
	t.Parallel()

	source := &fakeSource{reminders: []*entities.Reminder{
		reminder(1, "BON-001", "Water"),
		reminder(2, "BON-002", "Feed"),
	}}
	sender := &fakeSender{name: "fake"}
	c := newTestChecker(t, source, []Sender{sender}, WithRateLimit(1, 1))

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()

	result, err := c.Check(ctx)
	require.Error(t, err)
	assert.True(t, bonsaierrors.IsCategory(err, bonsaierrors.CategoryCancellation))
	assert.Equal(t, 1, result.Sent)
	assert.Len(t, sender.Sent(), 1)
}

func TestNewCheckerRequiresSender(t *testing.T) {
	t.Parallel()

	_, err := NewChecker(&fakeSource{}, nil)
	require.Error(t, err)
	assert.True(t, bonsaierrors.IsCategory(err, bonsaierrors.CategoryConfiguration))
}

func TestRunChecksUntilCancelled(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	source := &fakeSource{reminders: []*entities.Reminder{reminder(1, "BON-001", "Water")}}
	sender := &fakeSender{name: "fake"}
	c := newTestChecker(t, source, []Sender{sender})

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Run(ctx, 10*time.Millisecond)
	}()

	assert.Eventually(t, func() bool { return source.Calls() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Len(t, sender.Sent(), 1)
}

func TestReminderMessageWithoutTree(t *testing.T) {
	t.Parallel()

	msg := ReminderMessage(&entities.Reminder{ID: 3, TreeID: 7, Message: "Prune"})
	assert.Equal(t, "Bonsai Reminder: Tree #7", msg.Title)
	assert.Equal(t, "Prune", msg.Body)
}
