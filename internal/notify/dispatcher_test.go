package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSender struct {
	mu       sync.Mutex
	failFor  map[string]error
	received []string
}

func (s *stubSender) Send(_ context.Context, recipient, _ string, _ map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received = append(s.received, recipient)
	return s.failFor[recipient]
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDispatchSettlesEveryMessage(t *testing.T) {
	sender := &stubSender{failFor: map[string]error{}}
	d := NewDispatcher(sender, discardLogger())

	outcomes := d.Dispatch(context.Background(),
		Message{Recipient: "a@example.com", TemplateID: "booking-confirmation"},
		Message{Recipient: "desk@example.com", TemplateID: "booking-notice"},
	)

	require.Len(t, outcomes, 2)
	assert.True(t, outcomes[0].OK())
	assert.True(t, outcomes[1].OK())
	assert.Equal(t, "a@example.com", outcomes[0].Recipient)
	assert.Equal(t, "desk@example.com", outcomes[1].Recipient)
}

func TestDispatchIsolatesFailures(t *testing.T) {
	sender := &stubSender{failFor: map[string]error{
		"a@example.com": errors.New("mailbox full"),
	}}
	d := NewDispatcher(sender, discardLogger())

	outcomes := d.Dispatch(context.Background(),
		Message{Recipient: "a@example.com", TemplateID: "booking-confirmation"},
		Message{Recipient: "desk@example.com", TemplateID: "booking-notice"},
	)

	require.Len(t, outcomes, 2)
	assert.False(t, outcomes[0].OK())
	assert.True(t, outcomes[1].OK(), "one recipient's failure must not block the other")

	sender.mu.Lock()
	defer sender.mu.Unlock()
	assert.Len(t, sender.received, 2, "both deliveries must be attempted")
}

func TestDispatchAllFailuresStillSettles(t *testing.T) {
	sender := &stubSender{failFor: map[string]error{
		"a@example.com":    errors.New("smtp down"),
		"desk@example.com": errors.New("smtp down"),
	}}
	d := NewDispatcher(sender, discardLogger())

	outcomes := d.Dispatch(context.Background(),
		Message{Recipient: "a@example.com", TemplateID: "booking-confirmation"},
		Message{Recipient: "desk@example.com", TemplateID: "booking-notice"},
	)

	require.Len(t, outcomes, 2)
	for _, o := range outcomes {
		assert.False(t, o.OK())
		assert.Error(t, o.Err)
	}
}
