// Package notify delivers best-effort booking notifications. Delivery is
// decoupled from the booking outcome: each recipient is attempted
// independently and failures are logged for manual resend, never returned.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Message is one notification to one recipient. Template rendering happens
// on the sender side; the dispatcher only carries the template id and data.
type Message struct {
	Recipient  string
	TemplateID string
	Data       map[string]string
}

// Outcome is the settled result of one send attempt.
type Outcome struct {
	Recipient  string
	TemplateID string
	Err        error
}

func (o Outcome) OK() bool {
	return o.Err == nil
}

type Sender interface {
	Send(ctx context.Context, recipient, templateID string, data map[string]string) error
}

type Dispatcher struct {
	sender Sender
	logger *slog.Logger
}

func NewDispatcher(sender Sender, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{sender: sender, logger: logger}
}

// Dispatch sends every message concurrently and waits for all of them to
// settle. One recipient's failure never prevents or delays another's
// delivery. The aggregated outcomes are for observability only.
func (d *Dispatcher) Dispatch(ctx context.Context, msgs ...Message) []Outcome {
	outcomes := make([]Outcome, len(msgs))

	var wg sync.WaitGroup
	for i, msg := range msgs {
		wg.Add(1)
		go func(i int, msg Message) {
			defer wg.Done()
			err := d.sender.Send(ctx, msg.Recipient, msg.TemplateID, msg.Data)
			outcomes[i] = Outcome{Recipient: msg.Recipient, TemplateID: msg.TemplateID, Err: err}
		}(i, msg)
	}
	wg.Wait()

	for _, o := range outcomes {
		if o.Err != nil {
			d.logger.Error("notification delivery failed",
				"recipient", o.Recipient,
				"template", o.TemplateID,
				"err", o.Err,
			)
		} else {
			d.logger.Info("notification delivered",
				"recipient", o.Recipient,
				"template", o.TemplateID,
			)
		}
	}

	return outcomes
}

// Go dispatches detached from the caller's request. The booking flow uses
// this so its result is settled before any delivery attempt finishes.
func (d *Dispatcher) Go(msgs ...Message) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		d.Dispatch(ctx, msgs...)
	}()
}
