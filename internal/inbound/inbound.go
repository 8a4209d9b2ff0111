// Package inbound turns arriving messages into rows of the email store.
package inbound

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shineum/mailroom-lite/internal/email"
)

// Message is an inbound message as seen by the handler. Bodies are read
// lazily and may fail.
type Message interface {
	From() string
	To() string
	Header(name string) string
	Text() (string, error)
	HTML() (string, error)
}

// Inserter appends one record to the email store.
type Inserter interface {
	Insert(ctx context.Context, rec *email.Record) (int64, error)
}

// Handler appends one store row per inbound message.
type Handler struct {
	store Inserter
	now   func() time.Time
}

// NewHandler creates a Handler writing to store.
func NewHandler(store Inserter) *Handler {
	return &Handler{store: store, now: time.Now}
}

// Result describes the outcome of handling one message. Err is set when
// the message was not stored.
type Result struct {
	ID        int64
	Sender    string
	Recipient string
	Subject   string
	Err       error
}

// OK reports whether the message was stored.
func (r Result) OK() bool {
	return r.Err == nil
}

// Log writes the result to logger. Failures are logged at error level and
// go no further.
func (r Result) Log(logger *slog.Logger) {
	if r.Err != nil {
		logger.Error("failed to store inbound email",
			"from", r.Sender,
			"to", r.Recipient,
			"subject", r.Subject,
			"error", r.Err,
		)
		return
	}
	logger.Info("inbound email stored",
		"id", r.ID,
		"from", r.Sender,
		"to", r.Recipient,
		"subject", r.Subject,
	)
}

// Handle reads msg and inserts it into the store. It never returns an
// error; the outcome is reported in the Result.
func (h *Handler) Handle(ctx context.Context, msg Message) Result {
	res := Result{
		Sender:    msg.From(),
		Recipient: msg.To(),
	}

	res.Subject = msg.Header("Subject")
	if res.Subject == "" {
		res.Subject = email.NoSubject
	}

	text, err := msg.Text()
	if err != nil {
		res.Err = fmt.Errorf("failed to read text body: %w", err)
		return res
	}

	html, err := msg.HTML()
	if err != nil {
		res.Err = fmt.Errorf("failed to read html body: %w", err)
		return res
	}

	rec := &email.Record{
		Sender:     res.Sender,
		Recipient:  res.Recipient,
		Subject:    res.Subject,
		Body:       text,
		HTMLBody:   html,
		ReceivedAt: email.FormatTimestamp(h.now()),
	}

	id, err := h.store.Insert(ctx, rec)
	if err != nil {
		res.Err = err
		return res
	}

	res.ID = id
	return res
}
