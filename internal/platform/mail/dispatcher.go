// Package mail renders and delivers the transactional emails of the auth flow.
package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"

	"contacts_backend/internal/feature/auth/domain/entity"
	"contacts_backend/internal/platform/tasks"
)

//go:embed templates/*.html
var templateFS embed.FS

// Message is a rendered email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// TokenIssuer mints the single-purpose token embedded in confirm and reset links.
type TokenIssuer interface {
	IssueEmailAction(email string) (string, error)
}

// Submitter schedules background work.
type Submitter interface {
	Submit(t tasks.Task) bool
}

// Recorder counts delivery outcomes.
type Recorder interface {
	ObserveEmail(kind, outcome string)
}

type layout struct {
	subject  string
	template string
	token    bool
}

var layouts = map[entity.NotificationKind]layout{
	entity.NotifyConfirm:         {subject: "Confirm your email", template: "confirm.html", token: true},
	entity.NotifyReset:           {subject: "Reset password", template: "reset.html", token: true},
	entity.NotifyPasswordChanged: {subject: "Your password was changed", template: "update.html"},
}

// Dispatcher turns notifications into queued email deliveries.
type Dispatcher struct {
	sender   Sender
	tokens   TokenIssuer
	queue    Submitter
	recorder Recorder
	tmpl     *template.Template
}

// NewDispatcher parses the embedded templates. recorder may be nil.
func NewDispatcher(sender Sender, tokens TokenIssuer, queue Submitter, recorder Recorder) (*Dispatcher, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}
	return &Dispatcher{
		sender:   sender,
		tokens:   tokens,
		queue:    queue,
		recorder: recorder,
		tmpl:     tmpl,
	}, nil
}

// Notify queues the delivery of n and returns immediately. Failures are
// logged by the queue and never reach the caller.
func (d *Dispatcher) Notify(n entity.Notification) {
	d.queue.Submit(tasks.Task{
		Name: "email:" + string(n.Kind),
		Run: func(ctx context.Context) error {
			return d.Deliver(ctx, n)
		},
	})
}

// Deliver renders and sends n synchronously.
func (d *Dispatcher) Deliver(ctx context.Context, n entity.Notification) error {
	msg, err := d.Render(n)
	if err != nil {
		d.observe(n.Kind, "failed")
		return err
	}
	if err := d.sender.Send(ctx, msg); err != nil {
		d.observe(n.Kind, "failed")
		return fmt.Errorf("send %s email: %w", n.Kind, err)
	}
	d.observe(n.Kind, "sent")
	slog.Info("email sent", "kind", n.Kind, "to", n.Email)
	return nil
}

// Render builds the message for n, minting a token when the kind needs one.
func (d *Dispatcher) Render(n entity.Notification) (Message, error) {
	l, ok := layouts[n.Kind]
	if !ok {
		return Message{}, fmt.Errorf("unknown notification kind %q", n.Kind)
	}

	data := struct {
		Username string
		Host     string
		Token    string
	}{Username: n.Username, Host: n.BaseURL}
	if l.token {
		token, err := d.tokens.IssueEmailAction(n.Email)
		if err != nil {
			return Message{}, fmt.Errorf("issue email token: %w", err)
		}
		data.Token = token
	}

	var buf bytes.Buffer
	if err := d.tmpl.ExecuteTemplate(&buf, l.template, data); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", l.template, err)
	}
	return Message{To: n.Email, Subject: l.subject, HTML: buf.String()}, nil
}

func (d *Dispatcher) observe(kind entity.NotificationKind, outcome string) {
	if d.recorder != nil {
		d.recorder.ObserveEmail(string(kind), outcome)
	}
}

// LogSender writes messages to the log instead of sending them. It stands in
// when no SMTP server is configured.
type LogSender struct{}

// Send implements Sender.
func (LogSender) Send(_ context.Context, msg Message) error {
	slog.Warn("mail disabled, message not sent", "to", msg.To, "subject", msg.Subject)
	return nil
}
