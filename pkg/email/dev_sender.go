package email

import (
	"context"
	"log/slog"
)

// DevSender logs messages instead of delivering them.
type DevSender struct {
	log *slog.Logger
}

func NewDevSender(log *slog.Logger) *DevSender {
	return &DevSender{log: log}
}

func (d *DevSender) SendEmail(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	d.log.InfoContext(ctx, "email suppressed in development",
		slog.String("to", msg.SendTo),
		slog.String("subject", msg.Subject),
		slog.String("tag", msg.Tag),
		slog.Int("body_bytes", len(msg.BodyHTML)),
	)
	return nil
}

// New picks Postmark when configured and falls back to DevSender.
func New(cfg Config, log *slog.Logger) (EmailSender, error) {
	if !cfg.Enabled() {
		return NewDevSender(log), nil
	}
	return NewPostmarkClient(cfg)
}
