package billing

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/a-h/templ"

	"github.com/t333watch/t333watch/pkg/email"
	"github.com/t333watch/t333watch/pkg/email/templates"
	"github.com/t333watch/t333watch/pkg/logger"
	"github.com/t333watch/t333watch/svc/user"
)

// Notifier tells users about billing changes. Implementations must not block
// the caller and swallow their own failures.
type Notifier interface {
	PremiumActivated(ctx context.Context, u user.User, plan string)
	SubscriptionCanceled(ctx context.Context, u user.User, message string)
}

type nopNotifier struct{}

func (nopNotifier) PremiumActivated(context.Context, user.User, string)     {}
func (nopNotifier) SubscriptionCanceled(context.Context, user.User, string) {}

// EmailNotifier renders the billing templates and sends them in the
// background. Users without an email address are skipped.
type EmailNotifier struct {
	sender  email.EmailSender
	log     *slog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewEmailNotifier(sender email.EmailSender, log *slog.Logger) *EmailNotifier {
	return &EmailNotifier{
		sender:  sender,
		log:     log.With(logger.Component("billing.notifier")),
		timeout: 10 * time.Second,
	}
}

func (n *EmailNotifier) PremiumActivated(ctx context.Context, u user.User, plan string) {
	n.send(ctx, u, "premium_welcome", "Welcome to t333.watch Premium", templates.PremiumWelcome(u.DisplayName, plan))
}

func (n *EmailNotifier) SubscriptionCanceled(ctx context.Context, u user.User, message string) {
	n.send(ctx, u, "cancellation", "Your t333.watch Premium subscription", templates.Cancellation(u.DisplayName, message))
}

func (n *EmailNotifier) send(ctx context.Context, u user.User, tag, subject string, body templ.Component) {
	if u.Email == "" {
		return
	}
	html, err := templates.Render(ctx, body)
	if err != nil {
		n.log.ErrorContext(ctx, "render billing email", logger.UserID(u.ID), slog.String("template", tag), logger.Error(err))
		return
	}
	msg := email.Message{SendTo: u.Email, Subject: subject, BodyHTML: html, Tag: tag}

	ctx = context.WithoutCancel(ctx)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, n.timeout)
		defer cancel()
		if err := n.sender.SendEmail(ctx, msg); err != nil {
			n.log.WarnContext(ctx, "send billing email", logger.UserID(u.ID), slog.String("template", msg.Tag), logger.Error(err))
		}
	}()
}

// Wait blocks until in-flight sends finish or ctx is done.
func (n *EmailNotifier) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
