package email

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
)

type EmailSender interface {
	SendEmail(ctx context.Context, msg Message) error
}

type Message struct {
	SendTo   string
	Subject  string
	BodyHTML string
	Tag      string
}

func (m Message) Validate() error {
	if _, err := mail.ParseAddress(m.SendTo); err != nil {
		return fmt.Errorf("%w: recipient: %v", ErrInvalidMessage, err)
	}
	if strings.TrimSpace(m.Subject) == "" {
		return fmt.Errorf("%w: subject is required", ErrInvalidMessage)
	}
	if strings.TrimSpace(m.BodyHTML) == "" {
		return fmt.Errorf("%w: body is required", ErrInvalidMessage)
	}
	return nil
}
