package email_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t333watch/t333watch/pkg/email"
	"github.com/t333watch/t333watch/pkg/logger"
)

func TestNewPostmarkClient(t *testing.T) {
	t.Parallel()

	_, err := email.NewPostmarkClient(email.Config{
		PostmarkServerToken: "server",
		SenderEmail:         "no-reply@t333.watch",
		SupportEmail:        "support@t333.watch",
	})
	require.NoError(t, err)

	_, err = email.NewPostmarkClient(email.Config{SenderEmail: "a@b.c", SupportEmail: "a@b.c"})
	require.ErrorIs(t, err, email.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "PostmarkServerToken is required")

	_, err = email.NewPostmarkClient(email.Config{PostmarkServerToken: "x", SenderEmail: "nope", SupportEmail: "a@b.c"})
	require.ErrorIs(t, err, email.ErrInvalidConfig)
}

func TestNewFallsBackToDevSender(t *testing.T) {
	t.Parallel()

	s, err := email.New(email.Config{}, logger.Discard())
	require.NoError(t, err)
	assert.IsType(t, &email.DevSender{}, s)
}

func TestDevSenderValidates(t *testing.T) {
	t.Parallel()
	s := email.NewDevSender(logger.Discard())

	require.NoError(t, s.SendEmail(context.Background(), email.Message{
		SendTo: "viewer@example.com", Subject: "hi", BodyHTML: "<p>hi</p>",
	}))
	require.ErrorIs(t, s.SendEmail(context.Background(), email.Message{SendTo: "bad", Subject: "hi", BodyHTML: "x"}), email.ErrInvalidMessage)
	require.ErrorIs(t, s.SendEmail(context.Background(), email.Message{SendTo: "a@b.c", BodyHTML: "x"}), email.ErrInvalidMessage)
}
