package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// PremiumWelcome is sent once a checkout completes.
func PremiumWelcome(displayName, plan string) templ.Component {
	return layout(displayName, templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<p>Your "+templ.EscapeString(plan)+
			" Premium subscription is active. Bigger packs, private packs and VOD sync are unlocked.</p>"+
			"<p>Happy watching,<br>t333.watch</p>")
		return err
	}))
}

// Cancellation carries the same message the cancel endpoint returns.
func Cancellation(displayName, message string) templ.Component {
	return layout(displayName, templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<p>"+templ.EscapeString(message)+"</p>"+
			"<p>You can resubscribe any time from your account page.</p><p>t333.watch</p>")
		return err
	}))
}

func layout(displayName string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!doctype html><html><body style="font-family: sans-serif"><p>Hi `+
			templ.EscapeString(displayName)+",</p>"); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</body></html>")
		return err
	})
}
