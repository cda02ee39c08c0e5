package email

type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL" envDefault:"no-reply@t333.watch"`
	SupportEmail         string `env:"SUPPORT_EMAIL" envDefault:"support@t333.watch"`
}

// Enabled reports whether a Postmark token is configured. Without one the
// development sender is used.
func (c Config) Enabled() bool {
	return c.PostmarkServerToken != ""
}
