package smtp

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

// Client is the SMTP mail transport.
type Client struct {
	dialer *gomail.Dialer
	from   string
	domain string
}

type Options struct {
	Host     string
	Port     int
	Username string
	Password string
	// From is the sender address; Domain is used for Message-ID
	// generation.
	From   string
	Domain string
}

func NewClient(opts Options) *Client {
	return &Client{
		dialer: gomail.NewDialer(opts.Host, opts.Port, opts.Username, opts.Password),
		from:   opts.From,
		domain: opts.Domain,
	}
}

// Deliver sends one email with a plain text body and an optional HTML
// alternative.
func (c *Client) Deliver(to, subject, plainBody, htmlBody string) error {
	msg := gomail.NewMessage()

	msg.SetHeader("Message-ID", generateMessageID(c.domain))
	msg.SetHeader("Date", time.Now().Format(time.RFC1123Z))
	msg.SetHeader("From", c.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", plainBody)
	if htmlBody != "" {
		msg.AddAlternative("text/html", htmlBody)
	}

	if err := c.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

func generateMessageID(domain string) string {
	return fmt.Sprintf("<%s@%s>", uuid.New().String(), domain)
}
