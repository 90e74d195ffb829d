package notifier

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/warrantywise/warranty-api/internal/model"
)

// SMTPConfig holds the mail relay settings
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type emailNotifier struct {
	dialer *gomail.Dialer
	from   string
}

// NewEmailNotifier sends reminders over SMTP
func NewEmailNotifier(cfg SMTPConfig) Notifier {
	return &emailNotifier{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (n *emailNotifier) Channel() string { return model.ChannelEmail }

func (n *emailNotifier) Send(ctx context.Context, payload ReminderPayload) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", n.from)
	msg.SetHeader("To", payload.UserEmail)
	msg.SetHeader("Subject", fmt.Sprintf("Warranty expiring in %d days: %s", payload.ThresholdDays, payload.ProductName))
	msg.SetBody("text/plain", fmt.Sprintf(
		"Hi %s,\n\nYour warranty for %s expires on %s. This is your %d-day reminder.\n\nWarrantyWise",
		payload.UserName,
		payload.ProductName,
		payload.ExpiryDate.Format("January 2, 2006"),
		payload.ThresholdDays,
	))

	if err := n.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send reminder email: %w", err)
	}

	return nil
}
