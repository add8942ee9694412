package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridConfig holds the SendGrid credentials and sender identity.
type SendGridConfig struct {
	APIKey    string
	FromName  string
	FromEmail string
}

// SendGridMailer sends templated emails through SendGrid. The template
// identifier and context data are attached as dynamic template data;
// template bodies are managed on the provider side.
type SendGridMailer struct {
	cfg SendGridConfig
}

func NewSendGridMailer(cfg SendGridConfig) *SendGridMailer {
	return &SendGridMailer{cfg: cfg}
}

func (m *SendGridMailer) Send(ctx context.Context, toAddress, toName, subject, templateID string, data map[string]any) error {
	from := mail.NewEmail(m.cfg.FromName, m.cfg.FromEmail)
	to := mail.NewEmail(toName, toAddress)

	message := mail.NewV3Mail()
	message.SetFrom(from)
	message.Subject = subject

	p := mail.NewPersonalization()
	p.AddTos(to)
	p.SetDynamicTemplateData("template", templateID)
	for k, v := range data {
		p.SetDynamicTemplateData(k, v)
	}
	message.AddPersonalizations(p)

	client := sendgrid.NewSendClient(m.cfg.APIKey)
	resp, err := client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("failed to send email, status code: %d", resp.StatusCode)
	}
	return nil
}
