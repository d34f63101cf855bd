package utils

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// Mailer sends transactional email through SendGrid.
type Mailer struct {
	client   *sendgrid.Client
	fromName string
	fromAddr string
	log      *zap.Logger
}

func NewMailer(apiKey, fromName, fromAddr string, log *zap.Logger) (*Mailer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("SENDGRID_API_KEY is not set in environment variables")
	}
	return &Mailer{
		client:   sendgrid.NewSendClient(apiKey),
		fromName: fromName,
		fromAddr: fromAddr,
		log:      log,
	}, nil
}

// SendEmail sends a single message to toEmail.
func (m *Mailer) SendEmail(ctx context.Context, toName, toEmail, subject, textContent, htmlContent string) error {
	from := mail.NewEmail(m.fromName, m.fromAddr)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, textContent, htmlContent)

	response, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		m.log.Error("error sending email", zap.String("to", toEmail), zap.Error(err))
		return err
	}

	if response.StatusCode >= 400 {
		m.log.Error("sendgrid api error", zap.Int("status", response.StatusCode), zap.String("body", response.Body))
		return fmt.Errorf("failed to send email, status code: %d", response.StatusCode)
	}

	m.log.Info("email sent", zap.String("to", toEmail), zap.Int("status", response.StatusCode))
	return nil
}

// SendSignInCode mails a one-time sign-in code.
func (m *Mailer) SendSignInCode(ctx context.Context, toEmail, code string) error {
	subject := "Your Tailor Connect sign-in code"
	text := fmt.Sprintf("Your sign-in code is %s. It expires in 10 minutes.", code)
	html := fmt.Sprintf("<p>Your sign-in code is <strong>%s</strong>.</p><p>It expires in 10 minutes.</p>", code)
	return m.SendEmail(ctx, "", toEmail, subject, text, html)
}
