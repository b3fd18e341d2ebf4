package service

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"gopkg.in/gomail.v2"

	"warehub-backend/internal/logger"
)

type smtpEmailSender struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewSMTPEmailSender(host string, port int, username, password, from string) EmailSender {
	return &smtpEmailSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

func (s *smtpEmailSender) Send(ctx context.Context, to, toName, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetAddressHeader("To", to, toName)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(s.host, s.port, s.username, s.password)

	logger.ExternalServiceCall("smtp", "DialAndSend", "to", to)
	err := d.DialAndSend(m)
	logger.ExternalServiceResult("smtp", "DialAndSend", err)
	if err != nil {
		return fmt.Errorf("failed to send email via gomail: %w", err)
	}
	return nil
}

type sendGridEmailSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

func NewSendGridEmailSender(apiKey, fromEmail, fromName string) EmailSender {
	return &sendGridEmailSender{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (s *sendGridEmailSender) Send(ctx context.Context, to, toName, subject, body string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	recipient := mail.NewEmail(toName, to)
	message := mail.NewSingleEmail(from, subject, recipient, body, "")

	logger.ExternalServiceCall("sendgrid", "Send", "to", to)
	response, err := s.client.SendWithContext(ctx, message)
	if err == nil && response.StatusCode >= 400 {
		err = fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	logger.ExternalServiceResult("sendgrid", "Send", err)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// logEmailSender writes emails to the log instead of delivering them.
type logEmailSender struct{}

func NewLogEmailSender() EmailSender {
	return logEmailSender{}
}

func (logEmailSender) Send(ctx context.Context, to, toName, subject, body string) error {
	logger.Info("Email (log provider)", "to", to, "subject", subject, "body", body)
	return nil
}
