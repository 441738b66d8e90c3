// Package channels delivers composed messages to contacts. Adapters share a
// single interface so the service can swap real delivery for a dry run.
package channels

import (
	"context"
	"fmt"
	"io"
	"net/smtp"
	"strings"

	"ar-collections-service/internal/composer"
	"ar-collections-service/pkg/logger"
)

// Sender delivers a composed message to a recipient address.
type Sender interface {
	// Send delivers the message. Name identifies the channel in logs and in
	// the communication history.
	Send(ctx context.Context, recipient string, msg composer.Message) error
	Name() string
}

// ConsoleSender writes messages to a writer instead of delivering them. Used
// for dry runs and local development.
type ConsoleSender struct {
	Out io.Writer
}

// Name identifies the channel.
func (s *ConsoleSender) Name() string { return "console" }

// Send prints the message.
func (s *ConsoleSender) Send(ctx context.Context, recipient string, msg composer.Message) error {
	_, err := fmt.Fprintf(s.Out, "To: %s\nSubject: %s\n\n%s\n%s\n",
		recipient, msg.Subject, msg.Body, strings.Repeat("-", 60))
	return err
}

// SMTPConfig holds delivery settings for the email channel.
type SMTPConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	From     string `json:"from"`
}

// EmailSender delivers messages over SMTP.
type EmailSender struct {
	config SMTPConfig
	log    logger.Logger
}

// NewEmailSender creates an SMTP-backed sender.
func NewEmailSender(config SMTPConfig, log logger.Logger) *EmailSender {
	return &EmailSender{config: config, log: log.WithComponent("email")}
}

// Name identifies the channel.
func (s *EmailSender) Name() string { return "email" }

// Send delivers the message to the recipient over SMTP.
func (s *EmailSender) Send(ctx context.Context, recipient string, msg composer.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	var auth smtp.Auth
	if s.config.Username != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	body := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		s.config.From, recipient, msg.Subject, msg.Body)

	if err := smtp.SendMail(addr, auth, s.config.From, []string{recipient}, []byte(body)); err != nil {
		return err
	}

	s.log.WithField("recipient", recipient).Info("Sent email")
	return nil
}
