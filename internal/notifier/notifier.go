// Package notifier delivers out-of-band messages to users, currently just
// password-reset codes. The console implementation stands in wherever no SMTP
// relay is configured (development, tests).
package notifier

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// Notifier sends a message to a recipient address.
type Notifier interface {
	Notify(to, subject, message string) error
}

// ConsoleNotifier writes the message to the structured log instead of
// delivering it. Safe default for environments without mail credentials.
type ConsoleNotifier struct {
	logger *slog.Logger
}

// NewConsoleNotifier creates a console notifier.
func NewConsoleNotifier(logger *slog.Logger) *ConsoleNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsoleNotifier{logger: logger}
}

func (n *ConsoleNotifier) Notify(to, subject, message string) error {
	n.logger.Info("notification (console)",
		slog.String("to", to),
		slog.String("subject", subject),
		slog.String("message", message),
	)
	return nil
}

// SMTPNotifier delivers messages through a plain-auth SMTP relay.
type SMTPNotifier struct {
	host     string
	port     string
	username string
	password string
	from     string
}

// NewSMTPNotifier creates an SMTP notifier. from defaults to username when
// empty.
func NewSMTPNotifier(host, port, username, password, from string) *SMTPNotifier {
	if from == "" {
		from = username
	}
	return &SMTPNotifier{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

func (n *SMTPNotifier) Notify(to, subject, message string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", n.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("\r\n")
	msg.WriteString(message)
	msg.WriteString("\r\n")

	auth := smtp.PlainAuth("", n.username, n.password, n.host)
	addr := n.host + ":" + n.port
	if err := smtp.SendMail(addr, auth, n.from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	return nil
}
