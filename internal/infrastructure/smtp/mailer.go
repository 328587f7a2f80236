package smtp

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/community-hub/internal/config"
	"github.com/community-hub/internal/domain"
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer emails announcements and high-priority alerts to the configured
// recipient list. Other notifications are ignored.
type Mailer struct {
	host       string
	port       string
	from       string
	username   string
	password   string
	recipients []string
	send       sendFunc
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:       cfg.SMTPHost,
		port:       cfg.SMTPPort,
		from:       cfg.SMTPFrom,
		username:   cfg.SMTPUsername,
		password:   cfg.SMTPPassword,
		recipients: cfg.AnnouncementRecipients,
		send:       smtp.SendMail,
	}
}

func (m *Mailer) Dispatch(_ context.Context, n domain.Notification) error {
	if !shouldEmail(n) || len(m.recipients) == 0 {
		return nil
	}
	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	addr := fmt.Sprintf("%s:%s", m.host, m.port)
	if err := m.send(addr, auth, m.from, m.recipients, m.message(n)); err != nil {
		return fmt.Errorf("send notification email: %w", err)
	}
	return nil
}

// headerSafe folds line breaks so a title cannot start a new header.
var headerSafe = strings.NewReplacer("\r", " ", "\n", " ")

func shouldEmail(n domain.Notification) bool {
	return n.Type == domain.TypeAnnouncement || n.Priority == domain.PriorityHigh
}

func (m *Mailer) message(n domain.Notification) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(m.recipients, ", "))
	fmt.Fprintf(&b, "Subject: [%s] %s\r\n", n.Type, headerSafe.Replace(n.Title))
	b.WriteString("\r\n")
	b.WriteString(n.Message)
	if n.Sender != nil && n.Sender.Name != "" {
		b.WriteString("\r\n\r\n-- ")
		b.WriteString(n.Sender.Name)
		if n.Sender.Department != "" {
			b.WriteString(", ")
			b.WriteString(n.Sender.Department)
		}
	}
	return []byte(b.String())
}
