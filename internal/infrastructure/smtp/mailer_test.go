package smtp

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/community-hub/internal/config"
	"github.com/community-hub/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	addr string
	to   []string
	msg  string
}

func newTestMailer(recipients []string, fail error) (*Mailer, *[]sent) {
	var log []sent
	m := NewMailer(&config.Config{
		SMTPHost:               "mail.local",
		SMTPPort:               "1025",
		SMTPFrom:               "hub@community.local",
		AnnouncementRecipients: recipients,
	})
	m.send = func(addr string, _ smtp.Auth, _ string, to []string, msg []byte) error {
		if fail != nil {
			return fail
		}
		log = append(log, sent{addr: addr, to: to, msg: string(msg)})
		return nil
	}
	return m, &log
}

func TestDispatch_EmailsAnnouncements(t *testing.T) {
	m, log := newTestMailer([]string{"a@x.io", "b@x.io"}, nil)
	n := domain.Notification{
		Title:   "Pool Reopening",
		Message: "The pool reopens Saturday",
		Type:    domain.TypeAnnouncement,
		Sender:  &domain.Sender{Name: "Building Management", Department: "Operations"},
	}

	require.NoError(t, m.Dispatch(context.Background(), n))
	require.Len(t, *log, 1)
	got := (*log)[0]
	assert.Equal(t, "mail.local:1025", got.addr)
	assert.Equal(t, []string{"a@x.io", "b@x.io"}, got.to)
	assert.Contains(t, got.msg, "Subject: [announcement] Pool Reopening\r\n")
	assert.Contains(t, got.msg, "To: a@x.io, b@x.io\r\n")
	assert.Contains(t, got.msg, "-- Building Management, Operations")
}

func TestDispatch_SkipsRoutineAlerts(t *testing.T) {
	m, log := newTestMailer([]string{"a@x.io"}, nil)
	require.NoError(t, m.Dispatch(context.Background(), domain.Notification{Type: domain.TypeAlert, Priority: domain.PriorityLow}))
	assert.Empty(t, *log)

	require.NoError(t, m.Dispatch(context.Background(), domain.Notification{Type: domain.TypeAlert, Priority: domain.PriorityHigh}))
	assert.Len(t, *log, 1)
}

func TestDispatch_NoRecipientsIsNoop(t *testing.T) {
	m, log := newTestMailer(nil, errors.New("should not be called"))
	assert.NoError(t, m.Dispatch(context.Background(), domain.Notification{Type: domain.TypeAnnouncement}))
	assert.Empty(t, *log)
}

func TestDispatch_WrapsSendError(t *testing.T) {
	m, _ := newTestMailer([]string{"a@x.io"}, errors.New("connection refused"))
	err := m.Dispatch(context.Background(), domain.Notification{Type: domain.TypeAnnouncement})
	assert.ErrorContains(t, err, "connection refused")
}

func TestDispatch_TitleCannotInjectHeaders(t *testing.T) {
	m, log := newTestMailer([]string{"a@x.io"}, nil)
	n := domain.Notification{
		Title:   "Pool Reopening\r\nBcc: everyone@x.io",
		Message: "The pool reopens Saturday",
		Type:    domain.TypeAnnouncement,
	}

	require.NoError(t, m.Dispatch(context.Background(), n))
	require.Len(t, *log, 1)
	got := (*log)[0].msg
	assert.NotContains(t, got, "\r\nBcc:")
	assert.NotContains(t, got, "\nBcc:")
	assert.Contains(t, got, "Subject: [announcement] Pool Reopening  Bcc: everyone@x.io\r\n")
}
