package email

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/clinic-portal/config"
)

type captureSender struct {
	sent []*gomail.Message
	err  error
}

func (c *captureSender) DialAndSend(m ...*gomail.Message) error {
	c.sent = append(c.sent, m...)
	return c.err
}

func TestBookingConfirmationHeaders(t *testing.T) {
	dialer := &captureSender{}
	svc := &smtpService{from: "clinic@example.com", dialer: dialer}

	err := svc.SendBookingConfirmation(context.Background(), "ana@example.com", &Booking{
		PatientName:      "Ana",
		ProfessionalName: "Dr. Lima",
		ConsultationType: "Acupuncture",
		ScheduledAt:      time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, dialer.sent, 1)

	m := dialer.sent[0]
	assert.Equal(t, []string{"ana@example.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"clinic@example.com"}, m.GetHeader("From"))
	assert.Equal(t, []string{"Your appointment is confirmed"}, m.GetHeader("Subject"))
}

func TestSendFailureIsReturned(t *testing.T) {
	svc := &smtpService{from: "clinic@example.com", dialer: &captureSender{err: errors.New("connection refused")}}

	err := svc.SendWelcome(context.Background(), "x@example.com", "X")
	assert.ErrorContains(t, err, "connection refused")
}

func TestNoHostLogsOnly(t *testing.T) {
	svc := NewSMTPService(config.SMTPConfig{})
	_, ok := svc.(*logService)
	assert.True(t, ok)
	assert.NoError(t, svc.SendWelcome(context.Background(), "x@example.com", "X"))
}
