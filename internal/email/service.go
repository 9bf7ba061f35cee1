package email

import (
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/clinic-portal/config"
)

type Service interface {
	SendBookingConfirmation(ctx context.Context, to string, booking *Booking) error
	SendWelcome(ctx context.Context, to string, name string) error
}

// Booking is what a confirmation email shows.
type Booking struct {
	PatientName      string
	ProfessionalName string
	ConsultationType string
	ScheduledAt      time.Time
}

var bookingTmpl = template.Must(template.New("booking").Parse(`<p>Hello {{.PatientName}},</p>
<p>Your {{.ConsultationType}} appointment with {{.ProfessionalName}} is booked for
{{.ScheduledAt.Format "Monday, 02 January 2006 at 15:04"}}.</p>
<p>If you need to reschedule, reply to this email.</p>`))

var welcomeTmpl = template.Must(template.New("welcome").Parse(`<p>Welcome, {{.}}!</p>
<p>Your account is ready. Browse the catalog to start your first course.</p>`))

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type smtpService struct {
	from   string
	dialer sender
}

// NewSMTPService sends mail through the configured SMTP relay. With no host
// configured it returns a service that only logs.
func NewSMTPService(cfg config.SMTPConfig) Service {
	if cfg.Host == "" {
		return &logService{}
	}
	return &smtpService{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (s *smtpService) SendBookingConfirmation(ctx context.Context, to string, booking *Booking) error {
	var body strings.Builder
	if err := bookingTmpl.Execute(&body, booking); err != nil {
		return fmt.Errorf("failed to render booking email: %w", err)
	}
	return s.send(ctx, to, "Your appointment is confirmed", body.String())
}

func (s *smtpService) SendWelcome(ctx context.Context, to string, name string) error {
	var body strings.Builder
	if err := welcomeTmpl.Execute(&body, name); err != nil {
		return fmt.Errorf("failed to render welcome email: %w", err)
	}
	return s.send(ctx, to, "Welcome to the academy", body.String())
}

func (s *smtpService) send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	log.Debug().Str("to", to).Str("subject", subject).Msg("email sent")
	return nil
}

type logService struct{}

func (logService) SendBookingConfirmation(ctx context.Context, to string, booking *Booking) error {
	log.Info().Str("to", to).Time("scheduled_at", booking.ScheduledAt).Msg("smtp not configured, booking confirmation not sent")
	return nil
}

func (logService) SendWelcome(ctx context.Context, to string, name string) error {
	log.Info().Str("to", to).Msg("smtp not configured, welcome email not sent")
	return nil
}
