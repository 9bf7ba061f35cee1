package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-portal/config"
	"github.com/jwalitptl/clinic-portal/internal/auth"
	"github.com/jwalitptl/clinic-portal/internal/model"
)

const (
	EventInitiated = "checkout.initiated"
	EventCompleted = "checkout.completed"
	EventFailed    = "checkout.failed"

	source = "mock_payment"

	fallbackSuccessURL = "/dashboard?enrolled=true"
	fallbackCancelURL  = "/catalog?error=true"
)

// Result is what the front end needs to finish the checkout: where to go
// next and whether the enrollment exists.
type Result struct {
	Success     bool   `json:"success"`
	RedirectURL string `json:"redirect_url"`
	SessionID   string `json:"session_id,omitempty"`
}

// Gateway starts a payment for a course. A real provider would return a
// hosted payment page; the mock settles immediately.
type Gateway interface {
	InitiateCheckout(ctx context.Context, courseID uuid.UUID, user *auth.Session) (*Result, error)
}

type Enroller interface {
	Enroll(ctx context.Context, user *auth.Session, courseID uuid.UUID, paymentSessionID *string) (*model.Enrollment, error)
}

type AuditLogger interface {
	Log(ctx context.Context, eventType, source string, payload interface{}) error
}

// MockGateway enrolls the user after a fixed delay without charging
// anything. Enrollment failures come back as an unsuccessful Result.
type MockGateway struct {
	enroller   Enroller
	audit      AuditLogger
	successURL string
	cancelURL  string
	delay      time.Duration
}

func NewMockGateway(enroller Enroller, audit AuditLogger, cfg config.CheckoutConfig) *MockGateway {
	g := &MockGateway{
		enroller:   enroller,
		audit:      audit,
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
		delay:      cfg.Delay,
	}
	if g.successURL == "" {
		g.successURL = fallbackSuccessURL
	}
	if g.cancelURL == "" {
		g.cancelURL = fallbackCancelURL
	}
	return g
}

func (g *MockGateway) InitiateCheckout(ctx context.Context, courseID uuid.UUID, user *auth.Session) (*Result, error) {
	var userID string
	if user != nil {
		userID = user.UserID.String()
	}
	sessionID := "mock_" + uuid.NewString()

	g.log(ctx, EventInitiated, map[string]interface{}{
		"course_id":  courseID.String(),
		"user_id":    userID,
		"session_id": sessionID,
	})

	if err := g.wait(ctx); err != nil {
		return nil, err
	}

	if _, err := g.enroller.Enroll(ctx, user, courseID, &sessionID); err != nil {
		log.Warn().Err(err).Str("course_id", courseID.String()).Msg("mock checkout failed")
		g.log(ctx, EventFailed, map[string]interface{}{
			"course_id": courseID.String(),
			"user_id":   userID,
			"error":     err.Error(),
		})
		return &Result{Success: false, RedirectURL: g.cancelURL}, nil
	}

	g.log(ctx, EventCompleted, map[string]interface{}{
		"course_id":  courseID.String(),
		"user_id":    userID,
		"session_id": sessionID,
	})
	return &Result{Success: true, RedirectURL: g.successURL, SessionID: sessionID}, nil
}

// wait models the provider round trip. Only a cancelled request stops it.
func (g *MockGateway) wait(ctx context.Context) error {
	if g.delay <= 0 {
		return nil
	}
	t := time.NewTimer(g.delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *MockGateway) log(ctx context.Context, event string, payload map[string]interface{}) {
	if g.audit == nil {
		return
	}
	// The audit service already logs write failures.
	_ = g.audit.Log(ctx, event, source, payload)
}
