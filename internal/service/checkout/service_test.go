package checkout

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-portal/config"
	"github.com/jwalitptl/clinic-portal/internal/auth"
	"github.com/jwalitptl/clinic-portal/internal/model"
	"github.com/jwalitptl/clinic-portal/pkg/errors"
)

type event struct {
	kind    string
	payload map[string]interface{}
}

type recorder struct {
	events []event
}

func (r *recorder) Log(ctx context.Context, eventType, source string, payload interface{}) error {
	r.events = append(r.events, event{kind: eventType, payload: payload.(map[string]interface{})})
	return nil
}

func (r *recorder) kinds() []string {
	var out []string
	for _, e := range r.events {
		out = append(out, e.kind)
	}
	return out
}

type fakeEnroller struct {
	err       error
	sessionID string
	calledAt  time.Time
}

func (f *fakeEnroller) Enroll(ctx context.Context, user *auth.Session, courseID uuid.UUID, paymentSessionID *string) (*model.Enrollment, error) {
	f.calledAt = time.Now()
	if f.err != nil {
		return nil, f.err
	}
	f.sessionID = *paymentSessionID
	return &model.Enrollment{ID: uuid.New(), CourseID: courseID, PaymentSessionID: paymentSessionID}, nil
}

func session() *auth.Session {
	return &auth.Session{ID: uuid.NewString(), UserID: uuid.New()}
}

func TestCheckoutSuccess(t *testing.T) {
	enroller := &fakeEnroller{}
	audit := &recorder{}
	gw := NewMockGateway(enroller, audit, config.CheckoutConfig{SuccessURL: "/done", CancelURL: "/oops"})

	res, err := gw.InitiateCheckout(context.Background(), uuid.New(), session())
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "/done", res.RedirectURL)
	assert.True(t, strings.HasPrefix(enroller.sessionID, "mock_"))
	assert.Equal(t, enroller.sessionID, res.SessionID)
	assert.Equal(t, []string{EventInitiated, EventCompleted}, audit.kinds())
}

func TestCheckoutFailureUsesCancelURL(t *testing.T) {
	enroller := &fakeEnroller{err: errors.Conflict("already enrolled in this course", nil)}
	audit := &recorder{}
	gw := NewMockGateway(enroller, audit, config.CheckoutConfig{})

	res, err := gw.InitiateCheckout(context.Background(), uuid.New(), session())
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, "/catalog?error=true", res.RedirectURL)
	assert.Equal(t, []string{EventInitiated, EventFailed}, audit.kinds())
	assert.Equal(t, "already enrolled in this course", audit.events[1].payload["error"])
}

func TestCheckoutFallbackSuccessURL(t *testing.T) {
	gw := NewMockGateway(&fakeEnroller{}, nil, config.CheckoutConfig{})

	res, err := gw.InitiateCheckout(context.Background(), uuid.New(), session())
	require.NoError(t, err)
	assert.Equal(t, "/dashboard?enrolled=true", res.RedirectURL)
}

func TestCheckoutWaitsBeforeEnrolling(t *testing.T) {
	enroller := &fakeEnroller{}
	gw := NewMockGateway(enroller, nil, config.CheckoutConfig{Delay: 30 * time.Millisecond})

	start := time.Now()
	_, err := gw.InitiateCheckout(context.Background(), uuid.New(), session())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, enroller.calledAt.Sub(start), 30*time.Millisecond)
}

func TestCheckoutCancelledDuringDelay(t *testing.T) {
	enroller := &fakeEnroller{}
	audit := &recorder{}
	gw := NewMockGateway(enroller, audit, config.CheckoutConfig{Delay: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gw.InitiateCheckout(ctx, uuid.New(), session())
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, enroller.calledAt.IsZero())
	assert.Equal(t, []string{EventInitiated}, audit.kinds())
}
