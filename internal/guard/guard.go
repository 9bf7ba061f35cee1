// Package guard decides what a route does for the current auth state.
// Evaluate is a pure function of its input; callers re-evaluate on every
// request.
package guard

import "github.com/jwalitptl/clinic-portal/internal/auth"

const LoginPath = "/login"

type Outcome int

const (
	// Loading means auth or the admin check has not settled.
	Loading Outcome = iota
	// Redirect sends a signed-out caller to LoginPath.
	Redirect
	// AccessDenied is shown to a signed-in non-admin. It never redirects.
	AccessDenied
	Render
)

func (o Outcome) String() string {
	switch o {
	case Loading:
		return "loading"
	case Redirect:
		return "redirect"
	case AccessDenied:
		return "access_denied"
	case Render:
		return "render"
	default:
		return "unknown"
	}
}

type Input struct {
	AuthLoading  bool
	User         *auth.Session
	AdminLoading bool
	IsAdmin      bool
	RequireAdmin bool
}

func Evaluate(in Input) Outcome {
	if in.AuthLoading {
		return Loading
	}
	if in.User == nil {
		return Redirect
	}
	if !in.RequireAdmin {
		return Render
	}
	if in.AdminLoading {
		return Loading
	}
	if !in.IsAdmin {
		return AccessDenied
	}
	return Render
}
