package session

import (
	"context"

	"github.com/raushankrgupta/tailor-connect/apperrors"
	"github.com/raushankrgupta/tailor-connect/models"
)

// Session is the authenticated identity of a request.
type Session struct {
	UID   string      `json:"uid"`
	Role  models.Role `json:"role"`
	Email string      `json:"email,omitempty"`
}

type ctxKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session carried by ctx.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok && s.UID != ""
}

// Require returns the session carried by ctx or ErrAuthenticationRequired.
func Require(ctx context.Context) (Session, error) {
	s, ok := FromContext(ctx)
	if !ok {
		return Session{}, apperrors.ErrAuthenticationRequired
	}
	return s, nil
}
