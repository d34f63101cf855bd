package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/raushankrgupta/tailor-connect/apperrors"
	"github.com/raushankrgupta/tailor-connect/middleware"
	"github.com/raushankrgupta/tailor-connect/models"
	"github.com/raushankrgupta/tailor-connect/session"
	"github.com/raushankrgupta/tailor-connect/store"
	"github.com/raushankrgupta/tailor-connect/utils"
	"go.uber.org/zap"
)

const stateTTL = 10 * time.Minute

var errInvalidCode = apperrors.New(apperrors.KindAuthenticationRequired, "Invalid or expired code.", nil)

// LoginCodeRequest asks for a one-time sign-in code.
type LoginCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// VerifyCodeRequest exchanges a sign-in code for a session.
type VerifyCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

// SignInResult is returned by every successful sign-in.
type SignInResult struct {
	Token    string              `json:"token"`
	Role     models.Role         `json:"role"`
	Profile  *models.UserProfile `json:"profile"`
	Redirect string              `json:"redirect,omitempty"`
}

// SendLoginCode mails a one-time code to the given address.
func (s *Server) SendLoginCode(w http.ResponseWriter, r *http.Request) error {
	var logMessageBuilder strings.Builder
	defer utils.FlushLogMessage(s.Log, &logMessageBuilder)
	utils.AddToLogMessage(&logMessageBuilder, "[Send Login Code API]")

	var req LoginCodeRequest
	if err := s.decode(r, &req); err != nil {
		utils.AddToLogMessage(&logMessageBuilder, "Invalid request body")
		return err
	}
	email := normalizeEmail(req.Email)

	code, err := utils.GenerateCode()
	if err != nil {
		return err
	}
	hash, err := utils.HashCode(code)
	if err != nil {
		return err
	}

	if _, err := s.Identities.SaveCode(r.Context(), email, store.Code{
		Hash:      hash,
		ExpiresAt: time.Now().UTC().Add(s.Auth.CodeTTL),
	}); err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to save code: %v", err))
		return apperrors.Persistence("Failed to start sign-in. Please try again.", err)
	}

	if err := s.Mailer.SendSignInCode(r.Context(), email, code); err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to send code: %v", err))
		return apperrors.New(apperrors.KindInternal, "Failed to send sign-in code.", err)
	}

	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Code sent to %s", email))
	utils.RespondSuccess(w, http.StatusOK, "Sign-in code sent. Please check your email.", nil)
	return nil
}

// VerifyLoginCode checks a code and signs the identity in.
func (s *Server) VerifyLoginCode(w http.ResponseWriter, r *http.Request) error {
	var logMessageBuilder strings.Builder
	defer utils.FlushLogMessage(s.Log, &logMessageBuilder)
	utils.AddToLogMessage(&logMessageBuilder, "[Verify Login Code API]")

	role, _ := models.ParseRole(mux.Vars(r)["role"])

	var req VerifyCodeRequest
	if err := s.decode(r, &req); err != nil {
		return err
	}
	email := normalizeEmail(req.Email)
	ctx := r.Context()

	identity, err := s.Identities.Identity(ctx, email)
	if err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Identity lookup failed: %v", err))
		if errors.Is(err, store.ErrNotFound) {
			return errInvalidCode
		}
		return apperrors.Persistence("Failed to verify code.", err)
	}

	if identity.CodeHash == "" || time.Now().After(identity.ExpiresAt) || identity.Attempts >= s.Auth.MaxCodeAttempts {
		utils.AddToLogMessage(&logMessageBuilder, "Code expired, missing or exhausted")
		return errInvalidCode
	}
	if !utils.CheckCode(identity.CodeHash, req.Code) {
		utils.AddToLogMessage(&logMessageBuilder, "Code mismatch")
		if err := s.Identities.RecordAttempt(ctx, email); err != nil {
			s.Log.Warn("failed to record code attempt", zap.Error(err))
		}
		return errInvalidCode
	}
	if err := s.Identities.ClearCode(ctx, email); err != nil {
		return apperrors.Persistence("Failed to verify code.", err)
	}

	result, err := s.signIn(r, role, models.AuthUser{UID: identity.UID, Email: email})
	if err != nil {
		return err
	}
	s.setSessionCookie(w, result.Token)
	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Signed in %s as %s", identity.UID, result.Role))
	utils.RespondSuccess(w, http.StatusOK, "Signed in successfully.", result)
	return nil
}

// Logout ends the caller's session.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) error {
	sess, err := session.Require(r.Context())
	if err != nil {
		return err
	}
	if s.Hub != nil {
		s.Hub.SignOut(sess)
	}
	middleware.ClearSessionCookie(w)
	utils.RespondSuccess(w, http.StatusOK, "Signed out.", nil)
	return nil
}

// SessionRoute tells the client where the caller belongs.
func (s *Server) SessionRoute(w http.ResponseWriter, r *http.Request) error {
	sess, err := session.Require(r.Context())
	if err != nil {
		return err
	}
	status, err := s.Resolver.Resolve(r.Context(), sess.UID)
	if err != nil {
		return err
	}
	decision := session.Route(status, r.URL.Query().Get("current"))
	utils.RespondSuccess(w, http.StatusOK, "", struct {
		session.Status
		session.Decision
	}{status, decision})
	return nil
}

// signIn records the profile for a freshly authenticated user, announces the session and
// issues its token. An identity that already has a profile keeps the role of that profile.
func (s *Server) signIn(r *http.Request, requested models.Role, user models.AuthUser) (SignInResult, error) {
	ctx := r.Context()

	status, err := s.Resolver.Resolve(ctx, user.UID)
	if err != nil {
		return SignInResult{}, err
	}
	role := requested
	if status.Exists {
		role = status.Role
	}

	if _, err := s.Profiles.CreateStub(ctx, role, user); err != nil {
		return SignInResult{}, err
	}
	p, err := s.Profiles.Get(ctx, role, user.UID)
	if err != nil {
		return SignInResult{}, err
	}

	token, err := utils.GenerateToken(s.secret, s.Auth.Issuer, user.UID, string(role), user.Email, s.Auth.TokenTTL)
	if err != nil {
		return SignInResult{}, err
	}

	sess := session.Session{UID: user.UID, Role: role, Email: user.Email}
	if s.Hub != nil {
		s.Hub.SignIn(sess)
	}

	decision := session.Route(session.Status{
		Exists:              true,
		Role:                role,
		OnboardingCompleted: p.OnboardingCompleted,
	}, role.LoginPath())
	return SignInResult{Token: token, Role: role, Profile: p, Redirect: decision.Redirect}, nil
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	middleware.SetSessionCookie(w, token, s.Auth.TokenTTL)
}

// decode reads a JSON body into dst and checks its validate tags.
func (s *Server) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.Validation("Invalid request body", nil)
	}
	if err := s.validate.Struct(dst); err != nil {
		return apperrors.Validation("Invalid request body", fieldErrors(err))
	}
	return nil
}

// decodeRaw reads a JSON object body for the profile validator.
func decodeRaw(r *http.Request) (map[string]any, error) {
	raw := map[string]any{}
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, apperrors.Validation("Invalid request body", nil)
	}
	return raw, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func fieldErrors(err error) apperrors.FieldErrors {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := apperrors.FieldErrors{}
	for _, fe := range verrs {
		fields.Add(fe.Field(), fmt.Sprintf("%s is invalid (%s).", fe.Field(), fe.Tag()))
	}
	return fields
}
