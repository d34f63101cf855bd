package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gorilla/mux"
	"github.com/raushankrgupta/tailor-connect/apperrors"
	"github.com/raushankrgupta/tailor-connect/config"
	"github.com/raushankrgupta/tailor-connect/models"
	"github.com/raushankrgupta/tailor-connect/utils"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleIssuer = "https://accounts.google.com"

// GoogleIdentity runs the Google authorization code flow.
type GoogleIdentity interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (models.AuthUser, error)
}

// GoogleOIDC exchanges authorization codes and verifies the returned ID token.
type GoogleOIDC struct {
	oauth    *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

func NewGoogleOIDC(ctx context.Context, cfg config.GoogleConfig) (*GoogleOIDC, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set")
	}
	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, fmt.Errorf("discover google provider: %w", err)
	}
	return &GoogleOIDC{
		oauth: &oauth2.Config{
			RedirectURL:  cfg.RedirectURL,
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

func (g *GoogleOIDC) AuthCodeURL(state string) string {
	return g.oauth.AuthCodeURL(state)
}

func (g *GoogleOIDC) Exchange(ctx context.Context, code string) (models.AuthUser, error) {
	token, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return models.AuthUser{}, fmt.Errorf("exchange code: %w", err)
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return models.AuthUser{}, errors.New("token response has no id_token")
	}
	idToken, err := g.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return models.AuthUser{}, fmt.Errorf("verify id token: %w", err)
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return models.AuthUser{}, fmt.Errorf("decode id token claims: %w", err)
	}

	user := models.AuthUser{
		UID:         "google:" + idToken.Subject,
		DisplayName: claims.Name,
		PhotoURL:    claims.Picture,
	}
	if claims.EmailVerified {
		user.Email = claims.Email
	}
	return user, nil
}

// GoogleLogin redirects to Google's consent screen.
func (s *Server) GoogleLogin(w http.ResponseWriter, r *http.Request) error {
	var logMessageBuilder strings.Builder
	defer utils.FlushLogMessage(s.Log, &logMessageBuilder)
	utils.AddToLogMessage(&logMessageBuilder, "[Google Login API]")

	if s.Google == nil {
		return apperrors.NotFound("Google sign-in is not configured.")
	}
	role, _ := models.ParseRole(mux.Vars(r)["role"])
	state, err := utils.GenerateStateToken(s.secret, string(role), stateTTL)
	if err != nil {
		return err
	}

	utils.AddToLogMessage(&logMessageBuilder, "Redirecting to Google Auth")
	http.Redirect(w, r, s.Google.AuthCodeURL(state), http.StatusTemporaryRedirect)
	return nil
}

// GoogleCallback completes Google sign-in.
func (s *Server) GoogleCallback(w http.ResponseWriter, r *http.Request) error {
	var logMessageBuilder strings.Builder
	defer utils.FlushLogMessage(s.Log, &logMessageBuilder)
	utils.AddToLogMessage(&logMessageBuilder, "[Google Callback API]")

	if s.Google == nil {
		return apperrors.NotFound("Google sign-in is not configured.")
	}

	roleName, err := utils.ValidateStateToken(s.secret, r.FormValue("state"))
	if err != nil {
		utils.AddToLogMessage(&logMessageBuilder, "Invalid state")
		return apperrors.Validation("State invalid", nil)
	}
	role, err := models.ParseRole(roleName)
	if err != nil {
		return apperrors.Validation("State invalid", nil)
	}

	code := r.FormValue("code")
	if code == "" {
		utils.AddToLogMessage(&logMessageBuilder, "Code not found in callback")
		return apperrors.Validation("Code not found", nil)
	}

	user, err := s.Google.Exchange(r.Context(), code)
	if err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to exchange token: %v", err))
		return apperrors.New(apperrors.KindAuthenticationRequired, "Google sign-in failed.", err)
	}

	result, err := s.signIn(r, role, user)
	if err != nil {
		return err
	}
	s.setSessionCookie(w, result.Token)
	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Signed in %s as %s", user.UID, result.Role))
	utils.RespondSuccess(w, http.StatusOK, "Signed in successfully.", result)
	return nil
}
