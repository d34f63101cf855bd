package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/raushankrgupta/tailor-connect/apperrors"
	"github.com/raushankrgupta/tailor-connect/models"
	"github.com/raushankrgupta/tailor-connect/session"
	"github.com/raushankrgupta/tailor-connect/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestErrorHandlerMapsKinds(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"validation", apperrors.Validation("Invalid form data.", apperrors.FieldErrors{"age": {"Age is required."}}), 400,
			`{"success":false,"message":"Invalid form data.","errors":{"age":["Age is required."]}}`},
		{"persistence", apperrors.Persistence("Failed to save profile.", errors.New("down")), 503,
			`{"success":false,"message":"Failed to save profile."}`},
		{"recommendation", apperrors.Recommendation("Failed to get recommendations.", nil), 502,
			`{"success":false,"message":"Failed to get recommendations."}`},
		{"auth", apperrors.ErrAuthenticationRequired, 401,
			`{"success":false,"message":"You must be logged in to perform this action."}`},
		{"not found", apperrors.NotFound("Profile not found."), 404,
			`{"success":false,"message":"Profile not found."}`},
		{"forbidden", apperrors.Forbidden("Forbidden"), 403,
			`{"success":false,"message":"Forbidden"}`},
		{"stale", apperrors.Stale("Step already submitted."), 409,
			`{"success":false,"message":"Step already submitted."}`},
		{"plain", errors.New("boom"), 500,
			`{"success":false,"message":"Internal server error"}`},
	}
	wrap := ErrorHandler(zap.NewNop())
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := wrap(func(http.ResponseWriter, *http.Request) error { return tc.err })
			rec := httptest.NewRecorder()
			h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tc.status, rec.Code)
			assert.JSONEq(t, tc.body, rec.Body.String())
		})
	}
}

func TestErrorHandlerRecoversPanic(t *testing.T) {
	h := ErrorHandler(zap.NewNop())(func(http.ResponseWriter, *http.Request) error { panic("bad") })
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestErrorHandlerKeepsWrittenResponse(t *testing.T) {
	h := ErrorHandler(zap.NewNop())(func(w http.ResponseWriter, r *http.Request) error {
		w.WriteHeader(http.StatusAccepted)
		return errors.New("late")
	})
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestAuthenticate(t *testing.T) {
	secret := []byte("secret")
	verify := func(token string) (*utils.SessionClaims, error) {
		return utils.ValidateToken(secret, "tc", token)
	}
	var got session.Session
	var ok bool
	h := Authenticate(verify)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = session.FromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, ok)

	token, err := utils.GenerateToken(secret, "tc", "u1", "tailor", "t@x.test", time.Hour)
	assert.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.True(t, ok)
	assert.Equal(t, session.Session{UID: "u1", Role: models.RoleTailor, Email: "t@x.test"}, got)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "garbage"})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, ok)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookieName, cookies[0].Name)
	assert.Equal(t, -1, cookies[0].MaxAge)
	assert.True(t, cookies[0].Secure)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, ok)
	assert.Empty(t, rec.Result().Cookies())
}

func TestAuthenticatePrefersBearerOverCookie(t *testing.T) {
	secret := []byte("secret")
	verify := func(token string) (*utils.SessionClaims, error) {
		return utils.ValidateToken(secret, "tc", token)
	}
	var got session.Session
	h := Authenticate(verify)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = session.FromContext(r.Context())
	}))

	token, err := utils.GenerateToken(secret, "tc", "u1", "customer", "", time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "stale"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "u1", got.UID)
	assert.Empty(t, rec.Result().Cookies())
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(models.RoleCustomer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	serve := func(s *session.Session) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if s != nil {
			req = req.WithContext(session.WithSession(req.Context(), *s))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, serve(nil))
	assert.Equal(t, http.StatusForbidden, serve(&session.Session{UID: "u1", Role: models.RoleTailor}))
	assert.Equal(t, http.StatusNoContent, serve(&session.Session{UID: "u1", Role: models.RoleCustomer}))
}

func TestRequireSession(t *testing.T) {
	h := RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequestLoggerPassesThrough(t *testing.T) {
	h := RequestLogger(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
