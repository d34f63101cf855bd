package utils

import (
	"math"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/raushankrgupta/tailor-connect/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var testSecret = []byte("test-secret")

func TestSessionTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken(testSecret, "tailor-connect", "google:123", "tailor", "a@b.test", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(testSecret, "tailor-connect", token)
	require.NoError(t, err)
	assert.Equal(t, "google:123", claims.Subject)
	assert.Equal(t, "tailor", claims.Role)
	assert.Equal(t, "a@b.test", claims.Email)
}

func TestValidateTokenRejects(t *testing.T) {
	token, err := GenerateToken(testSecret, "tailor-connect", "u1", "customer", "", time.Hour)
	require.NoError(t, err)

	_, err = ValidateToken([]byte("other"), "tailor-connect", token)
	assert.Error(t, err)

	_, err = ValidateToken(testSecret, "someone-else", token)
	assert.Error(t, err)

	expired, err := GenerateToken(testSecret, "tailor-connect", "u1", "customer", "", -time.Minute)
	require.NoError(t, err)
	_, err = ValidateToken(testSecret, "tailor-connect", expired)
	assert.Error(t, err)

	_, err = GenerateToken(nil, "tailor-connect", "u1", "customer", "", time.Hour)
	assert.Error(t, err)
}

func TestStateTokenIsNotASessionToken(t *testing.T) {
	state, err := GenerateStateToken(testSecret, "tailor", time.Minute)
	require.NoError(t, err)

	role, err := ValidateStateToken(testSecret, state)
	require.NoError(t, err)
	assert.Equal(t, "tailor", role)

	_, err = ValidateToken(testSecret, "tailor-connect", state)
	assert.Error(t, err)

	session, err := GenerateToken(testSecret, "tailor-connect", "u1", "customer", "", time.Hour)
	require.NoError(t, err)
	_, err = ValidateStateToken(testSecret, session)
	assert.Error(t, err)
}

func TestCodeHashing(t *testing.T) {
	code, err := GenerateCode()
	require.NoError(t, err)
	assert.Len(t, code, 6)
	assert.Regexp(t, `^[0-9]{6}$`, code)

	hash, err := HashCode(code)
	require.NoError(t, err)
	assert.True(t, CheckCode(hash, code))
	assert.False(t, CheckCode(hash, "not-it"))
}

func TestRespondError(t *testing.T) {
	rec := httptest.NewRecorder()
	var trail strings.Builder
	RespondError(rec, &trail, 400, "Invalid form data.", apperrors.FieldErrors{"age": {"Age is required."}})

	assert.Equal(t, 400, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":false,"message":"Invalid form data.","errors":{"age":["Age is required."]}}`, rec.Body.String())
	assert.Contains(t, trail.String(), "Invalid form data.")
}

func TestRespondSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondSuccess(rec, 200, "ok", []int{})
	assert.JSONEq(t, `{"success":true,"message":"ok","data":[]}`, rec.Body.String())
}

func TestRespondJSONUnencodablePayload(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	defer zap.ReplaceGlobals(zap.New(core))()

	rec := httptest.NewRecorder()
	RespondSuccess(rec, 200, "ok", map[string]float64{"height": math.Inf(1)})

	assert.Equal(t, 500, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":false,"message":"Internal server error"}`, rec.Body.String())
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "failed to encode JSON response", logs.All()[0].Message)
}
