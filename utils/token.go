package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims are carried by the bearer token issued on sign-in.
type SessionClaims struct {
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// StateClaims bind an OAuth round trip to the role it started from.
type StateClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

const stateAudience = "oauth-state"

// GenerateToken signs a session token for uid.
func GenerateToken(secret []byte, issuer, uid, role, email string, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", fmt.Errorf("JWT_SECRET is not set")
	}
	now := time.Now()
	claims := SessionClaims{
		Role:  role,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken parses and validates a session token.
func ValidateToken(secret []byte, issuer, tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, hmacKey(secret),
		jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

// GenerateStateToken signs the OAuth state parameter for role.
func GenerateStateToken(secret []byte, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := StateClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{stateAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ValidateStateToken returns the role an OAuth state was issued for.
func ValidateStateToken(secret []byte, state string) (string, error) {
	claims := &StateClaims{}
	_, err := jwt.ParseWithClaims(state, claims, hmacKey(secret),
		jwt.WithAudience(stateAudience), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	return claims.Role, nil
}

func hmacKey(secret []byte) jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}
}
