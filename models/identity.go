package models

import (
	"time"
)

// Identity links an email address to a stable uid and holds its pending sign-in code.
type Identity struct {
	Email     string    `bson:"_id" json:"email"`
	UID       string    `bson:"uid" json:"uid"`
	CodeHash  string    `bson:"code_hash,omitempty" json:"-"` // bcrypt hash of the one-time code
	ExpiresAt time.Time `bson:"expires_at,omitempty" json:"-"`
	Attempts  int       `bson:"attempts,omitempty" json:"-"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// AuthUser is what the identity provider tells us about a signed-in user.
type AuthUser struct {
	UID         string `json:"uid"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	PhotoURL    string `json:"photoURL,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}
