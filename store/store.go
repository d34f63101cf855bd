package store

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("document not found")
	ErrNoUID    = errors.New("empty document id")
)

// Update is a merge write against one document. Keys are dotted field paths.
type Update struct {
	// Set is written on every apply, creating the document when missing.
	Set map[string]any
	// SetOnInsert is written only when the document is created by this apply.
	SetOnInsert map[string]any
	// CurrentDate fields are stamped with the server time.
	CurrentDate []string
}

// Empty reports whether the update writes nothing.
func (u Update) Empty() bool {
	return len(u.Set) == 0 && len(u.SetOnInsert) == 0 && len(u.CurrentDate) == 0
}

// Code is a pending one-time sign-in code for an email identity.
type Code struct {
	Hash      string
	ExpiresAt time.Time
}
