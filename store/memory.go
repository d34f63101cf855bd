package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/raushankrgupta/tailor-connect/models"
	"go.mongodb.org/mongo-driver/bson"
)

// Memory is an in-process store with the same merge semantics as Mongo. It backs tests and
// offline tooling.
type Memory struct {
	mu         sync.Mutex
	docs       map[string]map[string]map[string]any
	identities map[string]*models.Identity
	now        func() time.Time

	// Fail, when set, is returned by every write.
	Fail error
}

func NewMemory() *Memory {
	return &Memory{
		docs:       map[string]map[string]map[string]any{},
		identities: map[string]*models.Identity{},
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source used for server timestamps.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func (m *Memory) Apply(_ context.Context, collection, uid string, u Update) (bool, error) {
	const op = "store.Memory.Apply"

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Fail != nil {
		return false, fmt.Errorf("%s: %w", op, m.Fail)
	}
	if uid == "" {
		return false, fmt.Errorf("%s: %w", op, ErrNoUID)
	}
	if u.Empty() {
		return false, nil
	}

	coll, ok := m.docs[collection]
	if !ok {
		coll = map[string]map[string]any{}
		m.docs[collection] = coll
	}
	doc, exists := coll[uid]
	if !exists {
		doc = map[string]any{"_id": uid}
		coll[uid] = doc
		for path, v := range u.SetOnInsert {
			setPath(doc, path, v)
		}
	}
	for path, v := range u.Set {
		setPath(doc, path, v)
	}
	now := m.now()
	for _, path := range u.CurrentDate {
		setPath(doc, path, now)
	}
	return !exists, nil
}

func (m *Memory) Load(_ context.Context, collection, uid string) (*models.UserProfile, error) {
	const op = "store.Memory.Load"

	m.mu.Lock()
	doc, ok := m.docs[collection][uid]
	var raw []byte
	var err error
	if ok {
		raw, err = bson.Marshal(doc)
	}
	m.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var profile models.UserProfile
	if err := bson.Unmarshal(raw, &profile); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &profile, nil
}

// Document returns a copy of the raw stored fields, for assertions on exactly what was written.
func (m *Memory) Document(collection, uid string) (map[string]any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[collection][uid]
	if !ok {
		return nil, false
	}
	return copyDoc(doc), true
}

func (m *Memory) SaveCode(_ context.Context, email string, code Code) (string, error) {
	const op = "store.Memory.SaveCode"

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Fail != nil {
		return "", fmt.Errorf("%s: %w", op, m.Fail)
	}
	now := m.now()
	identity, ok := m.identities[email]
	if !ok {
		identity = &models.Identity{Email: email, UID: uuid.NewString(), CreatedAt: now}
		m.identities[email] = identity
	}
	identity.CodeHash = code.Hash
	identity.ExpiresAt = code.ExpiresAt
	identity.Attempts = 0
	identity.UpdatedAt = now
	return identity.UID, nil
}

func (m *Memory) Identity(_ context.Context, email string) (*models.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	identity, ok := m.identities[email]
	if !ok {
		return nil, fmt.Errorf("store.Memory.Identity: %w", ErrNotFound)
	}
	cp := *identity
	return &cp, nil
}

func (m *Memory) RecordAttempt(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	identity, ok := m.identities[email]
	if !ok {
		return fmt.Errorf("store.Memory.RecordAttempt: %w", ErrNotFound)
	}
	identity.Attempts++
	identity.UpdatedAt = m.now()
	return nil
}

func (m *Memory) ClearCode(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	identity, ok := m.identities[email]
	if !ok {
		return fmt.Errorf("store.Memory.ClearCode: %w", ErrNotFound)
	}
	identity.CodeHash = ""
	identity.ExpiresAt = time.Time{}
	identity.Attempts = 0
	identity.UpdatedAt = m.now()
	return nil
}

func setPath(doc map[string]any, path string, v any) {
	parts := strings.Split(path, ".")
	cur := doc
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[p] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = v
}

func copyDoc(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		if nested, ok := v.(map[string]any); ok {
			out[k] = copyDoc(nested)
			continue
		}
		out[k] = v
	}
	return out
}
