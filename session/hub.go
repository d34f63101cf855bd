package session

import (
	"context"
	"sync"
	"time"

	"github.com/raushankrgupta/tailor-connect/events"
	"go.uber.org/zap"
)

type ChangeKind int

const (
	SignedIn ChangeKind = iota + 1
	SignedOut
)

func (k ChangeKind) String() string {
	if k == SignedOut {
		return "signed_out"
	}
	return "signed_in"
}

// Change is a session state notification.
type Change struct {
	Kind    ChangeKind
	Session Session
	At      time.Time
}

const subscriberBuffer = 64

type subscriber struct {
	name string
	ch   chan Change
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.ch) })
}

// Hub is the single subscription point for session changes. Each subscriber runs on its own
// goroutine and receives changes in publish order.
type Hub struct {
	mu     sync.RWMutex
	subs   map[int]*subscriber
	nextID int
	closed bool
	wg     sync.WaitGroup
	log    *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{subs: map[int]*subscriber{}, log: log}
}

// Subscribe registers fn and returns a function that removes it.
func (h *Hub) Subscribe(name string, fn func(Change)) (unsubscribe func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return func() {}
	}
	id := h.nextID
	h.nextID++
	sub := &subscriber{name: name, ch: make(chan Change, subscriberBuffer)}
	h.subs[id] = sub

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		for c := range sub.ch {
			fn(c)
		}
	}()

	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
		sub.close()
	}
}

// Publish fans c out to every subscriber. A subscriber whose buffer is full misses the change.
func (h *Hub) Publish(c Change) {
	if c.At.IsZero() {
		c.At = time.Now().UTC()
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return
	}
	for _, sub := range h.subs {
		select {
		case sub.ch <- c:
		default:
			h.log.Warn("session subscriber is behind, dropping change",
				zap.String("subscriber", sub.name), zap.Stringer("kind", c.Kind))
		}
	}
}

func (h *Hub) SignIn(s Session) {
	h.Publish(Change{Kind: SignedIn, Session: s})
}

func (h *Hub) SignOut(s Session) {
	h.Publish(Change{Kind: SignedOut, Session: s})
}

// Close stops delivery and waits for subscribers to drain.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	for id, sub := range h.subs {
		delete(h.subs, id)
		sub.close()
	}
	h.mu.Unlock()
	h.wg.Wait()
}

// Forward returns a subscriber that republishes changes on the event bus.
func Forward(p events.Publisher, log *zap.Logger) func(Change) {
	return func(c Change) {
		subject := events.SubjectSignedIn
		if c.Kind == SignedOut {
			subject = events.SubjectSignedOut
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := p.Publish(ctx, events.Envelope{
			Subject:    subject,
			UID:        c.Session.UID,
			Role:       string(c.Session.Role),
			OccurredAt: c.At,
		})
		if err != nil {
			log.Warn("failed to forward session change", zap.String("uid", c.Session.UID), zap.Error(err))
		}
	}
}
