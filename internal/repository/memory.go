package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/thearyanahmed/newsletter/internal/model"
)

// Memory store operation names accepted by InjectFault.
const (
	OpBeginTx          = "begin"
	OpInsertSubscriber = "insert_subscriber"
	OpStoreToken       = "store_token"
	OpCommit           = "commit"
	OpConfirm          = "confirm"
	OpGetByToken       = "get_by_token"
	OpListConfirmed    = "list_confirmed"
	OpPing             = "ping"
)

var errTxDone = errors.New("transaction already committed or rolled back")

// MemoryStore is an in-process subscriber store with the same contract as
// Repository. Writes made through a Tx are buffered and only become visible
// on Commit.
type MemoryStore struct {
	mu          sync.Mutex
	subscribers []model.Subscriber
	emails      map[string]uuid.UUID
	tokens      map[string]model.ConfirmationToken
	faults      map[string]error
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		emails: make(map[string]uuid.UUID),
		tokens: make(map[string]model.ConfirmationToken),
		faults: make(map[string]error),
	}
}

// InjectFault makes op fail with err until cleared with a nil err.
func (m *MemoryStore) InjectFault(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.faults, op)
		return
	}
	m.faults[op] = err
}

func (m *MemoryStore) fault(op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.faults[op]; ok {
		return &PersistenceError{Kind: KindOther, Op: op, Err: err}
	}
	return nil
}

// Seed inserts a row directly, bypassing validation. Used to simulate rows
// written before the current validation rules existed.
func (m *MemoryStore) Seed(sub model.Subscriber) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	if sub.SubscribedAt.IsZero() {
		sub.SubscribedAt = time.Now().UTC()
	}
	m.subscribers = append(m.subscribers, sub)
	m.emails[sub.Email] = sub.ID
}

// Subscribers returns a snapshot of all committed rows in insertion order.
func (m *MemoryStore) Subscribers() []model.Subscriber {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Subscriber, len(m.subscribers))
	copy(out, m.subscribers)
	return out
}

// TokensFor returns the committed tokens that belong to subscriberID.
func (m *MemoryStore) TokensFor(subscriberID uuid.UUID) []model.ConfirmationToken {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ConfirmationToken
	for _, ct := range m.tokens {
		if ct.SubscriberID == subscriberID {
			out = append(out, ct)
		}
	}
	return out
}

// Ping reports the injected ping fault, if any.
func (m *MemoryStore) Ping(_ context.Context) error {
	return m.fault(OpPing)
}

// BeginTx starts a buffered unit of work.
func (m *MemoryStore) BeginTx(_ context.Context) (Tx, error) {
	if err := m.fault(OpBeginTx); err != nil {
		return nil, err
	}
	return &memoryTx{store: m}, nil
}

// ConfirmSubscriber marks the subscriber confirmed. Unknown ids are ignored.
func (m *MemoryStore) ConfirmSubscriber(_ context.Context, id uuid.UUID) error {
	if err := m.fault(OpConfirm); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.subscribers {
		if m.subscribers[i].ID == id {
			m.subscribers[i].Status = model.StatusConfirmed
		}
	}
	return nil
}

// GetSubscriberIDByToken resolves a committed token.
func (m *MemoryStore) GetSubscriberIDByToken(_ context.Context, token string) (uuid.UUID, bool, error) {
	if err := m.fault(OpGetByToken); err != nil {
		return uuid.Nil, false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	ct, ok := m.tokens[token]
	return ct.SubscriberID, ok, nil
}

// ListConfirmedSubscribers returns confirmed rows in insertion order.
func (m *MemoryStore) ListConfirmedSubscribers(_ context.Context) ([]ConfirmedSubscriber, error) {
	if err := m.fault(OpListConfirmed); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ConfirmedSubscriber
	for _, sub := range m.subscribers {
		if sub.Status != model.StatusConfirmed {
			continue
		}
		out = append(out, confirmedFromRow(sub.ID, sub.Email))
	}
	return out, nil
}

type memoryTx struct {
	store       *MemoryStore
	subscribers []model.Subscriber
	tokens      []model.ConfirmationToken
	done        bool
}

func (t *memoryTx) InsertSubscriber(_ context.Context, ns model.NewSubscriber) (uuid.UUID, error) {
	if t.done {
		return uuid.Nil, persistenceError("insert subscriber", errTxDone)
	}
	if err := t.store.fault(OpInsertSubscriber); err != nil {
		return uuid.Nil, err
	}

	email := ns.Email.String()
	if t.store.hasEmail(email) || t.hasEmail(email) {
		return uuid.Nil, persistenceError("insert subscriber", ErrUniqueViolation)
	}

	sub := model.Subscriber{
		ID:           uuid.New(),
		Email:        email,
		Name:         ns.Name.String(),
		SubscribedAt: time.Now().UTC(),
		Status:       model.StatusPendingConfirmation,
	}
	t.subscribers = append(t.subscribers, sub)
	return sub.ID, nil
}

func (t *memoryTx) StoreToken(_ context.Context, subscriberID uuid.UUID, token string) error {
	if t.done {
		return persistenceError("store subscription token", errTxDone)
	}
	if err := t.store.fault(OpStoreToken); err != nil {
		return err
	}

	if t.hasToken(token) || t.store.hasToken(token) {
		return persistenceError("store subscription token", ErrUniqueViolation)
	}
	t.tokens = append(t.tokens, model.ConfirmationToken{Token: token, SubscriberID: subscriberID})
	return nil
}

func (t *memoryTx) Commit(_ context.Context) error {
	if t.done {
		return persistenceError("commit transaction", errTxDone)
	}
	if err := t.store.fault(OpCommit); err != nil {
		t.done = true
		return err
	}
	t.done = true

	m := t.store
	m.mu.Lock()
	defer m.mu.Unlock()

	// A concurrent transaction may have committed the same email or token.
	for _, sub := range t.subscribers {
		if _, ok := m.emails[sub.Email]; ok {
			return persistenceError("commit transaction", ErrUniqueViolation)
		}
	}
	for _, ct := range t.tokens {
		if _, ok := m.tokens[ct.Token]; ok {
			return persistenceError("commit transaction", ErrUniqueViolation)
		}
	}

	for _, sub := range t.subscribers {
		m.subscribers = append(m.subscribers, sub)
		m.emails[sub.Email] = sub.ID
	}
	for _, ct := range t.tokens {
		m.tokens[ct.Token] = ct
	}
	return nil
}

func (t *memoryTx) Rollback(_ context.Context) error {
	t.done = true
	t.subscribers = nil
	t.tokens = nil
	return nil
}

func (t *memoryTx) hasEmail(email string) bool {
	for _, sub := range t.subscribers {
		if sub.Email == email {
			return true
		}
	}
	return false
}

func (t *memoryTx) hasToken(token string) bool {
	for _, ct := range t.tokens {
		if ct.Token == token {
			return true
		}
	}
	return false
}

func (m *MemoryStore) hasEmail(email string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.emails[email]
	return ok
}

func (m *MemoryStore) hasToken(token string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tokens[token]
	return ok
}
