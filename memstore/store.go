// Package memstore is an in-process CredentialStore for tests, examples,
// and single-node deployments that do not want a database. It enforces the
// same contract as mongostore: atomic email reservation, serialized
// per-id writes, committed reads.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/guardkit/guardkit"
)

// Store keeps user records in two maps guarded by one RWMutex: id -> user
// and normalized email -> id. The single lock is what makes concurrent
// Create calls with the same email race-free.
type Store struct {
	mu      sync.RWMutex
	byID    map[string]guardkit.User
	byEmail map[string]string
}

// New returns an empty store.
func New() *Store {
	return &Store{
		byID:    make(map[string]guardkit.User),
		byEmail: make(map[string]string),
	}
}

// Create reserves email and inserts a new record with a random uuid id.
// Exactly one of N concurrent calls with the same email succeeds; the rest
// return ErrEmailExists.
func (s *Store) Create(ctx context.Context, email, passwordHash string) (*guardkit.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[email]; taken {
		return nil, guardkit.ErrEmailExists
	}

	user := guardkit.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	s.byID[user.ID] = user
	s.byEmail[email] = user.ID

	out := user
	return &out, nil
}

// GetByID returns a copy of the record.
func (s *Store) GetByID(ctx context.Context, id string) (*guardkit.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byID[id]
	if !ok {
		return nil, guardkit.ErrUserNotFound
	}
	out := user
	return &out, nil
}

// GetByEmail returns a copy of the record for a normalized email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*guardkit.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, guardkit.ErrUserNotFound
	}
	out := s.byID[id]
	return &out, nil
}

// Update applies patch to the record's mutable fields and returns the
// committed result.
func (s *Store) Update(ctx context.Context, id string, patch guardkit.UserPatch) (*guardkit.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byID[id]
	if !ok {
		return nil, guardkit.ErrUserNotFound
	}

	if patch.PasswordHash != nil {
		user.PasswordHash = *patch.PasswordHash
	}
	if patch.Verified != nil {
		user.Verified = *patch.Verified
	}
	if patch.Admin != nil {
		user.Admin = *patch.Admin
	}
	s.byID[id] = user

	out := user
	return &out, nil
}

// Delete removes the record and frees its email.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byID[id]
	if !ok {
		return guardkit.ErrUserNotFound
	}
	delete(s.byID, id)
	delete(s.byEmail, user.Email)
	return nil
}

// Len reports how many users exist, for tests.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
