package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/dori/taskman/internal/db"
	"github.com/dori/taskman/internal/model"
)

// SessionStore remembers which user is signed in
type SessionStore struct {
	kv KV
}

// NewSessionStore keeps the signed in username under SessionKey in kv
func NewSessionStore(kv KV) *SessionStore {
	return &SessionStore{kv: kv}
}

// SignIn records username as the current user
func (s *SessionStore) SignIn(ctx context.Context, username string) error {
	if strings.TrimSpace(username) == "" {
		return model.ErrEmptyInput
	}
	raw, err := json.Marshal(username)
	if err != nil {
		return &StorageError{Op: "encode", Key: SessionKey, Err: err}
	}
	if err := s.kv.Set(ctx, SessionKey, raw); err != nil {
		return &StorageError{Op: "set", Key: SessionKey, Err: err}
	}
	return nil
}

// Current returns the signed-in user, if any
func (s *SessionStore) Current(ctx context.Context) (string, bool, error) {
	raw, err := s.kv.Get(ctx, SessionKey)
	if errors.Is(err, db.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &StorageError{Op: "get", Key: SessionKey, Err: err}
	}

	var username string
	if err := json.Unmarshal(raw, &username); err != nil {
		return "", false, &DeserializationError{Key: SessionKey, Err: err}
	}
	return username, username != "", nil
}

// SignOut forgets the current user
func (s *SessionStore) SignOut(ctx context.Context) error {
	if err := s.kv.Remove(ctx, SessionKey); err != nil {
		return &StorageError{Op: "remove", Key: SessionKey, Err: err}
	}
	return nil
}
