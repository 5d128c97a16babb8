package store

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/dori/taskman/internal/db"
	"github.com/dori/taskman/internal/logger"
	"github.com/dori/taskman/internal/model"
)

// CredentialStore holds registered users under a single key.
// Passwords are stored and compared as plain text.
type CredentialStore struct {
	kv KV
	mu sync.Mutex
}

// NewCredentialStore keeps accounts under UsersKey in kv
func NewCredentialStore(kv KV) *CredentialStore {
	return &CredentialStore{kv: kv}
}

// Register appends a new credential. The collection is left untouched when
// the username is already present.
func (s *CredentialStore) Register(ctx context.Context, username, password string) error {
	cred, err := model.NewCredential(username, password)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// fnErr separates domain failures from backend ones
	var fnErr error
	err = s.kv.Update(ctx, UsersKey, func(current []byte, found bool) ([]byte, error) {
		users := []model.Credential{}
		if found {
			users, fnErr = decodeCollection[model.Credential](UsersKey, current, usersSchema)
			if fnErr != nil {
				return nil, fnErr
			}
		}
		if slices.ContainsFunc(users, func(u model.Credential) bool { return u.Username == cred.Username }) {
			fnErr = ErrUsernameTaken
			return nil, fnErr
		}
		raw, err := json.Marshal(append(users, cred))
		if err != nil {
			fnErr = &StorageError{Op: "encode", Key: UsersKey, Err: err}
			return nil, fnErr
		}
		return raw, nil
	})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		logger.Error("register user", err)
		return &StorageError{Op: "update", Key: UsersKey, Err: err}
	}

	logger.Info("user registered", zap.String("username", cred.Username))
	return nil
}

// Authenticate succeeds only when a record matches both fields exactly
func (s *CredentialStore) Authenticate(ctx context.Context, username, password string) error {
	if _, err := model.NewCredential(username, password); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.users(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		if u.Matches(username, password) {
			return nil
		}
	}
	logger.Warn("failed login", zap.String("username", username))
	return ErrInvalidCredentials
}

// Usernames lists registered users in registration order
func (s *CredentialStore) Usernames(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.users(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.Username)
	}
	return names, nil
}

func (s *CredentialStore) users(ctx context.Context) ([]model.Credential, error) {
	raw, err := s.kv.Get(ctx, UsersKey)
	if errors.Is(err, db.ErrNotFound) {
		return []model.Credential{}, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "get", Key: UsersKey, Err: err}
	}
	return decodeCollection[model.Credential](UsersKey, raw, usersSchema)
}
