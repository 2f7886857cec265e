package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Session is the state owned by one browser session. Handlers receive it
// from CookieManager and pass it down to every flow that reads or writes
// session-scoped state.
type Session struct {
	id      string
	storage Storage
}

func New(id string, storage Storage) *Session {
	return &Session{id: id, storage: storage}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Get(ctx context.Context, key string) (string, error) {
	return s.storage.Get(ctx, s.id, key)
}

func (s *Session) Set(ctx context.Context, key, value string) error {
	return s.storage.Set(ctx, s.id, key, value)
}

func (s *Session) Delete(ctx context.Context, key string) error {
	return s.storage.Delete(ctx, s.id, key)
}

// GetJSON decodes the value under key into v. ErrNotFound is returned as is.
func (s *Session) GetJSON(ctx context.Context, key string, v any) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode session %s: %w", key, err)
	}
	return nil
}

func (s *Session) SetJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", key, err)
	}
	return s.Set(ctx, key, string(data))
}

// UserID returns the pseudo-random user identifier for this session,
// generating and persisting it on first use. It is never rotated.
func (s *Session) UserID(ctx context.Context) (string, error) {
	id, err := s.storage.Get(ctx, s.id, KeyUserID)
	if err == nil && id != "" {
		return id, nil
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		return "", err
	}
	return s.storage.SetIfAbsent(ctx, s.id, KeyUserID, newUserID())
}

func newUserID() string {
	return "user_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:13]
}
