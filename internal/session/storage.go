package session

import (
	"context"
	"errors"
)

// Keys held in session-scoped storage.
const (
	KeyCart     = "cart"
	KeyUserID   = "user_id"
	KeyCheckout = "checkout"
	KeyPayment  = "payment"
	KeyOrder    = "order"

	// KeyAdminAuth holds the upstream admin cookie header after login.
	KeyAdminAuth = "admin_auth"
)

var (
	ErrNotFound = errors.New("session key not found")
	// ErrUnavailable means the backing store cannot be used at all. Callers
	// surface it instead of pretending the session is empty.
	ErrUnavailable = errors.New("session storage unavailable")
)

// Storage is session-scoped key/value storage. Every entry belongs to one
// session id and lives as long as that session.
type Storage interface {
	Get(ctx context.Context, sid, key string) (string, error)
	Set(ctx context.Context, sid, key, value string) error
	// SetIfAbsent stores value unless key already exists and returns the
	// value that ends up stored.
	SetIfAbsent(ctx context.Context, sid, key, value string) (string, error)
	Delete(ctx context.Context, sid, key string) error
	Clear(ctx context.Context, sid string) error
}
