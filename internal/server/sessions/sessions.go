// Package sessions persists refresh tokens in an opaque key-value store.
// The identity service rotates tokens through it on every refresh; the core
// managers never touch it directly.
package sessions

import (
	"context"
	"time"
)

// Store maps an opaque refresh token to the user id it was issued for.
// Entries expire on their own after the configured validity.
type Store interface {
	Create(ctx context.Context, userID, token string, validity time.Duration) error
	// Find returns the user id for token, or common.ErrorNotFound when the
	// token is unknown or already expired.
	Find(ctx context.Context, token string) (string, error)
	Delete(ctx context.Context, token string) error
}
