package follows

import (
	"context"

	"github.com/talonmd/socialgraph/internal/server/models"
)

// Repository is the persistent collection of directed follow edges, queried
// by either endpoint. Insert must reject a duplicate ordered pair with
// common.ErrorConflict; duplicate prevention under concurrency relies on
// that, not on in-process locking.
type Repository interface {
	Find(ctx context.Context, followedID, authorID string) (*models.Follow, error)
	Insert(ctx context.Context, followedID, authorID string) error
	Delete(ctx context.Context, followedID, authorID string) error
	CountByFollowed(ctx context.Context, followedID string) (int64, error)
	CountByAuthor(ctx context.Context, authorID string) (int64, error)
	// FollowersOf joins edges pointing at followedID against the users table
	// and returns the authors' profiles. Row order is whatever the store
	// yields; it is not part of the contract.
	FollowersOf(ctx context.Context, followedID string) ([]models.Profile, error)
	// FollowedBy is the symmetric join: profiles of the users authorID follows.
	FollowedBy(ctx context.Context, authorID string) ([]models.Profile, error)
}
