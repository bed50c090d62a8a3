package users

import (
	"context"

	"github.com/talonmd/socialgraph/internal/server/models"
)

// Repository is the persistent collection of user records. It is passive
// storage: all normalization and validation happens in the service layer
// before anything reaches it.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}
