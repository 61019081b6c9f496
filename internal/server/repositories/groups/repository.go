// Package groups stores chat groups with their ordered member and admin sets.
package groups

import (
	"context"

	"github.com/dmitrijs2005/chitchat/internal/server/models"
)

// Repository writes span several tables; callers run Create and Update
// inside a transaction.
type Repository interface {
	Create(ctx context.Context, g *models.Group) (*models.Group, error)
	GetByID(ctx context.Context, id string) (*models.Group, error)
	Update(ctx context.Context, g *models.Group) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.Group, error)
	// ListForUser returns groups where userID is a member or an admin.
	ListForUser(ctx context.Context, userID string) ([]models.Group, error)
}
