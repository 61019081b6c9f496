// Package messages persists direct and group chat messages.
package messages

import (
	"context"

	"github.com/dmitrijs2005/chitchat/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, m *models.Message) (*models.Message, error)
	// ListDirect returns the conversation between a and b, oldest first.
	ListDirect(ctx context.Context, a, b string) ([]models.Message, error)
	// ListGroup returns the group's messages, oldest first.
	ListGroup(ctx context.Context, groupID string) ([]models.Message, error)
	// DeleteDirect removes the whole conversation between a and b.
	DeleteDirect(ctx context.Context, a, b string) (int64, error)
}
