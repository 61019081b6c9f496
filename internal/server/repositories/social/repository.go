// Package social stores the friend graph: pending requests, symmetric
// friendships and one-directional blocks.
package social

import (
	"context"

	"github.com/dmitrijs2005/chitchat/internal/server/models"
)

type Repository interface {
	// AddRequest records a pending request from -> to. A duplicate yields
	// common.ErrorAlreadyExists.
	AddRequest(ctx context.Context, fromID, toID string) error
	// DeleteRequest removes from -> to and reports whether it existed.
	DeleteRequest(ctx context.Context, fromID, toID string) (bool, error)
	RequestExists(ctx context.Context, fromID, toID string) (bool, error)
	ListIncoming(ctx context.Context, userID string) ([]models.PublicUser, error)
	ListOutgoing(ctx context.Context, userID string) ([]models.PublicUser, error)

	// AddFriendship stores both directions in a single statement.
	AddFriendship(ctx context.Context, a, b string) error
	// DeleteFriendship removes both directions and reports whether any existed.
	DeleteFriendship(ctx context.Context, a, b string) (bool, error)
	AreFriends(ctx context.Context, a, b string) (bool, error)
	ListFriends(ctx context.Context, userID string) ([]models.PublicUser, error)
	// ListFriendsBelow returns friends whose blocked-by counter is below threshold.
	ListFriendsBelow(ctx context.Context, userID string, threshold int) ([]models.PublicUser, error)

	// Block is idempotent.
	Block(ctx context.Context, userID, targetID string) error
	Unblock(ctx context.Context, userID, targetID string) error
	// IsBlocked reports a block in either direction.
	IsBlocked(ctx context.Context, a, b string) (bool, error)
}
