package repomanager

import (
	"context"

	"github.com/dmitrijs2005/chitchat/internal/server/repositories/groups"
	"github.com/dmitrijs2005/chitchat/internal/server/repositories/messages"
	"github.com/dmitrijs2005/chitchat/internal/server/repositories/social"
	"github.com/dmitrijs2005/chitchat/internal/server/repositories/users"
)

// Repos is a set of repositories bound to one connection or transaction.
type Repos interface {
	Users() users.Repository
	Social() social.Repository
	Groups() groups.Repository
	Messages() messages.Repository
}

// RepositoryManager vends repositories bound to the shared connection and
// runs multi-step writes atomically through RunInTx.
type RepositoryManager interface {
	Repos
	RunMigrations(ctx context.Context) error
	// RunInTx commits when fn returns nil and rolls back otherwise.
	RunInTx(ctx context.Context, fn func(ctx context.Context, r Repos) error) error
	Close() error
}
