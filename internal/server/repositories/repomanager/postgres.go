// Package repomanager provides the RepositoryManager abstraction and its
// PostgreSQL implementation, wiring repository constructors, transactions
// and goose migrations.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/chitchat/internal/dbx"
	"github.com/dmitrijs2005/chitchat/internal/server/migrations"
	"github.com/dmitrijs2005/chitchat/internal/server/repositories/groups"
	"github.com/dmitrijs2005/chitchat/internal/server/repositories/messages"
	"github.com/dmitrijs2005/chitchat/internal/server/repositories/social"
	"github.com/dmitrijs2005/chitchat/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories. When a
// Redis client is configured, user lookups go through users.CachedRepository.
type PostgresRepositoryManager struct {
	db  *sql.DB
	rdb users.RedisClient
}

// boundRepos binds every repository to one DBTX.
type boundRepos struct {
	db  dbx.DBTX
	rdb users.RedisClient
}

func (b boundRepos) Users() users.Repository {
	var r users.Repository = users.NewPostgresRepository(b.db)
	if b.rdb != nil {
		r = users.NewCachedRepository(r, b.rdb)
	}
	return r
}

func (b boundRepos) Social() social.Repository {
	return social.NewPostgresRepository(b.db)
}

func (b boundRepos) Groups() groups.Repository {
	return groups.NewPostgresRepository(b.db)
}

func (b boundRepos) Messages() messages.Repository {
	return messages.NewPostgresRepository(b.db)
}

func (m *PostgresRepositoryManager) bind(db dbx.DBTX) boundRepos {
	return boundRepos{db: db, rdb: m.rdb}
}

func (m *PostgresRepositoryManager) Users() users.Repository       { return m.bind(m.db).Users() }
func (m *PostgresRepositoryManager) Social() social.Repository     { return m.bind(m.db).Social() }
func (m *PostgresRepositoryManager) Groups() groups.Repository     { return m.bind(m.db).Groups() }
func (m *PostgresRepositoryManager) Messages() messages.Repository { return m.bind(m.db).Messages() }

func (m *PostgresRepositoryManager) RunInTx(ctx context.Context, fn func(ctx context.Context, r Repos) error) error {
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, m.bind(tx))
	})
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and applies them.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, m.db, "."); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	return nil
}

func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}

// NewPostgresRepositoryManager wraps an open database. rdb may be nil.
func NewPostgresRepositoryManager(db *sql.DB, rdb users.RedisClient) *PostgresRepositoryManager {
	return &PostgresRepositoryManager{db: db, rdb: rdb}
}

// OpenPostgres opens a pgx-backed *sql.DB and checks connectivity.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return db, nil
}

// Ping checks that the database is reachable.
func (m *PostgresRepositoryManager) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}
