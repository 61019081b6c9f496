package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/chitchat/internal/server/repositories/groups"
	"github.com/dmitrijs2005/chitchat/internal/server/repositories/messages"
	"github.com/dmitrijs2005/chitchat/internal/server/repositories/social"
	"github.com/dmitrijs2005/chitchat/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func TestNewPostgresRepositoryManager_ImplementsInterface(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	var _ RepositoryManager = NewPostgresRepositoryManager(db, nil)
}

func TestFactories_ReturnConcreteRepos(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	m := NewPostgresRepositoryManager(db, nil)

	assert.IsType(t, &users.PostgresRepository{}, m.Users())
	assert.IsType(t, &social.PostgresRepository{}, m.Social())
	assert.IsType(t, &groups.PostgresRepository{}, m.Groups())
	assert.IsType(t, &messages.PostgresRepository{}, m.Messages())
}

func TestUsers_CachedWhenRedisConfigured(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer rdb.Close()

	m := NewPostgresRepositoryManager(db, rdb)
	assert.IsType(t, &users.CachedRepository{}, m.Users())
}

func TestRunInTx_CommitAndRollback(t *testing.T) {
	db, mock := newDB(t)
	defer db.Close()
	m := NewPostgresRepositoryManager(db, nil)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT\s+INTO\s+friendships`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := m.RunInTx(context.Background(), func(ctx context.Context, r Repos) error {
		return r.Social().AddFriendship(ctx, "a", "b")
	})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE\s+FROM\s+friend_requests`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	boom := errors.New("boom")
	err = m.RunInTx(context.Background(), func(ctx context.Context, r Repos) error {
		if _, err := r.Social().DeleteRequest(ctx, "a", "b"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_Success(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		if dir != "." {
			return errors.New("unexpected dir")
		}
		if len(opts) != 0 {
			return errors.New("unexpected opts")
		}
		return nil
	}
	defer func() { gooseUpContext = orig }()

	m := NewPostgresRepositoryManager(db, nil)
	if err := m.RunMigrations(context.Background()); err != nil {
		t.Fatalf("RunMigrations error: %v", err)
	}
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	m := NewPostgresRepositoryManager(db, nil)
	err := m.RunMigrations(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestClose(t *testing.T) {
	db, mock := newDB(t)
	mock.ExpectClose()

	require.NoError(t, NewPostgresRepositoryManager(db, nil).Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPing(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	m := NewPostgresRepositoryManager(db, nil)

	mock.ExpectPing()
	require.NoError(t, m.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("down"))
	require.Error(t, m.Ping(context.Background()))

	require.NoError(t, mock.ExpectationsWereMet())
}
