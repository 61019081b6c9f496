package messages

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/chitchat/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var messageCols = []string{"id", "sender_id", "receiver_id", "group_id", "text", "file", "file_type", "created_at"}

func TestCreate_DirectUsesNullGroup(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT\s+INTO\s+messages`).
		WithArgs(sqlmock.AnyArg(), "a", "b", nil, "hi", "", "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	m, err := repo.Create(context.Background(), &models.Message{SenderID: "a", ReceiverID: "b", Text: "hi"})
	require.NoError(t, err)
	assert.NotEmpty(t, m.ID)
	assert.False(t, m.CreatedAt.IsZero())
}

func TestCreate_GroupUsesNullReceiver(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT\s+INTO\s+messages`).
		WithArgs("m1", "a", nil, "g", "", "https://cdn/x.png", "image", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := repo.Create(context.Background(), &models.Message{
		ID: "m1", SenderID: "a", GroupID: "g", File: "https://cdn/x.png", FileType: "image",
	})
	require.NoError(t, err)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT\s+INTO\s+messages`).WillReturnError(errors.New("disk full"))

	_, err := repo.Create(context.Background(), &models.Message{SenderID: "a", ReceiverID: "b", Text: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error")
}

func TestListDirect_OrderedBothDirections(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(messageCols).
		AddRow("m1", "a", "b", nil, "hello", "", "", t0).
		AddRow("m2", "b", "a", nil, "hi", "", "", t0.Add(time.Second))
	mock.ExpectQuery(`(?s)FROM\s+messages\s+WHERE\s+\(sender_id\s*=\s*\$1\s+AND\s+receiver_id\s*=\s*\$2\)\s+OR.*ORDER\s+BY\s+created_at,\s*id`).
		WithArgs("a", "b").
		WillReturnRows(rows)

	got, err := repo.ListDirect(context.Background(), "a", "b")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "m1", got[0].ID)
	assert.Equal(t, "a", got[1].ReceiverID)
	assert.Empty(t, got[1].GroupID)
}

func TestListGroup(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)FROM\s+messages\s+WHERE\s+group_id\s*=\s*\$1`).
		WithArgs("g").
		WillReturnRows(sqlmock.NewRows(messageCols).AddRow("m1", "a", nil, "g", "yo", "", "", time.Now()))

	got, err := repo.ListGroup(context.Background(), "g")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "g", got[0].GroupID)
	assert.Empty(t, got[0].ReceiverID)
}

func TestDeleteDirect_ReturnsCount(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE\s+FROM\s+messages`).
		WithArgs("a", "b").
		WillReturnResult(sqlmock.NewResult(0, 7))

	n, err := repo.DeleteDirect(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}
