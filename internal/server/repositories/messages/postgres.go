package messages

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/chitchat/internal/dbx"
	"github.com/dmitrijs2005/chitchat/internal/server/models"
	"github.com/google/uuid"
)

const messageColumns = `id, sender_id, receiver_id, group_id, text, file, file_type, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, m *models.Message) (*models.Message, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	query :=
		`INSERT INTO messages (` + messageColumns + `)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query, m.ID, m.SenderID, nullString(m.ReceiverID), nullString(m.GroupID),
		m.Text, m.File, m.FileType, m.CreatedAt)
	if err != nil {
		return nil, dbx.MapError(err)
	}
	return m, nil
}

func (r *PostgresRepository) ListDirect(ctx context.Context, a, b string) ([]models.Message, error) {
	query :=
		`SELECT ` + messageColumns + ` FROM messages
		 WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
		 ORDER BY created_at, id`
	return r.list(ctx, query, a, b)
}

func (r *PostgresRepository) ListGroup(ctx context.Context, groupID string) ([]models.Message, error) {
	query :=
		`SELECT ` + messageColumns + ` FROM messages
		 WHERE group_id = $1
		 ORDER BY created_at, id`
	return r.list(ctx, query, groupID)
}

func (r *PostgresRepository) DeleteDirect(ctx context.Context, a, b string) (int64, error) {
	query :=
		`DELETE FROM messages
		 WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)`

	res, err := r.db.ExecContext(ctx, query, a, b)
	if err != nil {
		return 0, dbx.MapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, dbx.MapError(err)
	}
	return n, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]models.Message, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbx.MapError(err)
	}
	defer rows.Close()

	res := make([]models.Message, 0)
	for rows.Next() {
		var m models.Message
		var receiver, group sql.NullString
		if err := rows.Scan(&m.ID, &m.SenderID, &receiver, &group, &m.Text, &m.File, &m.FileType, &m.CreatedAt); err != nil {
			return nil, dbx.MapError(err)
		}
		m.ReceiverID = receiver.String
		m.GroupID = group.String
		res = append(res, m)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.MapError(err)
	}
	return res, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
