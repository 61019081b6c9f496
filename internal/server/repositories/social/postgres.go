package social

import (
	"context"
	"time"

	"github.com/dmitrijs2005/chitchat/internal/dbx"
	"github.com/dmitrijs2005/chitchat/internal/server/models"
	"github.com/dmitrijs2005/chitchat/internal/server/repositories/users"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) AddRequest(ctx context.Context, fromID, toID string) error {
	query := `INSERT INTO friend_requests (from_id, to_id, created_at) VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, fromID, toID, time.Now().UTC()); err != nil {
		return dbx.MapError(err)
	}
	return nil
}

func (r *PostgresRepository) DeleteRequest(ctx context.Context, fromID, toID string) (bool, error) {
	query := `DELETE FROM friend_requests WHERE from_id = $1 AND to_id = $2`
	return r.execAffected(ctx, query, fromID, toID)
}

func (r *PostgresRepository) RequestExists(ctx context.Context, fromID, toID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM friend_requests WHERE from_id = $1 AND to_id = $2)`
	return r.exists(ctx, query, fromID, toID)
}

func (r *PostgresRepository) ListIncoming(ctx context.Context, userID string) ([]models.PublicUser, error) {
	query :=
		`SELECT u.id, u.name, u.email, u.profile_pic, u.created_at
		 FROM friend_requests fr JOIN users u ON u.id = fr.from_id
		 WHERE fr.to_id = $1
		 ORDER BY fr.created_at, u.id`
	return r.listUsers(ctx, query, userID)
}

func (r *PostgresRepository) ListOutgoing(ctx context.Context, userID string) ([]models.PublicUser, error) {
	query :=
		`SELECT u.id, u.name, u.email, u.profile_pic, u.created_at
		 FROM friend_requests fr JOIN users u ON u.id = fr.to_id
		 WHERE fr.from_id = $1
		 ORDER BY fr.created_at, u.id`
	return r.listUsers(ctx, query, userID)
}

func (r *PostgresRepository) AddFriendship(ctx context.Context, a, b string) error {
	query :=
		`INSERT INTO friendships (user_id, friend_id, created_at)
		 VALUES ($1, $2, $3), ($2, $1, $3)`
	if _, err := r.db.ExecContext(ctx, query, a, b, time.Now().UTC()); err != nil {
		return dbx.MapError(err)
	}
	return nil
}

func (r *PostgresRepository) DeleteFriendship(ctx context.Context, a, b string) (bool, error) {
	query :=
		`DELETE FROM friendships
		 WHERE (user_id = $1 AND friend_id = $2) OR (user_id = $2 AND friend_id = $1)`
	return r.execAffected(ctx, query, a, b)
}

func (r *PostgresRepository) AreFriends(ctx context.Context, a, b string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM friendships WHERE user_id = $1 AND friend_id = $2)`
	return r.exists(ctx, query, a, b)
}

func (r *PostgresRepository) ListFriends(ctx context.Context, userID string) ([]models.PublicUser, error) {
	query :=
		`SELECT u.id, u.name, u.email, u.profile_pic, u.created_at
		 FROM friendships f JOIN users u ON u.id = f.friend_id
		 WHERE f.user_id = $1
		 ORDER BY u.name, u.id`
	return r.listUsers(ctx, query, userID)
}

func (r *PostgresRepository) ListFriendsBelow(ctx context.Context, userID string, threshold int) ([]models.PublicUser, error) {
	query :=
		`SELECT u.id, u.name, u.email, u.profile_pic, u.created_at
		 FROM friendships f JOIN users u ON u.id = f.friend_id
		 WHERE f.user_id = $1 AND u.blocked_by_count < $2
		 ORDER BY u.name, u.id`
	return r.listUsers(ctx, query, userID, threshold)
}

func (r *PostgresRepository) Block(ctx context.Context, userID, targetID string) error {
	query :=
		`INSERT INTO blocks (user_id, blocked_id, created_at) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, blocked_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, userID, targetID, time.Now().UTC()); err != nil {
		return dbx.MapError(err)
	}
	return nil
}

func (r *PostgresRepository) Unblock(ctx context.Context, userID, targetID string) error {
	query := `DELETE FROM blocks WHERE user_id = $1 AND blocked_id = $2`
	if _, err := r.db.ExecContext(ctx, query, userID, targetID); err != nil {
		return dbx.MapError(err)
	}
	return nil
}

func (r *PostgresRepository) IsBlocked(ctx context.Context, a, b string) (bool, error) {
	query :=
		`SELECT EXISTS (SELECT 1 FROM blocks
		 WHERE (user_id = $1 AND blocked_id = $2) OR (user_id = $2 AND blocked_id = $1))`
	return r.exists(ctx, query, a, b)
}

func (r *PostgresRepository) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var ok bool
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&ok); err != nil {
		return false, dbx.MapError(err)
	}
	return ok, nil
}

func (r *PostgresRepository) execAffected(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, dbx.MapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, dbx.MapError(err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) listUsers(ctx context.Context, query string, args ...any) ([]models.PublicUser, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbx.MapError(err)
	}
	defer rows.Close()
	return users.ScanPublicUsers(rows)
}
