package groups

import (
	"context"
	"time"

	"github.com/dmitrijs2005/chitchat/internal/common"
	"github.com/dmitrijs2005/chitchat/internal/dbx"
	"github.com/dmitrijs2005/chitchat/internal/server/models"
	"github.com/google/uuid"
)

const (
	whereID   = ` WHERE g.id = $1`
	whereUser = ` WHERE g.id IN (SELECT group_id FROM group_members WHERE user_id = $1
		 UNION SELECT group_id FROM group_admins WHERE user_id = $1)`
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, g *models.Group) (*models.Group, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	g.UpdatedAt = g.CreatedAt

	query :=
		`INSERT INTO groups (id, name, description, image, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := r.db.ExecContext(ctx, query, g.ID, g.Name, g.Description, g.Image, g.CreatedAt, g.UpdatedAt); err != nil {
		return nil, dbx.MapError(err)
	}
	if err := r.insertRoles(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (r *PostgresRepository) insertRoles(ctx context.Context, g *models.Group) error {
	for i, id := range g.Members {
		query := `INSERT INTO group_members (group_id, user_id, position) VALUES ($1, $2, $3)`
		if _, err := r.db.ExecContext(ctx, query, g.ID, id, i); err != nil {
			return dbx.MapError(err)
		}
	}
	for i, id := range g.Admins {
		query := `INSERT INTO group_admins (group_id, user_id, position) VALUES ($1, $2, $3)`
		if _, err := r.db.ExecContext(ctx, query, g.ID, id, i); err != nil {
			return dbx.MapError(err)
		}
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Group, error) {
	list, err := r.list(ctx, whereID, id)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, common.ErrorNotFound
	}
	return &list[0], nil
}

func (r *PostgresRepository) Update(ctx context.Context, g *models.Group) error {
	g.UpdatedAt = time.Now().UTC()

	query := `UPDATE groups SET name = $2, description = $3, image = $4, updated_at = $5 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, g.ID, g.Name, g.Description, g.Image, g.UpdatedAt)
	if err != nil {
		return dbx.MapError(err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return dbx.MapError(err)
	} else if n == 0 {
		return common.ErrorNotFound
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM group_members WHERE group_id = $1`, g.ID); err != nil {
		return dbx.MapError(err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM group_admins WHERE group_id = $1`, g.ID); err != nil {
		return dbx.MapError(err)
	}
	return r.insertRoles(ctx, g)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return dbx.MapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return dbx.MapError(err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]models.Group, error) {
	return r.list(ctx, "")
}

func (r *PostgresRepository) ListForUser(ctx context.Context, userID string) ([]models.Group, error) {
	return r.list(ctx, whereUser, userID)
}

// list loads groups matching where, then their members and admins with
// one query each.
func (r *PostgresRepository) list(ctx context.Context, where string, args ...any) ([]models.Group, error) {
	query := `SELECT g.id, g.name, g.description, g.image, g.created_at, g.updated_at FROM groups g` +
		where + ` ORDER BY g.created_at, g.id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbx.MapError(err)
	}
	defer rows.Close()

	res := make([]models.Group, 0)
	index := map[string]int{}
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.Image, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, dbx.MapError(err)
		}
		g.Members = []string{}
		g.Admins = []string{}
		index[g.ID] = len(res)
		res = append(res, g)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.MapError(err)
	}
	if len(res) == 0 {
		return res, nil
	}

	if err := r.loadRoles(ctx, "group_members", where, args, func(gid, uid string) {
		if i, ok := index[gid]; ok {
			res[i].Members = append(res[i].Members, uid)
		}
	}); err != nil {
		return nil, err
	}
	if err := r.loadRoles(ctx, "group_admins", where, args, func(gid, uid string) {
		if i, ok := index[gid]; ok {
			res[i].Admins = append(res[i].Admins, uid)
		}
	}); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *PostgresRepository) loadRoles(ctx context.Context, table, where string, args []any, add func(gid, uid string)) error {
	query := `SELECT x.group_id, x.user_id FROM ` + table + ` x JOIN groups g ON g.id = x.group_id` +
		where + ` ORDER BY x.group_id, x.position`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return dbx.MapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var gid, uid string
		if err := rows.Scan(&gid, &uid); err != nil {
			return dbx.MapError(err)
		}
		add(gid, uid)
	}
	if err := rows.Err(); err != nil {
		return dbx.MapError(err)
	}
	return nil
}
