package users

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/chitchat/internal/common"
	"github.com/dmitrijs2005/chitchat/internal/dbx"
	"github.com/dmitrijs2005/chitchat/internal/server/models"
	"github.com/google/uuid"
)

const userColumns = `id, name, email, password_hash, profile_pic, is_verified, otp, otp_expiry,
		 resend_otp_count, resend_otp_last, blocked_by_count, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = user.CreatedAt

	query :=
		`INSERT INTO users (id, name, email, password_hash, profile_pic, is_verified, otp, otp_expiry, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, user.ProfilePic, user.IsVerified,
		user.OTP, nullTime(user.OTPExpiry), user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return nil, dbx.MapError(err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.getOne(ctx, query, email)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		return nil, dbx.MapError(err)
	}
	return u, nil
}

func (r *PostgresRepository) ListStrangers(ctx context.Context, userID string) ([]models.PublicUser, error) {
	query :=
		`SELECT u.id, u.name, u.email, u.profile_pic, u.created_at FROM users u
		 WHERE u.id <> $1
		   AND NOT EXISTS (SELECT 1 FROM friendships f WHERE f.user_id = $1 AND f.friend_id = u.id)
		 ORDER BY u.name, u.id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, dbx.MapError(err)
	}
	defer rows.Close()

	return ScanPublicUsers(rows)
}

func (r *PostgresRepository) SetOTP(ctx context.Context, id, otp string, expiry time.Time) error {
	query := `UPDATE users SET otp = $2, otp_expiry = $3, updated_at = $4 WHERE id = $1`
	return r.execOne(ctx, query, id, otp, nullTime(expiry), time.Now().UTC())
}

func (r *PostgresRepository) MarkVerified(ctx context.Context, id string) error {
	query := `UPDATE users SET is_verified = TRUE, otp = '', otp_expiry = NULL, updated_at = $2 WHERE id = $1`
	return r.execOne(ctx, query, id, time.Now().UTC())
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, otp = '', otp_expiry = NULL, updated_at = $3 WHERE id = $1`
	return r.execOne(ctx, query, id, passwordHash, time.Now().UTC())
}

func (r *PostgresRepository) UpdateProfilePic(ctx context.Context, id, profilePic string) error {
	query := `UPDATE users SET profile_pic = $2, updated_at = $3 WHERE id = $1`
	return r.execOne(ctx, query, id, profilePic, time.Now().UTC())
}

func (r *PostgresRepository) ClaimResendSlot(ctx context.Context, id string, now time.Time, window time.Duration, limit int) (bool, error) {
	query :=
		`UPDATE users SET
		   resend_otp_count = CASE WHEN resend_otp_last IS NULL OR resend_otp_last <= $3 THEN 1 ELSE resend_otp_count + 1 END,
		   resend_otp_last = $2,
		   updated_at = $2
		 WHERE id = $1
		   AND (resend_otp_last IS NULL OR resend_otp_last <= $3 OR resend_otp_count < $4)
		 RETURNING resend_otp_count`

	var count int
	err := r.db.QueryRowContext(ctx, query, id, now, now.Add(-window), limit).Scan(&count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, dbx.MapError(err)
	}
	return true, nil
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	var otpExpiry, resendLast sql.NullTime

	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.ProfilePic, &u.IsVerified, &u.OTP, &otpExpiry,
		&u.ResendOTPCount, &resendLast, &u.BlockedByCount, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.OTPExpiry = otpExpiry.Time
	u.ResendOTPLast = resendLast.Time
	return u, nil
}

// ScanPublicUsers reads (id, name, email, profile_pic, created_at) rows.
// Other repositories that join users use it too.
func ScanPublicUsers(rows *sql.Rows) ([]models.PublicUser, error) {
	res := make([]models.PublicUser, 0)
	for rows.Next() {
		var p models.PublicUser
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.ProfilePic, &p.CreatedAt); err != nil {
			return nil, dbx.MapError(err)
		}
		res = append(res, p)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.MapError(err)
	}
	return res, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
