package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/chitchat/internal/server/models"
)

// Repository persists user accounts. Lookups return common.ErrorNotFound
// for unknown users; Create returns common.ErrorAlreadyExists for a taken
// email.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// ListStrangers returns every user other than userID and its friends.
	ListStrangers(ctx context.Context, userID string) ([]models.PublicUser, error)

	SetOTP(ctx context.Context, id, otp string, expiry time.Time) error
	MarkVerified(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateProfilePic(ctx context.Context, id, profilePic string) error

	// ClaimResendSlot atomically records an OTP resend at now. The counter
	// restarts at 1 when the previous resend is older than now-window;
	// otherwise the claim succeeds only while the counter is below limit.
	// It reports false when the limit is exhausted.
	ClaimResendSlot(ctx context.Context, id string, now time.Time, window time.Duration, limit int) (bool, error)
}
