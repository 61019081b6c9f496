package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/chitchat/internal/common"
	"github.com/dmitrijs2005/chitchat/internal/server/models"
	"github.com/google/uuid"
)

type usersRepo struct {
	m *Manager
}

func (r *usersRepo) Create(_ context.Context, user *models.User) (*models.User, error) {
	defer r.m.lock()()
	st := &r.m.st

	if _, ok := st.emails[user.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.UpdatedAt = user.CreatedAt

	cp := *user
	st.users[user.ID] = &cp
	st.emails[user.Email] = user.ID
	return user, nil
}

func (r *usersRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	defer r.m.lock()()
	u, ok := r.m.st.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *usersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.m.mu.Lock()
	id, ok := r.m.st.emails[email]
	r.m.mu.Unlock()
	if !ok {
		return nil, common.ErrorNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *usersRepo) ListStrangers(_ context.Context, userID string) ([]models.PublicUser, error) {
	defer r.m.lock()()
	st := &r.m.st

	res := make([]models.PublicUser, 0)
	for id, u := range st.users {
		if id == userID {
			continue
		}
		if _, ok := st.friends[pair{userID, id}]; ok {
			continue
		}
		res = append(res, u.Public())
	}
	sortPublic(res)
	return res, nil
}

func sortPublic(list []models.PublicUser) {
	slices.SortFunc(list, func(a, b models.PublicUser) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

func (r *usersRepo) update(id string, fn func(u *models.User)) error {
	defer r.m.lock()()
	u, ok := r.m.st.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	fn(u)
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *usersRepo) SetOTP(_ context.Context, id, otp string, expiry time.Time) error {
	return r.update(id, func(u *models.User) {
		u.OTP = otp
		u.OTPExpiry = expiry
	})
}

func (r *usersRepo) MarkVerified(_ context.Context, id string) error {
	return r.update(id, func(u *models.User) {
		u.IsVerified = true
		u.OTP = ""
		u.OTPExpiry = time.Time{}
	})
}

func (r *usersRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	return r.update(id, func(u *models.User) {
		u.PasswordHash = passwordHash
		u.OTP = ""
		u.OTPExpiry = time.Time{}
	})
}

func (r *usersRepo) UpdateProfilePic(_ context.Context, id, profilePic string) error {
	return r.update(id, func(u *models.User) {
		u.ProfilePic = profilePic
	})
}

func (r *usersRepo) ClaimResendSlot(_ context.Context, id string, now time.Time, window time.Duration, limit int) (bool, error) {
	defer r.m.lock()()
	u, ok := r.m.st.users[id]
	if !ok {
		return false, nil
	}

	cutoff := now.Add(-window)
	expired := u.ResendOTPLast.IsZero() || !u.ResendOTPLast.After(cutoff)
	if !expired && u.ResendOTPCount >= limit {
		return false, nil
	}
	if expired {
		u.ResendOTPCount = 1
	} else {
		u.ResendOTPCount++
	}
	u.ResendOTPLast = now
	u.UpdatedAt = now
	return true, nil
}

// SetBlockedByCount adjusts the moderation counter. Only tests and the
// seeder use it; the chat core never writes the counter.
func (m *Manager) SetBlockedByCount(id string, n int) error {
	return m.users.update(id, func(u *models.User) {
		u.BlockedByCount = n
	})
}
