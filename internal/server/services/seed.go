package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/chitchat/internal/common"
	"github.com/dmitrijs2005/chitchat/internal/logging"
	"github.com/dmitrijs2005/chitchat/internal/server/models"
	"github.com/dmitrijs2005/chitchat/internal/server/repositories/users"
	"golang.org/x/crypto/bcrypt"
)

// SeedUser describes a demo account.
type SeedUser struct {
	Name       string
	Email      string
	Password   string
	ProfilePic string
}

const demoPassword = "12345678"

func portrait(kind string, n int) string {
	return fmt.Sprintf("https://randomuser.me/api/portraits/%s/%d.jpg", kind, n)
}

// DemoUsers is the default data set of cmd/seed.
var DemoUsers = []SeedUser{
	{Name: "Emma Thompson", Email: "emma.thompson@example.com", Password: demoPassword, ProfilePic: portrait("women", 1)},
	{Name: "Olivia Miller", Email: "olivia.miller@example.com", Password: demoPassword, ProfilePic: portrait("women", 2)},
	{Name: "Sophia Davis", Email: "sophia.davis@example.com", Password: demoPassword, ProfilePic: portrait("women", 3)},
	{Name: "Ava Wilson", Email: "ava.wilson@example.com", Password: demoPassword, ProfilePic: portrait("women", 4)},
	{Name: "Isabella Brown", Email: "isabella.brown@example.com", Password: demoPassword, ProfilePic: portrait("women", 5)},
	{Name: "Mia Johnson", Email: "mia.johnson@example.com", Password: demoPassword, ProfilePic: portrait("women", 6)},
	{Name: "Charlotte Williams", Email: "charlotte.williams@example.com", Password: demoPassword, ProfilePic: portrait("women", 7)},
	{Name: "Amelia Garcia", Email: "amelia.garcia@example.com", Password: demoPassword, ProfilePic: portrait("women", 8)},
	{Name: "James Anderson", Email: "james.anderson@example.com", Password: demoPassword, ProfilePic: portrait("men", 1)},
	{Name: "William Clark", Email: "william.clark@example.com", Password: demoPassword, ProfilePic: portrait("men", 2)},
	{Name: "Benjamin Taylor", Email: "benjamin.taylor@example.com", Password: demoPassword, ProfilePic: portrait("men", 3)},
	{Name: "Lucas Moore", Email: "lucas.moore@example.com", Password: demoPassword, ProfilePic: portrait("men", 4)},
	{Name: "Henry Jackson", Email: "henry.jackson@example.com", Password: demoPassword, ProfilePic: portrait("men", 5)},
	{Name: "Alexander Martin", Email: "alexander.martin@example.com", Password: demoPassword, ProfilePic: portrait("men", 6)},
	{Name: "Daniel Rodriguez", Email: "daniel.rodriguez@example.com", Password: demoPassword, ProfilePic: portrait("men", 7)},
}

// SeedUsers creates verified accounts for seeds. Emails that already exist
// are skipped, so running it twice is harmless. It returns how many
// accounts were created.
func SeedUsers(ctx context.Context, repo users.Repository, seeds []SeedUser, log logging.Logger) (int, error) {
	created := 0
	for _, s := range seeds {
		email := normalizeEmail(s.Email)

		_, err := repo.GetByEmail(ctx, email)
		if err == nil {
			log.Info(ctx, "seed user exists, skipping", "email", email)
			continue
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return created, fmt.Errorf("seed %s: %w", email, err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(s.Password), bcryptCost)
		if err != nil {
			return created, fmt.Errorf("seed %s: %w", email, err)
		}

		now := time.Now().UTC()
		_, err = repo.Create(ctx, &models.User{
			Name:         s.Name,
			Email:        email,
			PasswordHash: string(hash),
			ProfilePic:   s.ProfilePic,
			IsVerified:   true,
			CreatedAt:    now,
		})
		if err != nil {
			return created, fmt.Errorf("seed %s: %w", email, err)
		}
		created++
	}
	log.Info(ctx, "seeding finished", "created", created, "total", len(seeds))
	return created, nil
}
