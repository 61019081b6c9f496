// Package models defines the server-side records persisted by the
// repositories and the public views sent to clients.
package models

import "time"

// User is the full account record. It never leaves the server as is;
// clients receive PublicUser.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	ProfilePic   string
	IsVerified   bool

	OTP            string
	OTPExpiry      time.Time
	ResendOTPCount int
	ResendOTPLast  time.Time

	// BlockedByCount is maintained by moderation tooling outside the chat
	// core; logins are refused once it reaches the restriction threshold.
	BlockedByCount int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PublicUser is the profile view safe to send to other users.
type PublicUser struct {
	ID         string    `json:"id"`
	Name       string    `json:"fullName"`
	Email      string    `json:"email"`
	ProfilePic string    `json:"profilePic"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		ProfilePic: u.ProfilePic,
		CreatedAt:  u.CreatedAt,
	}
}

// FriendRequests lists pending requests from the caller's point of view.
type FriendRequests struct {
	Incoming []PublicUser `json:"incoming"`
	Outgoing []PublicUser `json:"outgoing"`
}
