package models

import (
	"slices"
	"time"
)

// Group is a named chat room. Members and Admins are independent sets;
// an admin is expected to be a member but storage does not enforce it.
type Group struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	Members     []string  `json:"members"`
	Admins      []string  `json:"admins"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (g *Group) IsMember(userID string) bool {
	return slices.Contains(g.Members, userID)
}

func (g *Group) IsAdmin(userID string) bool {
	return slices.Contains(g.Admins, userID)
}
