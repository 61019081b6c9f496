// Package models holds the client-side views of server payloads.
package models

import "time"

type User struct {
	ID         string    `json:"id"`
	FullName   string    `json:"fullName"`
	Email      string    `json:"email"`
	ProfilePic string    `json:"profilePic,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId,omitempty"`
	GroupID    string    `json:"groupId,omitempty"`
	Text       string    `json:"text,omitempty"`
	File       string    `json:"file,omitempty"`
	FileType   string    `json:"fileType,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Group struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Members     []string `json:"members"`
	Admins      []string `json:"admins"`
}

type FriendRequests struct {
	Incoming []User `json:"incoming"`
	Outgoing []User `json:"outgoing"`
}

// Session is the result of login and verifyOtp.
type Session struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}
