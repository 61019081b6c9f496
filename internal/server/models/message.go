package models

import "time"

// Media types recorded for attachments.
const (
	FileTypeImage = "image"
	FileTypeVideo = "video"
	FileTypeRaw   = "raw"
)

// Message is either direct (ReceiverID set) or group (GroupID set), never
// both. Text and File may each be empty, not both.
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

func (m *Message) IsDirect() bool {
	return m.ReceiverID != ""
}
