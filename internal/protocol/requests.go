package protocol

import (
	"strings"

	"github.com/dmitrijs2005/chitchat/internal/common"
)

// Validator is implemented by request payloads that can reject malformed
// input before it reaches a service.
type Validator interface {
	Validate() error
}

var (
	errFieldsRequired = common.NewError(common.ErrorValidation, "All fields are required")
	errEmailRequired  = common.NewError(common.ErrorValidation, "Email is required")
	errUserIDs        = common.NewError(common.ErrorValidation, "Invalid user IDs")
	errGroupID        = common.NewError(common.ErrorValidation, "Invalid group ID")
)

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

type RegisterRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	ProfilePic string `json:"profilePic,omitempty"`
}

func (r *RegisterRequest) Validate() error {
	if blank(r.Name) || blank(r.Email) || r.Password == "" {
		return errFieldsRequired
	}
	return nil
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	if blank(r.Email) || r.Password == "" {
		return errFieldsRequired
	}
	return nil
}

// EmailRequest is the payload of resendOtp and forgotPassword.
type EmailRequest struct {
	Email string `json:"email"`
}

func (r *EmailRequest) Validate() error {
	if blank(r.Email) {
		return errEmailRequired
	}
	return nil
}

// OTPRequest is the payload of verifyOtp and verifyResetOtp.
type OTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (r *OTPRequest) Validate() error {
	if blank(r.Email) || blank(r.OTP) {
		return errFieldsRequired
	}
	return nil
}

type ResetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

func (r *ResetPasswordRequest) Validate() error {
	if blank(r.Email) || blank(r.OTP) || r.NewPassword == "" {
		return errFieldsRequired
	}
	return nil
}

// UpdateProfileRequest may name a UserID; the server acts on the
// connection's own user regardless.
type UpdateProfileRequest struct {
	ProfilePic string `json:"profilePic"`
	UserID     string `json:"userId,omitempty"`
}

func (r *UpdateProfileRequest) Validate() error {
	if r.ProfilePic == "" {
		return common.NewError(common.ErrorValidation, "Profile pic and user ID are required")
	}
	return nil
}

type SendMessageRequest struct {
	Text       string `json:"text,omitempty"`
	File       string `json:"file,omitempty"`
	ReceiverID string `json:"receiverId"`
	SenderID   string `json:"senderId,omitempty"`
}

func (r *SendMessageRequest) Validate() error {
	if blank(r.ReceiverID) {
		return common.NewError(common.ErrorValidation, "Message must have a sender, receiver, and content")
	}
	return nil
}

type SendGroupMessageRequest struct {
	Text     string `json:"text,omitempty"`
	File     string `json:"file,omitempty"`
	GroupID  string `json:"groupId"`
	SenderID string `json:"senderId,omitempty"`
}

func (r *SendGroupMessageRequest) Validate() error {
	if blank(r.GroupID) {
		return common.NewError(common.ErrorValidation, "Must have content, sender, and groupId")
	}
	return nil
}

// GetMessagesRequest names both sides of a conversation; one of them must
// be the caller.
type GetMessagesRequest struct {
	SenderID   string `json:"senderId,omitempty"`
	ReceiverID string `json:"receiverId"`
}

func (r *GetMessagesRequest) Validate() error {
	if blank(r.ReceiverID) && blank(r.SenderID) {
		return errUserIDs
	}
	return nil
}

// Counterpart returns the side of the conversation that is not self.
func (r *GetMessagesRequest) Counterpart(self string) string {
	if r.ReceiverID == self || r.ReceiverID == "" {
		return r.SenderID
	}
	return r.ReceiverID
}

type DeleteChatsRequest struct {
	UserID      string `json:"userId,omitempty"`
	OtherUserID string `json:"otherUserId"`
}

func (r *DeleteChatsRequest) Validate() error {
	if blank(r.OtherUserID) {
		return errUserIDs
	}
	return nil
}

// BlockRequest serves blockUser (BlockUserID) and unblockUser
// (UnblockUserID).
type BlockRequest struct {
	UserID        string `json:"userId,omitempty"`
	BlockUserID   string `json:"blockUserId,omitempty"`
	UnblockUserID string `json:"unblockUserId,omitempty"`
}

// Target returns whichever counterpart id was given.
func (r *BlockRequest) Target() string {
	if r.BlockUserID != "" {
		return r.BlockUserID
	}
	return r.UnblockUserID
}

func (r *BlockRequest) Validate() error {
	if blank(r.Target()) {
		return errUserIDs
	}
	return nil
}

type CreateGroupRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	ProfilePic  string   `json:"profilePic,omitempty"`
	Members     []string `json:"members,omitempty"`
	Admins      []string `json:"admins,omitempty"`
}

func (r *CreateGroupRequest) Validate() error {
	if blank(r.Name) {
		return common.NewError(common.ErrorValidation, "Group name is required")
	}
	return nil
}

// UpdateGroupRequest leaves absent fields unchanged.
type UpdateGroupRequest struct {
	GroupID     string   `json:"groupId"`
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	ProfilePic  string   `json:"profilePic,omitempty"`
	Members     []string `json:"members,omitempty"`
	Admins      []string `json:"admins,omitempty"`
}

func (r *UpdateGroupRequest) Validate() error {
	if blank(r.GroupID) {
		return errGroupID
	}
	return nil
}

// GroupRequest is the payload of every event addressing one group.
type GroupRequest struct {
	GroupID string `json:"groupId"`
	UserID  string `json:"userId,omitempty"`
}

func (r *GroupRequest) Validate() error {
	if blank(r.GroupID) {
		return errGroupID
	}
	return nil
}

// UserRequest addresses one user. An empty UserID means the caller.
type UserRequest struct {
	UserID string `json:"userId,omitempty"`
}

// FriendRequest is the payload of send, cancel and toggle.
type FriendRequest struct {
	FromUserID string `json:"fromUserId,omitempty"`
	ToUserID   string `json:"toUserId"`
}

func (r *FriendRequest) Validate() error {
	if blank(r.ToUserID) {
		return errUserIDs
	}
	return nil
}

// FriendAnswerRequest is the payload of accept and reject.
type FriendAnswerRequest struct {
	UserID      string `json:"userId,omitempty"`
	RequesterID string `json:"requesterId"`
}

func (r *FriendAnswerRequest) Validate() error {
	if blank(r.RequesterID) {
		return errUserIDs
	}
	return nil
}

type UnfriendRequest struct {
	UserID   string `json:"userId,omitempty"`
	FriendID string `json:"friendId"`
}

func (r *UnfriendRequest) Validate() error {
	if blank(r.FriendID) {
		return errUserIDs
	}
	return nil
}
