package services

// Notifier pushes server events to connected users. Delivery is best
// effort: DeliverToUser reports false when the user is offline or the
// connection could not take the event.
type Notifier interface {
	DeliverToUser(userID, event string, payload any) bool
	Broadcast(event string, payload any)
}

type FriendRequestReceived struct {
	FromUserID string `json:"fromUserId"`
	Username   string `json:"username"`
}

type FriendRequestAccepted struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type FriendRequestRejected struct {
	UserID string `json:"userId"`
}

type FriendRequestCancelled struct {
	FromUserID string `json:"fromUserId"`
}

type FriendRemoved struct {
	UserID string `json:"userId"`
}

type ChatsDeleted struct {
	UserID      string `json:"userId"`
	OtherUserID string `json:"otherUserId"`
}

type ForceLogout struct {
	Message string `json:"message"`
}

// NopNotifier drops every event.
type NopNotifier struct{}

func (NopNotifier) DeliverToUser(string, string, any) bool { return false }
func (NopNotifier) Broadcast(string, any)                 {}
