package protocol

// Request events (client to server).
const (
	EventRegister       = "register"
	EventVerifyOTP      = "verifyOtp"
	EventResendOTP      = "resendOtp"
	EventLogin          = "login"
	EventForgotPassword = "forgotPassword"
	EventVerifyResetOTP = "verifyResetOtp"
	EventResetPassword  = "resetPassword"
	EventLogout         = "logout"
	EventUpdate         = "update"
	EventCheckAuth      = "checkAuth"

	EventSendMessage      = "sendMessage"
	EventSendGroupMessage = "sendGroupMessage"
	EventGetMessages      = "getMessages"
	EventGetGroupMessages = "getGroupMessages"
	EventDeleteAllChats   = "deleteAllChats"
	EventBlockUser        = "blockUser"
	EventUnblockUser      = "unblockUser"

	EventCreateGroup         = "createGroup"
	EventUpdateGroup         = "updateGroup"
	EventDeleteGroup         = "deleteGroup"
	EventGetGroup            = "getGroup"
	EventGetAllGroup         = "getAllGroup"
	EventLeaveGroup          = "leaveGroup"
	EventGetGroupsForSidebar = "getGroupsForSidebar"

	EventGetUsersForSidebar = "getUsersForSidebar"
	EventGetUser            = "getUser"

	EventSendFriendRequest   = "sendFriendRequest"
	EventAcceptFriendRequest = "acceptFriendRequest"
	EventRejectFriendRequest = "rejectFriendRequest"
	EventCancelFriendRequest = "cancelFriendRequest"
	EventToggleFriendRequest = "toggleFriendRequest"
	EventUnfriendUser        = "unfriendUser"
	EventGetFriends          = "getFriends"
	EventGetFriendRequests   = "getFriendRequests"
	EventGetOnlineFriends    = "getOnlineFriends"
)

// Push events (server to client).
const (
	EventOnlineUsers            = "getOnlineUsers"
	EventForceLogout            = "forceLogout"
	EventNewMessage             = "newMessage"
	EventNewGroupMessage        = "newGroupMessage"
	EventChatsDeleted           = "chatsDeleted"
	EventFriendRequestReceived  = "friendRequestReceived"
	EventFriendRequestAccepted  = "friendRequestAccepted"
	EventFriendRequestRejected  = "friendRequestRejected"
	EventFriendRequestCancelled = "friendRequestCancelled"
	EventFriendRemoved          = "friendRemoved"
)

// SessionExpiredMessage is the forceLogout text.
const SessionExpiredMessage = "Session expired. Please login again."

var bootstrap = map[string]bool{
	EventRegister:       true,
	EventVerifyOTP:      true,
	EventResendOTP:      true,
	EventLogin:          true,
	EventForgotPassword: true,
	EventVerifyResetOTP: true,
	EventResetPassword:  true,
}

// IsBootstrap reports whether event is allowed without a credential. These
// events produce a credential rather than consume one.
func IsBootstrap(event string) bool {
	return bootstrap[event]
}
