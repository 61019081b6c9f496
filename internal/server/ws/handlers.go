package ws

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dmitrijs2005/chitchat/internal/common"
	"github.com/dmitrijs2005/chitchat/internal/protocol"
	"github.com/dmitrijs2005/chitchat/internal/server/services"
)

var errInvalidPayload = common.NewError(common.ErrorValidation, "Invalid payload")

// decode unmarshals the frame data into v and validates it.
func decode(f protocol.Frame, v any) error {
	if len(f.Data) > 0 {
		if err := json.Unmarshal(f.Data, v); err != nil {
			return errInvalidPayload
		}
	}
	if val, ok := v.(protocol.Validator); ok {
		return val.Validate()
	}
	return nil
}

func msg(text string) Result {
	return Result{"message": text}
}

func (s *Server) routes() map[string]handlerFunc {
	return map[string]handlerFunc{
		protocol.EventRegister:       s.register,
		protocol.EventVerifyOTP:      s.verifyOTP,
		protocol.EventResendOTP:      s.resendOTP,
		protocol.EventLogin:          s.login,
		protocol.EventForgotPassword: s.forgotPassword,
		protocol.EventVerifyResetOTP: s.verifyResetOTP,
		protocol.EventResetPassword:  s.resetPassword,
		protocol.EventLogout:         s.logout,
		protocol.EventUpdate:         s.updateProfile,
		protocol.EventCheckAuth:      s.checkAuth,

		protocol.EventSendMessage:      s.sendMessage,
		protocol.EventSendGroupMessage: s.sendGroupMessage,
		protocol.EventGetMessages:      s.getMessages,
		protocol.EventGetGroupMessages: s.getGroupMessages,
		protocol.EventDeleteAllChats:   s.deleteAllChats,
		protocol.EventBlockUser:        s.blockUser,
		protocol.EventUnblockUser:      s.unblockUser,

		protocol.EventCreateGroup:         s.createGroup,
		protocol.EventUpdateGroup:         s.updateGroup,
		protocol.EventDeleteGroup:         s.deleteGroup,
		protocol.EventGetGroup:            s.getGroup,
		protocol.EventGetAllGroup:         s.getAllGroups,
		protocol.EventLeaveGroup:          s.leaveGroup,
		protocol.EventGetGroupsForSidebar: s.getGroupsForSidebar,

		protocol.EventGetUsersForSidebar: s.getUsersForSidebar,
		protocol.EventGetUser:            s.getUser,

		protocol.EventSendFriendRequest:   s.sendFriendRequest,
		protocol.EventAcceptFriendRequest: s.acceptFriendRequest,
		protocol.EventRejectFriendRequest: s.rejectFriendRequest,
		protocol.EventCancelFriendRequest: s.cancelFriendRequest,
		protocol.EventToggleFriendRequest: s.toggleFriendRequest,
		protocol.EventUnfriendUser:        s.unfriendUser,
		protocol.EventGetFriends:          s.getFriends,
		protocol.EventGetFriendRequests:   s.getFriendRequests,
		protocol.EventGetOnlineFriends:    s.getOnlineFriends,
	}
}

// Account

func (s *Server) register(ctx context.Context, _ *Conn, f protocol.Frame) (Result, error) {
	var req protocol.RegisterRequest
	if err := decode(f, &req); err != nil {
		return nil, err
	}
	text, err := s.svc.Users.Register(ctx, req.Name, req.Email, req.Password, req.ProfilePic)
	if err != nil {
		return nil, err
	}
	return msg(text), nil
}

func (s *Server) verifyOTP(ctx context.Context, _ *Conn, f protocol.Frame) (Result, error) {
	var req protocol.OTPRequest
	if err := decode(f, &req); err != nil {
		return nil, err
	}
	sess, err := s.svc.Users.VerifyOTP(ctx, req.Email, req.OTP)
	if err != nil {
		return nil, err
	}
	return Result{"user": sess.User, "token": sess.Token}, nil
}

func (s *Server) resendOTP(ctx context.Context, _ *Conn, f protocol.Frame) (Result, error) {
	var req protocol.EmailRequest
	if err := decode(f, &req); err != nil {
		return nil, err
	}
	if err := s.svc.Users.ResendOTP(ctx, req.Email); err != nil {
		return nil, err
	}
	return msg("OTP resent successfully"), nil
}

func (s *Server) login(ctx context.Context, _ *Conn, f protocol.Frame) (Result, error) {
	var req protocol.LoginRequest
	if err := decode(f, &req); err != nil {
		return nil, err
	}
	sess, err := s.svc.Users.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return Result{"user": sess.User, "token": sess.Token}, nil
}

func (s *Server) forgotPassword(ctx context.Context, _ *Conn, f protocol.Frame) (Result, error) {
	var req protocol.EmailRequest
	if err := decode(f, &req); err != nil {
		return nil, err
	}
	if err := s.svc.Users.ForgotPassword(ctx, req.Email); err != nil {
		return nil, err
	}
	return msg("Password reset code sent"), nil
}

func (s *Server) verifyResetOTP(ctx context.Context, _ *Conn, f protocol.Frame) (Result, error) {
	var req protocol.OTPRequest
	if err := decode(f, &req); err != nil {
		return nil, err
	}
	if err := s.svc.Users.VerifyResetOTP(ctx, req.Email, req.OTP); err != nil {
		return nil, err
	}
	return msg("OTP verified"), nil
}

func (s *Server) resetPassword(ctx context.Context, _ *Conn, f protocol.Frame) (Result, error) {
	var req protocol.ResetPasswordRequest
	if err := decode(f, &req); err != nil {
		return nil, err
	}
	if err := s.svc.Users.ResetPassword(ctx, req.Email, req.OTP, req.NewPassword); err != nil {
		return nil, err
	}
	return msg("Password reset successful"), nil
}

// logout is acknowledged before the connection closes.
func (s *Server) logout(_ context.Context, c *Conn, _ protocol.Frame) (Result, error) {
	c.closeAfterAck = true
	return msg("Logged out successfully"), nil
}

func (s *Server) updateProfile(ctx context.Context, c *Conn, f protocol.Frame) (Result, error) {
	var req protocol.UpdateProfileRequest
	if err := decode(f, &req); err != nil {
		return nil, err
	}
	user, err := s.svc.Users.UpdateProfilePic(ctx, c.userID, req.ProfilePic)
	if err != nil {
		return nil, err
	}
	return Result{"user": user}, nil
}

// checkAuth verifies the handshake credential again and returns its user.
func (s *Server) checkAuth(ctx context.Context, c *Conn, _ protocol.Frame) (Result, error) {
	id, err := s.auth.Authenticate(c.token)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return nil, common.NewError(common.ErrorUnauthorized, protocol.SessionExpiredMessage)
		}
		return nil, common.NewError(common.ErrorUnauthorized, "Unauthorized")
	}
	user, err := s.svc.Users.GetUser(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	return Result{"user": user}, nil
}

// Messaging

func (s *Server) sendMessage(ctx context.Context, c *Conn, f protocol.Frame) (Result, error) {
	var req protocol.SendMessageRequest
	if err := decode(f, &req); err != nil {
		return nil, err
	}
	m, err := s.svc.Messages.SendDirect(ctx, c.userID, req.ReceiverID, services.Content{Text: req.Text, File: req.File})
	if err != nil {
		return nil, err
	}
	return Result{"message": m}, nil
}

func (s *Server) sendGroupMessage(ctx context.Context, c *Conn, f protocol.Frame) (Result, error) {
	var req protocol.SendGroupMessageRequest
	if err := decode(f, &req); err != nil {
		return nil, err
	}
	m, err := s.svc.Messages.SendGroup(ctx, c.userID, req.GroupID, services.Content{Text: req.Text, File: req.File})
	if err != nil {
		return nil, err
	}
	return Result{"message": m}, nil
}

func (s *Server) getMessages(ctx context.Context, c *Conn, f protocol.Frame) (Result, error) {
	var req protocol.GetMessagesRequest
	if err := decode(f, &req); err != nil {
		return nil, err
	}
	msgs, err := s.svc.Messages.History(ctx, c.userID, req.Counterpart(c.userID))
	if err != nil {
		return nil, err
	}
	return Result{"messages": msgs}, nil
}

func (s *Server) getGroupMessages(ctx context.Context, c *Conn, f protocol.Frame) (Result, error) {
	var req protocol.GroupRequest
	if err := decode(f, &req); err != nil {
		return nil, err
	}
	msgs, err := s.svc.Messages.GroupHistory(ctx, c.userID, req.GroupID)
	if err != nil {
		return nil, err
	}
	return Result{"messages": msgs}, nil
}

func (s *Server) deleteAllChats(ctx context.Context, c *Conn, f protocol.Frame) (Result, error) {
	var req protocol.DeleteChatsRequest
	if err := decode(f, &req); err != nil {
		return nil, err
	}
	n, err := s.svc.Messages.DeleteConversation(ctx, c.userID, req.OtherUserID)
	if err != nil {
		return nil, err
	}
	return Result{"deletedCount": n}, nil
}

func (s *Server) blockUser(ctx context.Context, c *Conn, f protocol.Frame) (Result, error) {
	var req protocol.BlockRequest
	if err := decode(f, &req); err != nil {
		return nil, err
	}
	if err := s.svc.Social.Block(ctx, c.userID, req.Target()); err != nil {
		return nil, err
	}
	return msg("User blocked successfully"), nil
}

func (s *Server) unblockUser(ctx context.Context, c *Conn, f protocol.Frame) (Result, error) {
	var req protocol.BlockRequest
	if err := decode(f, &req); err != nil {
		return nil, err
	}
	if err := s.svc.Social.Unblock(ctx, c.userID, req.Target()); err != nil {
		return nil, err
	}
	return msg("User unblocked successfully"), nil
}

// Groups

func (s *Server) createGroup(ctx context.Context, c *Conn, f protocol.Frame) (Result, error) {
	var req protocol.CreateGroupRequest
	if err := decode(f, &req); err != nil {
		return nil, err
	}
	g, err := s.svc.Groups.Create(ctx, c.userID, services.GroupInput{
		Name:        req.Name,
		Description: req.Description,
		Image:       req.ProfilePic,
		Members:     req.Members,
		Admins:      req.Admins,
	})
	if err != nil {
		return nil, err
	}
	return Result{"group": g}, nil
}

func (s *Server) updateGroup(ctx context.Context, c *Conn, f protocol.Frame) (Result, error) {
	var req protocol.UpdateGroupRequest
	if err := decode(f, &req); err != nil {
		return nil, err
	}
	g, err := s.svc.Groups.Update(ctx, c.userID, req.GroupID, services.GroupUpdate{
		Name:        req.Name,
		Description: req.Description,
		Image:       req.ProfilePic,
		Members:     req.Members,
		Admins:      req.Admins,
	})
	if err != nil {
		return nil, err
	}
	return Result{"group": g}, nil
}

func (s *Server) deleteGroup(ctx context.Context, c *Conn, f protocol.Frame) (Result, error) {
	var req protocol.GroupRequest
	if err := decode(f, &req); err != nil {
		return nil, err
	}
	if err := s.svc.Groups.Delete(ctx, c.userID, req.GroupID); err != nil {
		return nil, err
	}
	return msg("Group deleted successfully"), nil
}

func (s *Server) getGroup(ctx context.Context, _ *Conn, f protocol.Frame) (Result, error) {
	var req protocol.GroupRequest
	if err := decode(f, &req); err != nil {
		return nil, err
	}
	g, err := s.svc.Groups.Get(ctx, req.GroupID)
	if err != nil {
		return nil, err
	}
	return Result{"group": g}, nil
}

func (s *Server) getAllGroups(ctx context.Context, _ *Conn, _ protocol.Frame) (Result, error) {
	groups, err := s.svc.Groups.List(ctx)
	if err != nil {
		return nil, err
	}
	return Result{"groups": groups}, nil
}

func (s *Server) leaveGroup(ctx context.Context, c *Conn, f protocol.Frame) (Result, error) {
	var req protocol.GroupRequest
	if err := decode(f, &req); err != nil {
		return nil, err
	}
	res, err := s.svc.Groups.Leave(ctx, c.userID, req.GroupID)
	if err != nil {
		return nil, err
	}
	if res.Deleted {
		return msg("Group deleted as no members remain"), nil
	}
	return msg("Left group successfully"), nil
}

func (s *Server) getGroupsForSidebar(ctx context.Context, c *Conn, _ protocol.Frame) (Result, error) {
	groups, err := s.svc.Groups.ListForUser(ctx, c.userID)
	if err != nil {
		return nil, err
	}
	return Result{"groups": groups}, nil
}

// Users

func (s *Server) getUsersForSidebar(ctx context.Context, c *Conn, _ protocol.Frame) (Result, error) {
	users, err := s.svc.Users.UsersForSidebar(ctx, c.userID)
	if err != nil {
		return nil, err
	}
	return Result{"users": users}, nil
}

func (s *Server) getUser(ctx context.Context, c *Conn, f protocol.Frame) (Result, error) {
	var req protocol.UserRequest
	if err := decode(f, &req); err != nil {
		return nil, err
	}
	id := req.UserID
	if id == "" {
		id = c.userID
	}
	user, err := s.svc.Users.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return Result{"user": user}, nil
}

// Friends

func (s *Server) sendFriendRequest(ctx context.Context, c *Conn, f protocol.Frame) (Result, error) {
	var req protocol.FriendRequest
	if err := decode(f, &req); err != nil {
		return nil, err
	}
	if err := s.svc.Social.SendRequest(ctx, c.userID, req.ToUserID); err != nil {
		return nil, err
	}
	return msg("Friend request sent"), nil
}

func (s *Server) acceptFriendRequest(ctx context.Context, c *Conn, f protocol.Frame) (Result, error) {
	var req protocol.FriendAnswerRequest
	if err := decode(f, &req); err != nil {
		return nil, err
	}
	if err := s.svc.Social.AcceptRequest(ctx, c.userID, req.RequesterID); err != nil {
		return nil, err
	}
	return msg("Friend request accepted"), nil
}

func (s *Server) rejectFriendRequest(ctx context.Context, c *Conn, f protocol.Frame) (Result, error) {
	var req protocol.FriendAnswerRequest
	if err := decode(f, &req); err != nil {
		return nil, err
	}
	if err := s.svc.Social.RejectRequest(ctx, c.userID, req.RequesterID); err != nil {
		return nil, err
	}
	return msg("Friend request rejected"), nil
}

func (s *Server) cancelFriendRequest(ctx context.Context, c *Conn, f protocol.Frame) (Result, error) {
	var req protocol.FriendRequest
	if err := decode(f, &req); err != nil {
		return nil, err
	}
	if err := s.svc.Social.CancelRequest(ctx, c.userID, req.ToUserID); err != nil {
		return nil, err
	}
	return msg("Friend request cancelled"), nil
}

func (s *Server) toggleFriendRequest(ctx context.Context, c *Conn, f protocol.Frame) (Result, error) {
	var req protocol.FriendRequest
	if err := decode(f, &req); err != nil {
		return nil, err
	}
	res, err := s.svc.Social.ToggleRequest(ctx, c.userID, req.ToUserID)
	if err != nil {
		return nil, err
	}
	out := Result{"sent": res.Sent, "cancelled": res.Cancelled}
	if res.Cancelled {
		out["message"] = "Friend request cancelled"
	} else {
		out["message"] = "Friend request sent"
	}
	return out, nil
}

func (s *Server) unfriendUser(ctx context.Context, c *Conn, f protocol.Frame) (Result, error) {
	var req protocol.UnfriendRequest
	if err := decode(f, &req); err != nil {
		return nil, err
	}
	if err := s.svc.Social.Unfriend(ctx, c.userID, req.FriendID); err != nil {
		return nil, err
	}
	return msg("Friend removed"), nil
}

func (s *Server) getFriends(ctx context.Context, c *Conn, _ protocol.Frame) (Result, error) {
	friends, err := s.svc.Social.ListFriends(ctx, c.userID)
	if err != nil {
		return nil, err
	}
	return Result{"friends": friends}, nil
}

func (s *Server) getFriendRequests(ctx context.Context, c *Conn, _ protocol.Frame) (Result, error) {
	reqs, err := s.svc.Social.ListRequests(ctx, c.userID)
	if err != nil {
		return nil, err
	}
	return Result{"requests": reqs}, nil
}

func (s *Server) getOnlineFriends(ctx context.Context, c *Conn, _ protocol.Frame) (Result, error) {
	friends, err := s.svc.Social.ListOnlineFriends(ctx, c.userID)
	if err != nil {
		return nil, err
	}
	return Result{"friends": friends}, nil
}
