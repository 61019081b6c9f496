package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/chitchat/internal/common"
	"github.com/dmitrijs2005/chitchat/internal/logging"
	"github.com/dmitrijs2005/chitchat/internal/protocol"
	"github.com/dmitrijs2005/chitchat/internal/server/models"
	"github.com/dmitrijs2005/chitchat/internal/server/repositories/repomanager"
)

// Presence answers whether a user currently has a live connection.
type Presence interface {
	IsOnline(userID string) bool
}

// ToggleResult tells which way toggleFriendRequest went.
type ToggleResult struct {
	Sent      bool `json:"sent,omitempty"`
	Cancelled bool `json:"cancelled,omitempty"`
}

var (
	errSelfRequest    = common.NewError(common.ErrorValidation, "You cannot send a request to yourself")
	errNoPendingFrom  = common.NewError(common.ErrorNotFound, "No pending request from this user")
	errNoPendingTo    = common.NewError(common.ErrorNotFound, "No pending request to this user")
	errRequestSent    = common.NewError(common.ErrorAlreadyExists, "Request already sent")
	errRequestPending = common.NewError(common.ErrorAlreadyExists, "This user has already sent you a request")
	errAlreadyFriends = common.NewError(common.ErrorAlreadyExists, "You are already friends")
	errNotFriends     = common.NewError(common.ErrorNotFound, "You are not friends")
	errRequestBlocked = common.NewError(common.ErrorForbidden, "You cannot send a request to this user")
)

// SocialService manages friend requests, friendships and blocks and
// notifies the counterpart of every change.
type SocialService struct {
	repomanager repomanager.RepositoryManager
	notifier    Notifier
	presence    Presence
	log         logging.Logger

	restrictionThreshold int
}

func NewSocialService(m repomanager.RepositoryManager, n Notifier, p Presence, restrictionThreshold int, log logging.Logger) *SocialService {
	return &SocialService{
		repomanager:          m,
		notifier:             n,
		presence:             p,
		log:                  log.With("module", "social"),
		restrictionThreshold: restrictionThreshold,
	}
}

// SendRequest records a pending request fromID -> toID. Requests to self,
// to a friend, across a block or while a request is pending in either
// direction are refused.
func (s *SocialService) SendRequest(ctx context.Context, fromID, toID string) error {
	if fromID == toID {
		return errSelfRequest
	}
	from, _, err := s.pair(ctx, fromID, toID)
	if err != nil {
		return internal(ctx, s.log, "send friend request", err)
	}
	if err := s.checkCanRequest(ctx, s.repomanager, fromID, toID); err != nil {
		return internal(ctx, s.log, "send friend request", err)
	}
	if err := s.repomanager.Social().AddRequest(ctx, fromID, toID); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return errRequestSent
		}
		return internal(ctx, s.log, "send friend request", err)
	}

	s.notifier.DeliverToUser(toID, protocol.EventFriendRequestReceived, FriendRequestReceived{FromUserID: fromID, Username: from.Name})
	return nil
}

// CancelRequest withdraws the caller's pending request to toID.
func (s *SocialService) CancelRequest(ctx context.Context, fromID, toID string) error {
	if _, _, err := s.pair(ctx, fromID, toID); err != nil {
		return internal(ctx, s.log, "cancel friend request", err)
	}
	existed, err := s.repomanager.Social().DeleteRequest(ctx, fromID, toID)
	if err != nil {
		return internal(ctx, s.log, "cancel friend request", err)
	}
	if !existed {
		return errNoPendingTo
	}

	s.notifier.DeliverToUser(toID, protocol.EventFriendRequestCancelled, FriendRequestCancelled{FromUserID: fromID})
	return nil
}

// ToggleRequest cancels the caller's pending request to toID if there is
// one and sends a new one otherwise.
func (s *SocialService) ToggleRequest(ctx context.Context, fromID, toID string) (ToggleResult, error) {
	if fromID == toID {
		return ToggleResult{}, errSelfRequest
	}
	if _, _, err := s.pair(ctx, fromID, toID); err != nil {
		return ToggleResult{}, internal(ctx, s.log, "toggle friend request", err)
	}
	existed, err := s.repomanager.Social().DeleteRequest(ctx, fromID, toID)
	if err != nil {
		return ToggleResult{}, internal(ctx, s.log, "toggle friend request", err)
	}
	if existed {
		s.notifier.DeliverToUser(toID, protocol.EventFriendRequestCancelled, FriendRequestCancelled{FromUserID: fromID})
		return ToggleResult{Cancelled: true}, nil
	}
	if err := s.SendRequest(ctx, fromID, toID); err != nil {
		return ToggleResult{}, err
	}
	return ToggleResult{Sent: true}, nil
}

// AcceptRequest turns requesterID's pending request into a friendship.
// Both directions are written in one transaction.
func (s *SocialService) AcceptRequest(ctx context.Context, userID, requesterID string) error {
	user, requester, err := s.pair(ctx, userID, requesterID)
	if err != nil {
		return internal(ctx, s.log, "accept friend request", err)
	}

	err = s.repomanager.RunInTx(ctx, func(ctx context.Context, r repomanager.Repos) error {
		existed, err := r.Social().DeleteRequest(ctx, requesterID, userID)
		if err != nil {
			return err
		}
		if !existed {
			return errNoPendingFrom
		}
		if _, err := r.Social().DeleteRequest(ctx, userID, requesterID); err != nil {
			return err
		}
		return r.Social().AddFriendship(ctx, userID, requesterID)
	})
	if err != nil {
		var e *common.Error
		if !errors.As(err, &e) && errors.Is(err, common.ErrorAlreadyExists) {
			return errAlreadyFriends
		}
		return internal(ctx, s.log, "accept friend request", err)
	}

	s.notifier.DeliverToUser(requesterID, protocol.EventFriendRequestAccepted, FriendRequestAccepted{UserID: userID, Username: user.Name})
	s.notifier.DeliverToUser(userID, protocol.EventFriendRequestAccepted, FriendRequestAccepted{UserID: requesterID, Username: requester.Name})
	return nil
}

// RejectRequest drops requesterID's pending request.
func (s *SocialService) RejectRequest(ctx context.Context, userID, requesterID string) error {
	if _, _, err := s.pair(ctx, userID, requesterID); err != nil {
		return internal(ctx, s.log, "reject friend request", err)
	}
	existed, err := s.repomanager.Social().DeleteRequest(ctx, requesterID, userID)
	if err != nil {
		return internal(ctx, s.log, "reject friend request", err)
	}
	if !existed {
		return errNoPendingFrom
	}

	s.notifier.DeliverToUser(requesterID, protocol.EventFriendRequestRejected, FriendRequestRejected{UserID: userID})
	return nil
}

// Unfriend removes the friendship on both sides.
func (s *SocialService) Unfriend(ctx context.Context, userID, friendID string) error {
	if _, _, err := s.pair(ctx, userID, friendID); err != nil {
		return internal(ctx, s.log, "unfriend", err)
	}

	var existed bool
	err := s.repomanager.RunInTx(ctx, func(ctx context.Context, r repomanager.Repos) error {
		var err error
		existed, err = r.Social().DeleteFriendship(ctx, userID, friendID)
		return err
	})
	if err != nil {
		return internal(ctx, s.log, "unfriend", err)
	}
	if !existed {
		return errNotFriends
	}

	s.notifier.DeliverToUser(friendID, protocol.EventFriendRemoved, FriendRemoved{UserID: userID})
	return nil
}

// Block is idempotent. Blocks are one-directional but stop messaging and
// requests both ways.
func (s *SocialService) Block(ctx context.Context, userID, targetID string) error {
	if !validIDs(userID, targetID) {
		return errInvalidUserIDs
	}
	if userID == targetID {
		return common.NewError(common.ErrorValidation, "You cannot block yourself")
	}
	if _, err := s.repomanager.Users().GetByID(ctx, targetID); err != nil {
		return internal(ctx, s.log, "block", notFoundAs(err, errUserNotFound))
	}
	if err := s.repomanager.Social().Block(ctx, userID, targetID); err != nil {
		return internal(ctx, s.log, "block", err)
	}
	return nil
}

func (s *SocialService) Unblock(ctx context.Context, userID, targetID string) error {
	if !validIDs(userID, targetID) {
		return errInvalidUserIDs
	}
	if err := s.repomanager.Social().Unblock(ctx, userID, targetID); err != nil {
		return internal(ctx, s.log, "unblock", err)
	}
	return nil
}

func (s *SocialService) ListFriends(ctx context.Context, userID string) ([]models.PublicUser, error) {
	friends, err := s.repomanager.Social().ListFriends(ctx, userID)
	if err != nil {
		return nil, internal(ctx, s.log, "list friends", err)
	}
	return friends, nil
}

func (s *SocialService) ListRequests(ctx context.Context, userID string) (*models.FriendRequests, error) {
	repo := s.repomanager.Social()
	in, err := repo.ListIncoming(ctx, userID)
	if err != nil {
		return nil, internal(ctx, s.log, "list friend requests", err)
	}
	out, err := repo.ListOutgoing(ctx, userID)
	if err != nil {
		return nil, internal(ctx, s.log, "list friend requests", err)
	}
	return &models.FriendRequests{Incoming: in, Outgoing: out}, nil
}

// ListOnlineFriends returns friends that are online and below the
// moderation restriction threshold.
func (s *SocialService) ListOnlineFriends(ctx context.Context, userID string) ([]models.PublicUser, error) {
	friends, err := s.repomanager.Social().ListFriendsBelow(ctx, userID, s.restrictionThreshold)
	if err != nil {
		return nil, internal(ctx, s.log, "list online friends", err)
	}
	online := make([]models.PublicUser, 0, len(friends))
	for _, f := range friends {
		if s.presence.IsOnline(f.ID) {
			online = append(online, f)
		}
	}
	return online, nil
}

// pair validates and loads both sides of a relationship.
func (s *SocialService) pair(ctx context.Context, aID, bID string) (*models.User, *models.User, error) {
	if !validIDs(aID, bID) {
		return nil, nil, errInvalidUserIDs
	}
	if aID == bID {
		return nil, nil, errInvalidUserIDs
	}
	repo := s.repomanager.Users()
	a, err := repo.GetByID(ctx, aID)
	if err != nil {
		return nil, nil, notFoundAs(err, errUserNotFound)
	}
	b, err := repo.GetByID(ctx, bID)
	if err != nil {
		return nil, nil, notFoundAs(err, errUserNotFound)
	}
	return a, b, nil
}

func (s *SocialService) checkCanRequest(ctx context.Context, r repomanager.Repos, fromID, toID string) error {
	repo := r.Social()
	friends, err := repo.AreFriends(ctx, fromID, toID)
	if err != nil {
		return err
	}
	if friends {
		return errAlreadyFriends
	}
	blocked, err := repo.IsBlocked(ctx, fromID, toID)
	if err != nil {
		return err
	}
	if blocked {
		return errRequestBlocked
	}
	if sent, err := repo.RequestExists(ctx, fromID, toID); err != nil {
		return err
	} else if sent {
		return errRequestSent
	}
	if pending, err := repo.RequestExists(ctx, toID, fromID); err != nil {
		return err
	} else if pending {
		return errRequestPending
	}
	return nil
}
