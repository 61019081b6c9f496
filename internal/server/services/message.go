package services

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/chitchat/internal/common"
	"github.com/dmitrijs2005/chitchat/internal/logging"
	"github.com/dmitrijs2005/chitchat/internal/protocol"
	"github.com/dmitrijs2005/chitchat/internal/server/blob"
	"github.com/dmitrijs2005/chitchat/internal/server/models"
	"github.com/dmitrijs2005/chitchat/internal/server/repositories/repomanager"
)

var (
	errDirectContent = common.NewError(common.ErrorValidation, "Message must have a sender, receiver, and content")
	errGroupContent  = common.NewError(common.ErrorValidation, "Must have content, sender, and groupId")
	errSendBlocked   = common.NewError(common.ErrorForbidden, "You cannot send messages because one of you has blocked the other")
	errViewBlocked   = common.NewError(common.ErrorForbidden, "You cannot view messages because one of you has blocked the other")
)

// Content is the body of a message: text, an attachment reference (data
// URL or hosted URL) or both.
type Content struct {
	Text string
	File string
}

func (c Content) empty() bool {
	return strings.TrimSpace(c.Text) == "" && c.File == ""
}

// MessageService persists messages and pushes them to online recipients.
// Delivery happens after the message is stored; a failed delivery is not
// an error.
type MessageService struct {
	repomanager repomanager.RepositoryManager
	blobs       blob.Store
	notifier    Notifier
	log         logging.Logger
}

func NewMessageService(m repomanager.RepositoryManager, blobs blob.Store, n Notifier, log logging.Logger) *MessageService {
	return &MessageService{
		repomanager: m,
		blobs:       blobs,
		notifier:    n,
		log:         log.With("module", "messages"),
	}
}

// SendDirect checks, in order: both users exist, no block in either
// direction, content present. The message is echoed to the sender.
func (s *MessageService) SendDirect(ctx context.Context, senderID, receiverID string, c Content) (*models.Message, error) {
	if senderID == "" || receiverID == "" {
		return nil, errDirectContent
	}
	if err := s.checkDirect(ctx, senderID, receiverID, errSendBlocked); err != nil {
		return nil, internal(ctx, s.log, "send message", err)
	}
	if c.empty() {
		return nil, errDirectContent
	}

	msg, err := s.store(ctx, &models.Message{SenderID: senderID, ReceiverID: receiverID}, c)
	if err != nil {
		return nil, internal(ctx, s.log, "send message", err)
	}

	s.notifier.DeliverToUser(receiverID, protocol.EventNewMessage, msg)
	if senderID != receiverID {
		s.notifier.DeliverToUser(senderID, protocol.EventNewMessage, msg)
	}
	return msg, nil
}

// SendGroup stores a group message from a member or admin and pushes it to
// every online member, the sender included.
func (s *MessageService) SendGroup(ctx context.Context, senderID, groupID string, c Content) (*models.Message, error) {
	if senderID == "" || groupID == "" {
		return nil, errGroupContent
	}
	group, err := s.memberGroup(ctx, senderID, groupID)
	if err != nil {
		return nil, internal(ctx, s.log, "send group message", err)
	}
	if c.empty() {
		return nil, errGroupContent
	}

	msg, err := s.store(ctx, &models.Message{SenderID: senderID, GroupID: groupID}, c)
	if err != nil {
		return nil, internal(ctx, s.log, "send group message", err)
	}

	for _, id := range participants(group) {
		s.notifier.DeliverToUser(id, protocol.EventNewGroupMessage, msg)
	}
	return msg, nil
}

// History returns the conversation between a and b, oldest first.
func (s *MessageService) History(ctx context.Context, a, b string) ([]models.Message, error) {
	if err := s.checkDirect(ctx, a, b, errViewBlocked); err != nil {
		return nil, internal(ctx, s.log, "get messages", err)
	}
	msgs, err := s.repomanager.Messages().ListDirect(ctx, a, b)
	if err != nil {
		return nil, internal(ctx, s.log, "get messages", err)
	}
	return msgs, nil
}

// GroupHistory returns the group's messages, oldest first, to a member.
func (s *MessageService) GroupHistory(ctx context.Context, userID, groupID string) ([]models.Message, error) {
	if _, err := s.memberGroup(ctx, userID, groupID); err != nil {
		return nil, internal(ctx, s.log, "get group messages", err)
	}
	msgs, err := s.repomanager.Messages().ListGroup(ctx, groupID)
	if err != nil {
		return nil, internal(ctx, s.log, "get group messages", err)
	}
	return msgs, nil
}

// DeleteConversation removes every direct message between userID and
// otherID and tells both sides.
func (s *MessageService) DeleteConversation(ctx context.Context, userID, otherID string) (int64, error) {
	if !validIDs(userID, otherID) {
		return 0, errInvalidUserIDs
	}
	n, err := s.repomanager.Messages().DeleteDirect(ctx, userID, otherID)
	if err != nil {
		return 0, internal(ctx, s.log, "delete chats", err)
	}

	payload := ChatsDeleted{UserID: userID, OtherUserID: otherID}
	s.notifier.DeliverToUser(otherID, protocol.EventChatsDeleted, payload)
	s.notifier.DeliverToUser(userID, protocol.EventChatsDeleted, payload)
	return n, nil
}

func (s *MessageService) checkDirect(ctx context.Context, a, b string, blocked error) error {
	if !validIDs(a, b) {
		return errInvalidUserIDs
	}
	users := s.repomanager.Users()
	for _, id := range []string{a, b} {
		if _, err := users.GetByID(ctx, id); err != nil {
			return notFoundAs(err, errUserNotFound)
		}
	}
	isBlocked, err := s.repomanager.Social().IsBlocked(ctx, a, b)
	if err != nil {
		return err
	}
	if isBlocked {
		return blocked
	}
	return nil
}

func (s *MessageService) memberGroup(ctx context.Context, userID, groupID string) (*models.Group, error) {
	if !validIDs(groupID) {
		return nil, errInvalidGroupID
	}
	group, err := s.repomanager.Groups().GetByID(ctx, groupID)
	if err != nil {
		return nil, notFoundAs(err, errGroupNotFound)
	}
	if !group.IsMember(userID) && !group.IsAdmin(userID) {
		return nil, errNotGroupMember
	}
	return group, nil
}

func (s *MessageService) store(ctx context.Context, msg *models.Message, c Content) (*models.Message, error) {
	file, err := s.blobs.Put(ctx, "chat_files", c.File)
	if err != nil {
		return nil, err
	}
	msg.Text = c.Text
	msg.File = file.URL
	msg.FileType = file.MediaType
	return s.repomanager.Messages().Create(ctx, msg)
}

// participants lists members and admins once each.
func participants(g *models.Group) []string {
	seen := make(map[string]struct{}, len(g.Members)+len(g.Admins))
	ids := make([]string, 0, len(g.Members)+len(g.Admins))
	for _, list := range [][]string{g.Members, g.Admins} {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}
