package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/chitchat/internal/client/models"
	"github.com/dmitrijs2005/chitchat/internal/filex"
	"github.com/dmitrijs2005/chitchat/internal/protocol"
)

var errUsage = errors.New("usage error")

// dataURL is a test seam for filex.DataURL.
var dataURL = filex.DataURL

// needArg prints usage when args is empty.
func (a *App) needArg(args []string, usage string) (string, error) {
	if len(args) == 0 {
		a.printf("Usage: %s\n", usage)
		return "", errUsage
	}
	return args[0], nil
}

func (a *App) printUsers(users []models.User) {
	a.remember(users)
	if len(users) == 0 {
		a.printf("(none)\n")
		return
	}
	for _, u := range users {
		a.printf("  %s  %s <%s>\n", u.ID, u.FullName, u.Email)
	}
}

// Users lists everybody the caller can start a chat with.
func (a *App) Users(ctx context.Context, _ []string) error {
	var res struct {
		Users []models.User `json:"users"`
	}
	if err := a.request(ctx, protocol.EventGetUsersForSidebar, nil, &res); err != nil {
		return a.fail(err)
	}
	a.printUsers(res.Users)
	return nil
}

func (a *App) Friends(ctx context.Context, _ []string) error {
	var res struct {
		Friends []models.User `json:"friends"`
	}
	if err := a.request(ctx, protocol.EventGetFriends, nil, &res); err != nil {
		return a.fail(err)
	}
	a.printUsers(res.Friends)
	return nil
}

func (a *App) Online(ctx context.Context, _ []string) error {
	var res struct {
		Friends []models.User `json:"friends"`
	}
	if err := a.request(ctx, protocol.EventGetOnlineFriends, nil, &res); err != nil {
		return a.fail(err)
	}
	a.printUsers(res.Friends)
	return nil
}

func (a *App) Requests(ctx context.Context, _ []string) error {
	var res struct {
		Requests models.FriendRequests `json:"requests"`
	}
	if err := a.request(ctx, protocol.EventGetFriendRequests, nil, &res); err != nil {
		return a.fail(err)
	}
	a.printf("Incoming:\n")
	a.printUsers(res.Requests.Incoming)
	a.printf("Outgoing:\n")
	a.printUsers(res.Requests.Outgoing)
	return nil
}

// AddFriend toggles a friend request to the given user.
func (a *App) AddFriend(ctx context.Context, args []string) error {
	id, err := a.needArg(args, "add <userId>")
	if err != nil {
		return err
	}
	var res struct {
		Message string `json:"message"`
	}
	if err := a.request(ctx, protocol.EventToggleFriendRequest, protocol.FriendRequest{ToUserID: id}, &res); err != nil {
		return a.fail(err)
	}
	a.printf("%s\n", res.Message)
	return nil
}

func (a *App) Accept(ctx context.Context, args []string) error {
	return a.answer(ctx, args, protocol.EventAcceptFriendRequest, "accept <userId>")
}

func (a *App) Reject(ctx context.Context, args []string) error {
	return a.answer(ctx, args, protocol.EventRejectFriendRequest, "reject <userId>")
}

func (a *App) answer(ctx context.Context, args []string, event, usage string) error {
	id, err := a.needArg(args, usage)
	if err != nil {
		return err
	}
	var res struct {
		Message string `json:"message"`
	}
	if err := a.request(ctx, event, protocol.FriendAnswerRequest{RequesterID: id}, &res); err != nil {
		return a.fail(err)
	}
	a.printf("%s\n", res.Message)
	return nil
}

func (a *App) Unfriend(ctx context.Context, args []string) error {
	id, err := a.needArg(args, "unfriend <userId>")
	if err != nil {
		return err
	}
	if err := a.request(ctx, protocol.EventUnfriendUser, protocol.UnfriendRequest{FriendID: id}, nil); err != nil {
		return a.fail(err)
	}
	a.printf("Friend removed\n")
	return nil
}

func (a *App) Block(ctx context.Context, args []string) error {
	id, err := a.needArg(args, "block <userId>")
	if err != nil {
		return err
	}
	if err := a.request(ctx, protocol.EventBlockUser, protocol.BlockRequest{BlockUserID: id}, nil); err != nil {
		return a.fail(err)
	}
	a.printf("User blocked\n")
	return nil
}

func (a *App) Unblock(ctx context.Context, args []string) error {
	id, err := a.needArg(args, "unblock <userId>")
	if err != nil {
		return err
	}
	if err := a.request(ctx, protocol.EventUnblockUser, protocol.BlockRequest{UnblockUserID: id}, nil); err != nil {
		return a.fail(err)
	}
	a.printf("User unblocked\n")
	return nil
}

// compose reads the message text and the optional attachment named by
// args[1]. It reports ok=false when there is nothing to send.
func (a *App) compose(args []string) (text, file string, ok bool, err error) {
	if len(args) > 1 {
		if file, err = dataURL(args[1]); err != nil {
			a.printf("Error: %s\n", err.Error())
			return "", "", false, err
		}
	}
	if text, err = getMultiline(a.reader, "Message", a.out); err != nil {
		return "", "", false, err
	}
	if text == "" && file == "" {
		a.printf("Nothing to send\n")
		return "", "", false, nil
	}
	return text, file, true, nil
}

// Send prompts for a message and sends it to a user, optionally with a
// file attached.
func (a *App) Send(ctx context.Context, args []string) error {
	id, err := a.needArg(args, "send <userId> [file]")
	if err != nil {
		return err
	}
	text, file, ok, err := a.compose(args)
	if !ok {
		return err
	}
	req := protocol.SendMessageRequest{ReceiverID: id, Text: text, File: file}
	if err := a.request(ctx, protocol.EventSendMessage, req, nil); err != nil {
		return a.fail(err)
	}
	a.printf("Sent\n")
	return nil
}

func (a *App) SendGroup(ctx context.Context, args []string) error {
	id, err := a.needArg(args, "gsend <groupId> [file]")
	if err != nil {
		return err
	}
	text, file, ok, err := a.compose(args)
	if !ok {
		return err
	}
	req := protocol.SendGroupMessageRequest{GroupID: id, Text: text, File: file}
	if err := a.request(ctx, protocol.EventSendGroupMessage, req, nil); err != nil {
		return a.fail(err)
	}
	a.printf("Sent\n")
	return nil
}

// History prints the conversation with a user, oldest first.
func (a *App) History(ctx context.Context, args []string) error {
	id, err := a.needArg(args, "history <userId>")
	if err != nil {
		return err
	}
	var res struct {
		Messages []models.Message `json:"messages"`
	}
	if err := a.request(ctx, protocol.EventGetMessages, protocol.GetMessagesRequest{ReceiverID: id}, &res); err != nil {
		return a.fail(err)
	}
	a.printMessages(res.Messages)
	return nil
}

func (a *App) GroupHistory(ctx context.Context, args []string) error {
	id, err := a.needArg(args, "ghistory <groupId>")
	if err != nil {
		return err
	}
	var res struct {
		Messages []models.Message `json:"messages"`
	}
	if err := a.request(ctx, protocol.EventGetGroupMessages, protocol.GroupRequest{GroupID: id}, &res); err != nil {
		return a.fail(err)
	}
	a.printMessages(res.Messages)
	return nil
}

func (a *App) printMessages(msgs []models.Message) {
	if len(msgs) == 0 {
		a.printf("(no messages)\n")
		return
	}
	for _, m := range msgs {
		a.printf("  %s %s: %s\n", m.CreatedAt.Local().Format("2006-01-02 15:04"), a.nameOf(m.SenderID), messageBody(m))
	}
}

func (a *App) Groups(ctx context.Context, _ []string) error {
	var res struct {
		Groups []models.Group `json:"groups"`
	}
	if err := a.request(ctx, protocol.EventGetGroupsForSidebar, nil, &res); err != nil {
		return a.fail(err)
	}
	if len(res.Groups) == 0 {
		a.printf("(none)\n")
	}
	for _, g := range res.Groups {
		a.printf("  %s  %s (%d members)\n", g.ID, g.Name, len(g.Members))
	}
	return nil
}

// CreateGroup creates a group with the given member ids.
func (a *App) CreateGroup(ctx context.Context, args []string) error {
	name, err := a.needArg(args, "mkgroup <name> [memberId...]")
	if err != nil {
		return err
	}
	var res struct {
		Group models.Group `json:"group"`
	}
	req := protocol.CreateGroupRequest{Name: name, Members: args[1:]}
	if err := a.request(ctx, protocol.EventCreateGroup, req, &res); err != nil {
		return a.fail(err)
	}
	a.printf("Group %s created: %s\n", res.Group.Name, res.Group.ID)
	return nil
}

func (a *App) LeaveGroup(ctx context.Context, args []string) error {
	id, err := a.needArg(args, "leave <groupId>")
	if err != nil {
		return err
	}
	var res struct {
		Message string `json:"message"`
	}
	if err := a.request(ctx, protocol.EventLeaveGroup, protocol.GroupRequest{GroupID: id}, &res); err != nil {
		return a.fail(err)
	}
	a.printf("%s\n", res.Message)
	return nil
}
