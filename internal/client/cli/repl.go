package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

type command func(ctx context.Context, args []string) error

// execIface defines the command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	ResetPassword(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error

	Users(ctx context.Context, args []string) error
	Friends(ctx context.Context, args []string) error
	Online(ctx context.Context, args []string) error
	Requests(ctx context.Context, args []string) error
	AddFriend(ctx context.Context, args []string) error
	Accept(ctx context.Context, args []string) error
	Reject(ctx context.Context, args []string) error
	Unfriend(ctx context.Context, args []string) error
	Block(ctx context.Context, args []string) error
	Unblock(ctx context.Context, args []string) error
	Send(ctx context.Context, args []string) error
	History(ctx context.Context, args []string) error
	Groups(ctx context.Context, args []string) error
	CreateGroup(ctx context.Context, args []string) error
	SendGroup(ctx context.Context, args []string) error
	GroupHistory(ctx context.Context, args []string) error
	LeaveGroup(ctx context.Context, args []string) error
}

func sessionCommands(a execIface) map[string]command {
	return map[string]command{
		"users":    a.Users,
		"friends":  a.Friends,
		"online":   a.Online,
		"requests": a.Requests,
		"add":      a.AddFriend,
		"accept":   a.Accept,
		"reject":   a.Reject,
		"unfriend": a.Unfriend,
		"block":    a.Block,
		"unblock":  a.Unblock,
		"send":     a.Send,
		"history":  a.History,
		"groups":   a.Groups,
		"mkgroup":  a.CreateGroup,
		"gsend":    a.SendGroup,
		"ghistory": a.GroupHistory,
		"leave":    a.LeaveGroup,
	}
}

// runREPL starts a read–eval–print loop for the ChitChat CLI.
//
// It reads a line from reader (shared with the input prompts), parses the first token as the
// command, and dispatches to methods on 'a'. The loop exits on EOF
// or when the user types "exit" or "quit".
//
//	Not logged in: help, register, login, reset, exit
//	Logged in:     help, users, friends, online, requests, add, accept,
//	               reject, unfriend, block, unblock, send, history, groups,
//	               mkgroup, gsend, ghistory, leave, whoami, logout, exit
//
// Errors returned by command handlers are ignored here; handlers print
// their own errors.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	cmds := sessionCommands(a)

	for {
		printlnFn(fmt.Sprintf("chat%s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: users, friends, online, requests, add, accept, reject, unfriend, " +
					"block, unblock, send, history, groups, mkgroup, gsend, ghistory, leave, whoami, logout, exit")
			} else {
				printlnFn("Available commands: register, login, reset, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "reset":
			_ = a.ResetPassword(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "whoami":
			_ = a.WhoAmI(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			run, ok := cmds[cmd]
			switch {
			case !ok:
				printlnFn("Unknown command:", cmd)
			case !a.isLoggedIn():
				printlnFn("Please login first")
			default:
				_ = run(ctx, args)
			}
		}
	}
}
