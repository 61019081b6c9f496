package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/dmitrijs2005/chitchat/internal/client/client"
	"github.com/dmitrijs2005/chitchat/internal/client/config"
	"github.com/dmitrijs2005/chitchat/internal/client/models"
	"github.com/dmitrijs2005/chitchat/internal/client/store"
	"github.com/dmitrijs2005/chitchat/internal/filex"
	"github.com/dmitrijs2005/chitchat/internal/protocol"
)

const sessionFile = "session.db"

// sessionStore persists the login between runs.
type sessionStore interface {
	LoadSession(ctx context.Context) (*models.Session, error)
	SaveSession(ctx context.Context, sess models.Session) error
	ClearSession(ctx context.Context) error
	Close() error
}

// dial is a test seam for client.Dial.
var dial = func(ctx context.Context, serverURL, token, event string) (client.Client, error) {
	return client.Dial(ctx, serverURL, token, event)
}

type App struct {
	config   *config.Config
	reader   *bufio.Reader
	sessions sessionStore // nil disables persistence

	outMu sync.Mutex
	out   io.Writer

	mu      sync.Mutex
	conn    client.Client
	user    *models.User
	friends map[string]string // id -> name, for rendering pushes
}

// NewApp prepares the data directory and opens the saved-session store.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	dir, err := filex.EnsureDir(c.DataDir)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, filepath.Join(dir, sessionFile))
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	return &App{
		config:   c,
		reader:   bufio.NewReader(os.Stdin),
		sessions: st,
		out:      os.Stdout,
		friends:  map[string]string{},
	}, nil
}

// Run starts the REPL and blocks until the user exits.
func (a *App) Run(ctx context.Context) {
	defer func() {
		a.disconnect()
		if a.sessions != nil {
			_ = a.sessions.Close()
		}
	}()

	a.printf("Welcome to ChitChat CLI (type 'help' for commands)\n")
	a.restore(ctx)
	runREPL(ctx, a, a.getStatus, a.reader)
}

// restore reconnects with the saved session, forgetting it when the server
// no longer accepts the token.
func (a *App) restore(ctx context.Context) {
	if a.sessions == nil {
		return
	}
	sess, err := a.sessions.LoadSession(ctx)
	if err != nil || sess == nil {
		return
	}

	if err := a.connect(ctx, *sess); err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			a.forget(ctx)
			a.printf("Saved session is no longer valid. Please login again.\n")
			return
		}
		a.printf("Could not restore session: %s\n", err.Error())
		return
	}

	var res struct {
		User models.User `json:"user"`
	}
	if err := a.request(ctx, protocol.EventCheckAuth, nil, &res); err != nil {
		a.disconnect()
		a.forget(ctx)
		a.printf("Saved session is no longer valid. Please login again.\n")
		return
	}

	a.mu.Lock()
	a.user = &res.User
	a.mu.Unlock()
	a.printf("Welcome back, %s\n", res.User.FullName)
}

func (a *App) save(ctx context.Context, sess models.Session) {
	if a.sessions == nil {
		return
	}
	if err := a.sessions.SaveSession(ctx, sess); err != nil {
		a.printf("Warning: session not saved: %s\n", err.Error())
	}
}

func (a *App) forget(ctx context.Context) {
	if a.sessions != nil {
		_ = a.sessions.ClearSession(ctx)
	}
}

// printf is safe to call from the push watcher.
func (a *App) printf(format string, args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) isLoggedIn() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.conn != nil
}

func (a *App) getStatus() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.user == nil {
		return ""
	}
	return fmt.Sprintf("(%s)", a.user.FullName)
}

// session returns the live connection or an error for commands that need one.
func (a *App) session() (client.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.conn == nil {
		return nil, errNotLoggedIn
	}
	return a.conn, nil
}

// request runs event on the authenticated connection with the configured
// timeout.
func (a *App) request(ctx context.Context, event string, req, resp any) error {
	conn, err := a.session()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout)
	defer cancel()
	return conn.Request(ctx, event, req, resp)
}

// bootstrap opens a short-lived anonymous connection for event, runs fn and
// closes it.
func (a *App) bootstrap(ctx context.Context, event string, fn func(c client.Client) error) error {
	c, err := dial(ctx, a.config.ServerURL, "", event)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(c)
}

// connect opens the authenticated connection for sess and starts the push
// watcher.
func (a *App) connect(ctx context.Context, sess models.Session) error {
	conn, err := dial(ctx, a.config.ServerURL, sess.Token, "")
	if err != nil {
		return err
	}

	a.mu.Lock()
	if a.conn != nil {
		_ = a.conn.Close()
	}
	a.conn = conn
	a.user = &sess.User
	a.mu.Unlock()

	go a.watchPushes(conn)
	return nil
}

// disconnect drops the session; it is a no-op when logged out.
func (a *App) disconnect() {
	a.mu.Lock()
	conn := a.conn
	a.conn, a.user = nil, nil
	a.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

// dropIfCurrent clears the session only if conn is still the live one.
func (a *App) dropIfCurrent(conn client.Client) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.conn != conn {
		return false
	}
	a.conn, a.user = nil, nil
	return true
}

func (a *App) watchPushes(conn client.Client) {
	for {
		select {
		case f := <-conn.Pushes():
			a.renderPush(conn, f)
		case <-conn.Done():
			if a.dropIfCurrent(conn) {
				a.printf("\nDisconnected from server. Please login again.\n")
			}
			return
		}
	}
}

func (a *App) nameOf(id string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if n, ok := a.friends[id]; ok {
		return n
	}
	return id
}

func (a *App) remember(users []models.User) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, u := range users {
		a.friends[u.ID] = u.FullName
	}
}

func (a *App) renderPush(conn client.Client, f protocol.Frame) {
	switch f.Event {
	case protocol.EventNewMessage, protocol.EventNewGroupMessage:
		var m models.Message
		if json.Unmarshal(f.Data, &m) != nil {
			return
		}
		a.mu.Lock()
		self := a.user != nil && a.user.ID == m.SenderID
		a.mu.Unlock()
		if self {
			return
		}
		where := ""
		if m.GroupID != "" {
			where = " in group " + m.GroupID
		}
		a.printf("\n[%s%s] %s\n", a.nameOf(m.SenderID), where, messageBody(m))

	case protocol.EventForceLogout:
		var p struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(f.Data, &p)
		if a.dropIfCurrent(conn) {
			a.forget(context.Background())
			a.printf("\n%s\n", p.Message)
		}

	case protocol.EventFriendRequestReceived:
		var p struct {
			FromUserID string `json:"fromUserId"`
			Username   string `json:"username"`
		}
		if json.Unmarshal(f.Data, &p) == nil {
			a.printf("\nFriend request from %s (%s). Use 'accept %s'.\n", p.Username, p.FromUserID, p.FromUserID)
		}

	case protocol.EventFriendRequestAccepted:
		var p struct {
			UserID   string `json:"userId"`
			Username string `json:"username"`
		}
		if json.Unmarshal(f.Data, &p) == nil {
			a.remember([]models.User{{ID: p.UserID, FullName: p.Username}})
			a.printf("\n%s accepted your friend request.\n", p.Username)
		}

	case protocol.EventFriendRemoved:
		var p struct {
			UserID string `json:"userId"`
		}
		if json.Unmarshal(f.Data, &p) == nil {
			a.printf("\n%s removed you from friends.\n", a.nameOf(p.UserID))
		}

	case protocol.EventChatsDeleted:
		var p struct {
			UserID string `json:"userId"`
		}
		if json.Unmarshal(f.Data, &p) == nil {
			a.printf("\nConversation deleted by %s.\n", a.nameOf(p.UserID))
		}
	}
}

func messageBody(m models.Message) string {
	switch {
	case m.Text != "" && m.File != "":
		return m.Text + " [" + m.File + "]"
	case m.File != "":
		return "[" + m.File + "]"
	default:
		return m.Text
	}
}
