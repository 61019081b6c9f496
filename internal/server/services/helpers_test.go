package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/chitchat/internal/logging"
	"github.com/dmitrijs2005/chitchat/internal/server/auth"
	"github.com/dmitrijs2005/chitchat/internal/server/blob"
	"github.com/dmitrijs2005/chitchat/internal/server/config"
	"github.com/dmitrijs2005/chitchat/internal/server/models"
	"github.com/dmitrijs2005/chitchat/internal/server/repositories/memory"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	bcryptCost = bcrypt.MinCost
}

type pushed struct {
	UserID  string
	Event   string
	Payload any
}

// fakeNotifier records deliveries; only users in online receive them.
type fakeNotifier struct {
	mu        sync.Mutex
	online    map[string]bool
	delivered []pushed
	broadcast []pushed
}

func newFakeNotifier(online ...string) *fakeNotifier {
	n := &fakeNotifier{online: map[string]bool{}}
	for _, id := range online {
		n.online[id] = true
	}
	return n
}

func (n *fakeNotifier) DeliverToUser(userID, event string, payload any) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.online[userID] {
		return false
	}
	n.delivered = append(n.delivered, pushed{UserID: userID, Event: event, Payload: payload})
	return true
}

func (n *fakeNotifier) Broadcast(event string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.broadcast = append(n.broadcast, pushed{Event: event, Payload: payload})
}

func (n *fakeNotifier) IsOnline(userID string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.online[userID]
}

func (n *fakeNotifier) eventsFor(userID string) []pushed {
	n.mu.Lock()
	defer n.mu.Unlock()
	var res []pushed
	for _, p := range n.delivered {
		if p.UserID == userID {
			res = append(res, p)
		}
	}
	return res
}

type sentMail struct {
	To, Subject, Body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return m.err
}

type fakeBlobs struct {
	prefixes []string
	err      error
}

func (b *fakeBlobs) Put(_ context.Context, prefix, ref string) (blob.Object, error) {
	if b.err != nil {
		return blob.Object{}, b.err
	}
	if ref == "" {
		return blob.Object{}, nil
	}
	b.prefixes = append(b.prefixes, prefix)
	return blob.Object{URL: "https://cdn.test/" + prefix + "/obj", MediaType: models.FileTypeImage}, nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	return cfg
}

type env struct {
	repos    *memory.Manager
	notifier *fakeNotifier
	mailer   *fakeMailer
	blobs    *fakeBlobs
	auth     *auth.Authenticator
	cfg      *config.Config

	users    *UserService
	social   *SocialService
	messages *MessageService
	groups   *GroupService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		repos:    memory.NewManager(),
		notifier: newFakeNotifier(),
		mailer:   &fakeMailer{},
		blobs:    &fakeBlobs{},
		cfg:      testConfig(),
	}
	e.auth = auth.NewAuthenticator(e.cfg.SecretKey, time.Hour)
	log := logging.Nop{}
	e.users = NewUserService(e.repos, e.auth, e.mailer, e.blobs, e.cfg, log)
	e.social = NewSocialService(e.repos, e.notifier, e.notifier, e.cfg.RestrictionThreshold, log)
	e.messages = NewMessageService(e.repos, e.blobs, e.notifier, log)
	e.groups = NewGroupService(e.repos, e.blobs, log)
	return e
}

// addUser stores a verified user with password "password1".
func (e *env) addUser(t *testing.T, name string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password1"), bcrypt.MinCost)
	require.NoError(t, err)
	u, err := e.repos.Users().Create(context.Background(), &models.User{
		Name:         name,
		Email:        name + "@example.com",
		PasswordHash: string(hash),
		IsVerified:   true,
	})
	require.NoError(t, err)
	return u
}

func (e *env) online(ids ...string) {
	e.notifier.mu.Lock()
	defer e.notifier.mu.Unlock()
	for _, id := range ids {
		e.notifier.online[id] = true
	}
}

func (e *env) befriend(t *testing.T, a, b string) {
	t.Helper()
	require.NoError(t, e.repos.Social().AddFriendship(context.Background(), a, b))
}
