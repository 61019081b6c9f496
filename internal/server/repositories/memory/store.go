// Package memory is a process-local RepositoryManager used when no database
// DSN is configured and by service tests. All repositories share one state
// guarded by a mutex; RunInTx serializes transactions and restores a
// snapshot when fn fails.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/dmitrijs2005/chitchat/internal/server/models"
	"github.com/dmitrijs2005/chitchat/internal/server/repositories/groups"
	"github.com/dmitrijs2005/chitchat/internal/server/repositories/messages"
	"github.com/dmitrijs2005/chitchat/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/chitchat/internal/server/repositories/social"
	"github.com/dmitrijs2005/chitchat/internal/server/repositories/users"
)

type pair struct {
	a, b string
}

type state struct {
	users    map[string]*models.User
	emails   map[string]string
	requests map[pair]int64
	friends  map[pair]int64
	blocks   map[pair]struct{}
	groups   map[string]*models.Group
	messages []models.Message
	seq      int64
}

func newState() state {
	return state{
		users:    map[string]*models.User{},
		emails:   map[string]string{},
		requests: map[pair]int64{},
		friends:  map[pair]int64{},
		blocks:   map[pair]struct{}{},
		groups:   map[string]*models.Group{},
	}
}

func (s *state) clone() state {
	c := state{
		users:    make(map[string]*models.User, len(s.users)),
		emails:   maps.Clone(s.emails),
		requests: maps.Clone(s.requests),
		friends:  maps.Clone(s.friends),
		blocks:   maps.Clone(s.blocks),
		groups:   make(map[string]*models.Group, len(s.groups)),
		messages: slices.Clone(s.messages),
		seq:      s.seq,
	}
	for id, u := range s.users {
		cp := *u
		c.users[id] = &cp
	}
	for id, g := range s.groups {
		c.groups[id] = cloneGroup(g)
	}
	return c
}

func (s *state) next() int64 {
	s.seq++
	return s.seq
}

func cloneGroup(g *models.Group) *models.Group {
	cp := *g
	cp.Members = slices.Clone(g.Members)
	cp.Admins = slices.Clone(g.Admins)
	if cp.Members == nil {
		cp.Members = []string{}
	}
	if cp.Admins == nil {
		cp.Admins = []string{}
	}
	return &cp
}

// Manager implements repomanager.RepositoryManager in memory.
type Manager struct {
	mu   sync.Mutex
	txMu sync.Mutex
	st   state

	users    *usersRepo
	social   *socialRepo
	groups   *groupsRepo
	messages *messagesRepo
}

func NewManager() *Manager {
	m := &Manager{st: newState()}
	m.users = &usersRepo{m: m}
	m.social = &socialRepo{m: m}
	m.groups = &groupsRepo{m: m}
	m.messages = &messagesRepo{m: m}
	return m
}

var _ repomanager.RepositoryManager = (*Manager)(nil)

func (m *Manager) Users() users.Repository       { return m.users }
func (m *Manager) Social() social.Repository     { return m.social }
func (m *Manager) Groups() groups.Repository     { return m.groups }
func (m *Manager) Messages() messages.Repository { return m.messages }

func (m *Manager) RunMigrations(context.Context) error { return nil }
func (m *Manager) Close() error                        { return nil }

// RunInTx runs fn against the shared repositories. On error or panic the
// state observed before fn is restored.
func (m *Manager) RunInTx(ctx context.Context, fn func(ctx context.Context, r repomanager.Repos) error) (err error) {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snapshot := m.st.clone()
	m.mu.Unlock()

	defer func() {
		if p := recover(); p != nil {
			m.restore(snapshot)
			panic(p)
		}
		if err != nil {
			m.restore(snapshot)
		}
	}()

	return fn(ctx, m)
}

func (m *Manager) restore(s state) {
	m.mu.Lock()
	m.st = s
	m.mu.Unlock()
}

func (m *Manager) lock() func() {
	m.mu.Lock()
	return m.mu.Unlock
}
