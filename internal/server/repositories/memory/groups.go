package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/chitchat/internal/common"
	"github.com/dmitrijs2005/chitchat/internal/server/models"
	"github.com/google/uuid"
)

type groupsRepo struct {
	m *Manager
}

func (r *groupsRepo) Create(_ context.Context, g *models.Group) (*models.Group, error) {
	defer r.m.lock()()
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	g.UpdatedAt = g.CreatedAt
	r.m.st.groups[g.ID] = cloneGroup(g)
	return g, nil
}

func (r *groupsRepo) GetByID(_ context.Context, id string) (*models.Group, error) {
	defer r.m.lock()()
	g, ok := r.m.st.groups[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneGroup(g), nil
}

func (r *groupsRepo) Update(_ context.Context, g *models.Group) error {
	defer r.m.lock()()
	if _, ok := r.m.st.groups[g.ID]; !ok {
		return common.ErrorNotFound
	}
	g.UpdatedAt = time.Now().UTC()
	r.m.st.groups[g.ID] = cloneGroup(g)
	return nil
}

func (r *groupsRepo) Delete(_ context.Context, id string) error {
	defer r.m.lock()()
	st := &r.m.st
	if _, ok := st.groups[id]; !ok {
		return common.ErrorNotFound
	}
	delete(st.groups, id)
	st.messages = slices.DeleteFunc(st.messages, func(m models.Message) bool { return m.GroupID == id })
	return nil
}

func (r *groupsRepo) list(keep func(g *models.Group) bool) []models.Group {
	defer r.m.lock()()
	res := make([]models.Group, 0)
	for _, g := range r.m.st.groups {
		if keep(g) {
			res = append(res, *cloneGroup(g))
		}
	}
	slices.SortFunc(res, func(a, b models.Group) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return res
}

func (r *groupsRepo) List(context.Context) ([]models.Group, error) {
	return r.list(func(*models.Group) bool { return true }), nil
}

func (r *groupsRepo) ListForUser(_ context.Context, userID string) ([]models.Group, error) {
	return r.list(func(g *models.Group) bool { return g.IsMember(userID) || g.IsAdmin(userID) }), nil
}
