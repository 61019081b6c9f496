package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/chitchat/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateGroup(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a, b := e.addUser(t, "alice"), e.addUser(t, "bob")

	_, err := e.groups.Create(ctx, a.ID, GroupInput{Name: "  "})
	require.ErrorIs(t, err, common.ErrorValidation)

	_, err = e.groups.Create(ctx, a.ID, GroupInput{Name: "g", Members: []string{"nope"}})
	require.ErrorIs(t, err, common.ErrorValidation)

	g, err := e.groups.Create(ctx, a.ID, GroupInput{
		Name:    "Friends",
		Image:   "data:image/png;base64,AAAA",
		Members: []string{b.ID, b.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, b.ID}, g.Members)
	assert.Equal(t, []string{a.ID}, g.Admins)
	assert.Equal(t, "https://cdn.test/group_pics/obj", g.Image)

	got, err := e.groups.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "Friends", got.Name)

	_, err = e.groups.Get(ctx, "bad")
	require.ErrorIs(t, err, common.ErrorValidation)
	assert.Equal(t, "Invalid group ID", publicMsg(t, err))
}

func TestUpdateAndDeleteGroup_AdminOnly(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a, b := e.addUser(t, "alice"), e.addUser(t, "bob")
	g, err := e.groups.Create(ctx, a.ID, GroupInput{Name: "g", Members: []string{b.ID}})
	require.NoError(t, err)

	name := "renamed"
	_, err = e.groups.Update(ctx, b.ID, g.ID, GroupUpdate{Name: &name})
	require.ErrorIs(t, err, common.ErrorForbidden)

	up, err := e.groups.Update(ctx, a.ID, g.ID, GroupUpdate{Name: &name, Admins: []string{b.ID}})
	require.NoError(t, err)
	assert.Equal(t, "renamed", up.Name)
	assert.Equal(t, []string{b.ID}, up.Admins)

	_, err = e.groups.Update(ctx, b.ID, g.ID, GroupUpdate{Members: []string{}})
	require.ErrorIs(t, err, common.ErrorValidation)

	require.ErrorIs(t, e.groups.Delete(ctx, a.ID, g.ID), common.ErrorForbidden)
	require.NoError(t, e.groups.Delete(ctx, b.ID, g.ID))

	_, err = e.groups.Get(ctx, g.ID)
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestLeaveGroup_TransfersLeadership(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a, b, c := e.addUser(t, "alice"), e.addUser(t, "bob"), e.addUser(t, "carol")
	g, err := e.groups.Create(ctx, a.ID, GroupInput{Name: "g", Members: []string{b.ID, c.ID}})
	require.NoError(t, err)

	res, err := e.groups.Leave(ctx, a.ID, g.ID)
	require.NoError(t, err)
	assert.False(t, res.Deleted)

	got, err := e.groups.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID, c.ID}, got.Members)
	assert.Equal(t, []string{b.ID}, got.Admins)

	_, err = e.groups.Leave(ctx, a.ID, g.ID)
	require.ErrorIs(t, err, common.ErrorForbidden)
	assert.Equal(t, "User is not a member or admin of this group", publicMsg(t, err))
}

func TestLeaveGroup_LastMemberDeletes(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.addUser(t, "alice")
	g, err := e.groups.Create(ctx, a.ID, GroupInput{Name: "solo"})
	require.NoError(t, err)
	_, err = e.messages.SendGroup(ctx, a.ID, g.ID, Content{Text: "echo"})
	require.NoError(t, err)

	res, err := e.groups.Leave(ctx, a.ID, g.ID)
	require.NoError(t, err)
	assert.True(t, res.Deleted)

	_, err = e.groups.Get(ctx, g.ID)
	require.ErrorIs(t, err, common.ErrorNotFound)

	groups, err := e.groups.ListForUser(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestListGroups(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a, b := e.addUser(t, "alice"), e.addUser(t, "bob")
	_, err := e.groups.Create(ctx, a.ID, GroupInput{Name: "one"})
	require.NoError(t, err)
	_, err = e.groups.Create(ctx, b.ID, GroupInput{Name: "two", Admins: []string{a.ID}})
	require.NoError(t, err)

	all, err := e.groups.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := e.groups.ListForUser(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	theirs, err := e.groups.ListForUser(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, theirs, 1)
	assert.Equal(t, "two", theirs[0].Name)
}
