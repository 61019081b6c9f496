package memory

import (
	"context"
	"slices"

	"github.com/dmitrijs2005/chitchat/internal/common"
	"github.com/dmitrijs2005/chitchat/internal/server/models"
)

type socialRepo struct {
	m *Manager
}

func (r *socialRepo) AddRequest(_ context.Context, fromID, toID string) error {
	defer r.m.lock()()
	st := &r.m.st
	k := pair{fromID, toID}
	if _, ok := st.requests[k]; ok {
		return common.ErrorAlreadyExists
	}
	st.requests[k] = st.next()
	return nil
}

func (r *socialRepo) DeleteRequest(_ context.Context, fromID, toID string) (bool, error) {
	defer r.m.lock()()
	k := pair{fromID, toID}
	_, ok := r.m.st.requests[k]
	delete(r.m.st.requests, k)
	return ok, nil
}

func (r *socialRepo) RequestExists(_ context.Context, fromID, toID string) (bool, error) {
	defer r.m.lock()()
	_, ok := r.m.st.requests[pair{fromID, toID}]
	return ok, nil
}

type seqUser struct {
	seq  int64
	user models.PublicUser
}

func (r *socialRepo) listRequests(match func(k pair) (string, bool)) []models.PublicUser {
	defer r.m.lock()()
	st := &r.m.st

	tmp := make([]seqUser, 0)
	for k, seq := range st.requests {
		id, ok := match(k)
		if !ok {
			continue
		}
		if u, ok := st.users[id]; ok {
			tmp = append(tmp, seqUser{seq: seq, user: u.Public()})
		}
	}
	slices.SortFunc(tmp, func(a, b seqUser) int { return int(a.seq - b.seq) })

	res := make([]models.PublicUser, 0, len(tmp))
	for _, t := range tmp {
		res = append(res, t.user)
	}
	return res
}

func (r *socialRepo) ListIncoming(_ context.Context, userID string) ([]models.PublicUser, error) {
	return r.listRequests(func(k pair) (string, bool) { return k.a, k.b == userID }), nil
}

func (r *socialRepo) ListOutgoing(_ context.Context, userID string) ([]models.PublicUser, error) {
	return r.listRequests(func(k pair) (string, bool) { return k.b, k.a == userID }), nil
}

func (r *socialRepo) AddFriendship(_ context.Context, a, b string) error {
	defer r.m.lock()()
	st := &r.m.st
	if _, ok := st.friends[pair{a, b}]; ok {
		return common.ErrorAlreadyExists
	}
	seq := st.next()
	st.friends[pair{a, b}] = seq
	st.friends[pair{b, a}] = seq
	return nil
}

func (r *socialRepo) DeleteFriendship(_ context.Context, a, b string) (bool, error) {
	defer r.m.lock()()
	st := &r.m.st
	_, ok1 := st.friends[pair{a, b}]
	_, ok2 := st.friends[pair{b, a}]
	delete(st.friends, pair{a, b})
	delete(st.friends, pair{b, a})
	return ok1 || ok2, nil
}

func (r *socialRepo) AreFriends(_ context.Context, a, b string) (bool, error) {
	defer r.m.lock()()
	_, ok := r.m.st.friends[pair{a, b}]
	return ok, nil
}

func (r *socialRepo) listFriends(userID string, keep func(u *models.User) bool) []models.PublicUser {
	defer r.m.lock()()
	st := &r.m.st

	res := make([]models.PublicUser, 0)
	for k := range st.friends {
		if k.a != userID {
			continue
		}
		if u, ok := st.users[k.b]; ok && keep(u) {
			res = append(res, u.Public())
		}
	}
	sortPublic(res)
	return res
}

func (r *socialRepo) ListFriends(_ context.Context, userID string) ([]models.PublicUser, error) {
	return r.listFriends(userID, func(*models.User) bool { return true }), nil
}

func (r *socialRepo) ListFriendsBelow(_ context.Context, userID string, threshold int) ([]models.PublicUser, error) {
	return r.listFriends(userID, func(u *models.User) bool { return u.BlockedByCount < threshold }), nil
}

func (r *socialRepo) Block(_ context.Context, userID, targetID string) error {
	defer r.m.lock()()
	r.m.st.blocks[pair{userID, targetID}] = struct{}{}
	return nil
}

func (r *socialRepo) Unblock(_ context.Context, userID, targetID string) error {
	defer r.m.lock()()
	delete(r.m.st.blocks, pair{userID, targetID})
	return nil
}

func (r *socialRepo) IsBlocked(_ context.Context, a, b string) (bool, error) {
	defer r.m.lock()()
	_, ab := r.m.st.blocks[pair{a, b}]
	_, ba := r.m.st.blocks[pair{b, a}]
	return ab || ba, nil
}
