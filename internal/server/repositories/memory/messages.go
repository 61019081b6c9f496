package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/chitchat/internal/server/models"
	"github.com/google/uuid"
)

type messagesRepo struct {
	m *Manager
}

func (r *messagesRepo) Create(_ context.Context, msg *models.Message) (*models.Message, error) {
	defer r.m.lock()()
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	r.m.st.messages = append(r.m.st.messages, *msg)
	return msg, nil
}

func isDirectBetween(m *models.Message, a, b string) bool {
	return (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
}

func (r *messagesRepo) list(keep func(m *models.Message) bool) []models.Message {
	defer r.m.lock()()
	res := make([]models.Message, 0)
	for i := range r.m.st.messages {
		if keep(&r.m.st.messages[i]) {
			res = append(res, r.m.st.messages[i])
		}
	}
	slices.SortStableFunc(res, func(a, b models.Message) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return res
}

func (r *messagesRepo) ListDirect(_ context.Context, a, b string) ([]models.Message, error) {
	return r.list(func(m *models.Message) bool { return isDirectBetween(m, a, b) }), nil
}

func (r *messagesRepo) ListGroup(_ context.Context, groupID string) ([]models.Message, error) {
	return r.list(func(m *models.Message) bool { return m.GroupID == groupID }), nil
}

func (r *messagesRepo) DeleteDirect(_ context.Context, a, b string) (int64, error) {
	defer r.m.lock()()
	before := len(r.m.st.messages)
	r.m.st.messages = slices.DeleteFunc(r.m.st.messages, func(m models.Message) bool {
		return isDirectBetween(&m, a, b)
	})
	return int64(before - len(r.m.st.messages)), nil
}
