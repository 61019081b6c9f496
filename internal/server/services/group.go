package services

import (
	"context"
	"slices"
	"strings"

	"github.com/dmitrijs2005/chitchat/internal/common"
	"github.com/dmitrijs2005/chitchat/internal/logging"
	"github.com/dmitrijs2005/chitchat/internal/server/blob"
	"github.com/dmitrijs2005/chitchat/internal/server/models"
	"github.com/dmitrijs2005/chitchat/internal/server/repositories/repomanager"
)

// GroupInput carries createGroup fields. Image is a data URL or hosted URL.
type GroupInput struct {
	Name        string
	Description string
	Image       string
	Members     []string
	Admins      []string
}

// GroupUpdate carries updateGroup fields; nil fields are left unchanged.
type GroupUpdate struct {
	Name        *string
	Description *string
	Image       string
	Members     []string
	Admins      []string
}

// LeaveResult reports whether leaving removed the group.
type LeaveResult struct {
	Deleted bool
}

var (
	errGroupName      = common.NewError(common.ErrorValidation, "Group name is required")
	errGroupNoMembers = common.NewError(common.ErrorValidation, "Group must have at least one member")
	errNotGroupAdmin  = common.NewError(common.ErrorForbidden, "Only group admins can do this")
)

// GroupService manages chat groups. The creator becomes a member and an
// admin; when the last admin leaves, the first remaining member is
// promoted; a group left without members is deleted.
type GroupService struct {
	repomanager repomanager.RepositoryManager
	blobs       blob.Store
	log         logging.Logger
}

func NewGroupService(m repomanager.RepositoryManager, blobs blob.Store, log logging.Logger) *GroupService {
	return &GroupService{
		repomanager: m,
		blobs:       blobs,
		log:         log.With("module", "groups"),
	}
}

func (s *GroupService) Create(ctx context.Context, creatorID string, in GroupInput) (*models.Group, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, errGroupName
	}
	members := uniqueIDs(append([]string{creatorID}, in.Members...))
	admins := uniqueIDs(append([]string{creatorID}, in.Admins...))
	if err := s.checkUsers(ctx, members, admins); err != nil {
		return nil, internal(ctx, s.log, "create group", err)
	}

	img, err := s.blobs.Put(ctx, "group_pics", in.Image)
	if err != nil {
		return nil, internal(ctx, s.log, "create group", err)
	}

	g := &models.Group{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Image:       img.URL,
		Members:     members,
		Admins:      admins,
	}
	err = s.repomanager.RunInTx(ctx, func(ctx context.Context, r repomanager.Repos) error {
		var err error
		g, err = r.Groups().Create(ctx, g)
		return err
	})
	if err != nil {
		return nil, internal(ctx, s.log, "create group", err)
	}
	return g, nil
}

// Update applies changes requested by an admin.
func (s *GroupService) Update(ctx context.Context, userID, groupID string, up GroupUpdate) (*models.Group, error) {
	g, err := s.adminGroup(ctx, userID, groupID)
	if err != nil {
		return nil, internal(ctx, s.log, "update group", err)
	}

	if up.Name != nil {
		name := strings.TrimSpace(*up.Name)
		if name == "" {
			return nil, errGroupName
		}
		g.Name = name
	}
	if up.Description != nil {
		g.Description = strings.TrimSpace(*up.Description)
	}
	if up.Members != nil {
		g.Members = uniqueIDs(up.Members)
		if len(g.Members) == 0 {
			return nil, errGroupNoMembers
		}
	}
	if up.Admins != nil {
		g.Admins = uniqueIDs(up.Admins)
	}
	if len(g.Admins) == 0 && len(g.Members) > 0 {
		g.Admins = []string{g.Members[0]}
	}
	if err := s.checkUsers(ctx, g.Members, g.Admins); err != nil {
		return nil, internal(ctx, s.log, "update group", err)
	}
	if up.Image != "" {
		img, err := s.blobs.Put(ctx, "group_pics", up.Image)
		if err != nil {
			return nil, internal(ctx, s.log, "update group", err)
		}
		g.Image = img.URL
	}

	err = s.repomanager.RunInTx(ctx, func(ctx context.Context, r repomanager.Repos) error {
		return r.Groups().Update(ctx, g)
	})
	if err != nil {
		return nil, internal(ctx, s.log, "update group", notFoundAs(err, errGroupNotFound))
	}
	return g, nil
}

// Delete removes the group and its messages. Admins only.
func (s *GroupService) Delete(ctx context.Context, userID, groupID string) error {
	if _, err := s.adminGroup(ctx, userID, groupID); err != nil {
		return internal(ctx, s.log, "delete group", err)
	}
	if err := s.repomanager.Groups().Delete(ctx, groupID); err != nil {
		return internal(ctx, s.log, "delete group", notFoundAs(err, errGroupNotFound))
	}
	return nil
}

func (s *GroupService) Get(ctx context.Context, groupID string) (*models.Group, error) {
	if !validIDs(groupID) {
		return nil, errInvalidGroupID
	}
	g, err := s.repomanager.Groups().GetByID(ctx, groupID)
	if err != nil {
		return nil, internal(ctx, s.log, "get group", notFoundAs(err, errGroupNotFound))
	}
	return g, nil
}

func (s *GroupService) List(ctx context.Context) ([]models.Group, error) {
	groups, err := s.repomanager.Groups().List(ctx)
	if err != nil {
		return nil, internal(ctx, s.log, "list groups", err)
	}
	return groups, nil
}

// ListForUser returns groups where userID is a member or an admin.
func (s *GroupService) ListForUser(ctx context.Context, userID string) ([]models.Group, error) {
	groups, err := s.repomanager.Groups().ListForUser(ctx, userID)
	if err != nil {
		return nil, internal(ctx, s.log, "list user groups", err)
	}
	return groups, nil
}

// Leave removes userID from the group in one transaction.
func (s *GroupService) Leave(ctx context.Context, userID, groupID string) (LeaveResult, error) {
	if !validIDs(groupID) {
		return LeaveResult{}, errInvalidGroupID
	}

	var res LeaveResult
	err := s.repomanager.RunInTx(ctx, func(ctx context.Context, r repomanager.Repos) error {
		g, err := r.Groups().GetByID(ctx, groupID)
		if err != nil {
			return notFoundAs(err, errGroupNotFound)
		}
		if !g.IsMember(userID) && !g.IsAdmin(userID) {
			return errNotGroupMember
		}

		g.Members = slices.DeleteFunc(g.Members, func(id string) bool { return id == userID })
		g.Admins = slices.DeleteFunc(g.Admins, func(id string) bool { return id == userID })

		if len(g.Members) == 0 {
			res.Deleted = true
			return r.Groups().Delete(ctx, groupID)
		}
		if len(g.Admins) == 0 {
			g.Admins = []string{g.Members[0]}
		}
		return r.Groups().Update(ctx, g)
	})
	if err != nil {
		return LeaveResult{}, internal(ctx, s.log, "leave group", err)
	}
	return res, nil
}

func (s *GroupService) adminGroup(ctx context.Context, userID, groupID string) (*models.Group, error) {
	if !validIDs(groupID) {
		return nil, errInvalidGroupID
	}
	g, err := s.repomanager.Groups().GetByID(ctx, groupID)
	if err != nil {
		return nil, notFoundAs(err, errGroupNotFound)
	}
	if !g.IsAdmin(userID) {
		return nil, errNotGroupAdmin
	}
	return g, nil
}

func (s *GroupService) checkUsers(ctx context.Context, lists ...[]string) error {
	repo := s.repomanager.Users()
	for _, id := range uniqueIDs(slices.Concat(lists...)) {
		if !validIDs(id) {
			return errInvalidUserIDs
		}
		if _, err := repo.GetByID(ctx, id); err != nil {
			return notFoundAs(err, errUserNotFound)
		}
	}
	return nil
}

// uniqueIDs drops blanks and duplicates, keeping first occurrences.
func uniqueIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
