package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/chitchat/internal/common"
	"github.com/dmitrijs2005/chitchat/internal/logging"
	"github.com/google/uuid"
)

var (
	errUserNotFound    = common.NewError(common.ErrorNotFound, "User not found")
	errGroupNotFound   = common.NewError(common.ErrorNotFound, "Group not found")
	errInvalidUserIDs  = common.NewError(common.ErrorValidation, "Invalid user IDs")
	errInvalidGroupID  = common.NewError(common.ErrorValidation, "Invalid group ID")
	errNotGroupMember  = common.NewError(common.ErrorForbidden, "User is not a member or admin of this group")
	errFieldsRequired  = common.NewError(common.ErrorValidation, "All fields are required")
	errInvalidOTP      = common.NewError(common.ErrorValidation, "Invalid or expired OTP")
	errAlreadyVerified = common.NewError(common.ErrorValidation, "User already verified")
)

// internal hides unexpected failures behind common.ErrorInternal after
// logging them. Errors that already carry a client message pass through.
func internal(ctx context.Context, log logging.Logger, op string, err error) error {
	var e *common.Error
	if errors.As(err, &e) {
		return err
	}
	log.Error(ctx, op+" failed", "error", err)
	return common.ErrorInternal
}

// notFoundAs replaces a repository ErrorNotFound with the given
// client-facing error.
func notFoundAs(err, with error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return with
	}
	return err
}

func validIDs(ids ...string) bool {
	for _, id := range ids {
		if uuid.Validate(id) != nil {
			return false
		}
	}
	return true
}
