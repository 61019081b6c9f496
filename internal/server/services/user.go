// Package services contains server-side business logic. This file implements
// UserService, which handles registration with emailed one-time codes,
// login, the password reset flow and profile updates.
package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/chitchat/internal/common"
	"github.com/dmitrijs2005/chitchat/internal/logging"
	"github.com/dmitrijs2005/chitchat/internal/server/auth"
	"github.com/dmitrijs2005/chitchat/internal/server/blob"
	"github.com/dmitrijs2005/chitchat/internal/server/config"
	"github.com/dmitrijs2005/chitchat/internal/server/mail"
	"github.com/dmitrijs2005/chitchat/internal/server/models"
	"github.com/dmitrijs2005/chitchat/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/chitchat/internal/shared"
	"golang.org/x/crypto/bcrypt"
)

const otpDigits = 6

// bcryptCost is lowered in tests.
var bcryptCost = bcrypt.DefaultCost

// Session is returned by verifyOtp and login.
type Session struct {
	User  models.PublicUser `json:"user"`
	Token string            `json:"token"`
}

// UserService provides account operations:
// - Register, VerifyOTP, ResendOTP: the Unverified -> Verified lifecycle
// - Login: credential check and token issue
// - ForgotPassword, VerifyResetOTP, ResetPassword: password reset by code
type UserService struct {
	repomanager repomanager.RepositoryManager
	auth        *auth.Authenticator
	mailer      mail.Mailer
	blobs       blob.Store
	log         logging.Logger
	now         func() time.Time

	otpValidity          time.Duration
	resendLimit          int
	resendWindow         time.Duration
	minPasswordLength    int
	restrictionThreshold int
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(m repomanager.RepositoryManager, a *auth.Authenticator, mailer mail.Mailer,
	blobs blob.Store, cfg *config.Config, log logging.Logger) *UserService {
	return &UserService{
		repomanager:          m,
		auth:                 a,
		mailer:               mailer,
		blobs:                blobs,
		log:                  log.With("module", "users"),
		now:                  time.Now,
		otpValidity:          cfg.OTPValidityDuration,
		resendLimit:          cfg.OTPResendLimit,
		resendWindow:         cfg.OTPResendWindow,
		minPasswordLength:    cfg.MinPasswordLength,
		restrictionThreshold: cfg.RestrictionThreshold,
	}
}

// Register creates an unverified account and emails a verification code.
// No token is issued until the code is verified.
func (s *UserService) Register(ctx context.Context, name, email, password, profilePic string) (string, error) {
	name, email = strings.TrimSpace(name), normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return "", errFieldsRequired
	}
	if err := s.checkPassword(password); err != nil {
		return "", err
	}

	repo := s.repomanager.Users()
	if _, err := repo.GetByEmail(ctx, email); err == nil {
		return "", common.NewError(common.ErrorAlreadyExists, "User already exists")
	} else if !errors.Is(err, common.ErrorNotFound) {
		return "", internal(ctx, s.log, "register", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", internal(ctx, s.log, "register", err)
	}

	pic, err := s.blobs.Put(ctx, "profile_pics", profilePic)
	if err != nil {
		return "", internal(ctx, s.log, "register", err)
	}

	code, err := shared.GenerateNumericCode(otpDigits)
	if err != nil {
		return "", internal(ctx, s.log, "register", err)
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		ProfilePic:   pic.URL,
		OTP:          code,
		OTPExpiry:    s.now().Add(s.otpValidity).UTC(),
	}
	if _, err := repo.Create(ctx, user); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return "", common.NewError(common.ErrorAlreadyExists, "User already exists")
		}
		return "", internal(ctx, s.log, "register", err)
	}

	s.sendCode(ctx, email, "verification", code)
	return "Registration successful. Check your email for the verification code", nil
}

// VerifyOTP marks the account verified and starts a session. A code is
// accepted once: verification clears it.
func (s *UserService) VerifyOTP(ctx context.Context, email, otp string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || otp == "" {
		return nil, errFieldsRequired
	}

	repo := s.repomanager.Users()
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, internal(ctx, s.log, "verify otp", notFoundAs(err, errUserNotFound))
	}
	if user.IsVerified {
		return nil, errAlreadyVerified
	}
	if !s.codeMatches(user, otp) {
		return nil, errInvalidOTP
	}
	if err := repo.MarkVerified(ctx, user.ID); err != nil {
		return nil, internal(ctx, s.log, "verify otp", err)
	}
	user.IsVerified = true

	return s.newSession(ctx, user)
}

// ResendOTP issues a fresh code. At most resendLimit codes are sent per
// rolling resendWindow; the counter restarts once the window has passed
// since the last resend. Verified accounts receive a reset code.
func (s *UserService) ResendOTP(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return common.NewError(common.ErrorValidation, "Email is required")
	}

	repo := s.repomanager.Users()
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		return internal(ctx, s.log, "resend otp", notFoundAs(err, errUserNotFound))
	}

	ok, err := repo.ClaimResendSlot(ctx, user.ID, s.now().UTC(), s.resendWindow, s.resendLimit)
	if err != nil {
		return internal(ctx, s.log, "resend otp", err)
	}
	if !ok {
		return common.NewError(common.ErrorRateLimited, "Too many OTP requests. Please try again later")
	}

	purpose := "verification"
	if user.IsVerified {
		purpose = "password reset"
	}
	return s.issueCode(ctx, user, purpose)
}

// Login checks, in order: account exists, verified, not restricted by
// moderation, password matches. Each failure has its own message.
func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, errFieldsRequired
	}

	user, err := s.repomanager.Users().GetByEmail(ctx, email)
	if err != nil {
		return nil, internal(ctx, s.log, "login", notFoundAs(err, common.NewError(common.ErrorNotFound, "No such user")))
	}
	if !user.IsVerified {
		return nil, common.NewError(common.ErrorForbidden, "Please verify your email before logging in")
	}
	if user.BlockedByCount >= s.restrictionThreshold {
		return nil, common.NewError(common.ErrorForbidden, "Your account has been restricted")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, common.NewError(common.ErrorUnauthorized, "Incorrect password")
	}

	return s.newSession(ctx, user)
}

// ForgotPassword emails a reset code to a verified account.
func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return common.NewError(common.ErrorValidation, "Email is required")
	}

	user, err := s.repomanager.Users().GetByEmail(ctx, email)
	if err != nil {
		return internal(ctx, s.log, "forgot password", notFoundAs(err, common.NewError(common.ErrorNotFound, "No such user")))
	}
	if !user.IsVerified {
		return common.NewError(common.ErrorForbidden, "Please verify your email before logging in")
	}
	return s.issueCode(ctx, user, "password reset")
}

// VerifyResetOTP checks a reset code without consuming it.
func (s *UserService) VerifyResetOTP(ctx context.Context, email, otp string) error {
	_, err := s.resetTarget(ctx, email, otp)
	return err
}

// ResetPassword replaces the password when the reset code is still valid
// and clears the code.
func (s *UserService) ResetPassword(ctx context.Context, email, otp, newPassword string) error {
	if newPassword == "" {
		return errFieldsRequired
	}
	if err := s.checkPassword(newPassword); err != nil {
		return err
	}
	user, err := s.resetTarget(ctx, email, otp)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return internal(ctx, s.log, "reset password", err)
	}
	if err := s.repomanager.Users().UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return internal(ctx, s.log, "reset password", err)
	}
	return nil
}

// UpdateProfilePic stores the new picture and returns the updated profile.
func (s *UserService) UpdateProfilePic(ctx context.Context, userID, profilePic string) (*models.PublicUser, error) {
	if userID == "" || profilePic == "" {
		return nil, common.NewError(common.ErrorValidation, "Profile pic and user ID are required")
	}

	repo := s.repomanager.Users()
	if _, err := repo.GetByID(ctx, userID); err != nil {
		return nil, internal(ctx, s.log, "update profile", notFoundAs(err, errUserNotFound))
	}

	pic, err := s.blobs.Put(ctx, "profile_pics", profilePic)
	if err != nil {
		return nil, internal(ctx, s.log, "update profile", err)
	}
	if err := repo.UpdateProfilePic(ctx, userID, pic.URL); err != nil {
		return nil, internal(ctx, s.log, "update profile", notFoundAs(err, errUserNotFound))
	}
	return s.GetUser(ctx, userID)
}

// GetUser returns the public profile of userID.
func (s *UserService) GetUser(ctx context.Context, userID string) (*models.PublicUser, error) {
	if !validIDs(userID) {
		return nil, errUserNotFound
	}
	user, err := s.repomanager.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, internal(ctx, s.log, "get user", notFoundAs(err, errUserNotFound))
	}
	p := user.Public()
	return &p, nil
}

// UsersForSidebar lists everyone except userID and its friends.
func (s *UserService) UsersForSidebar(ctx context.Context, userID string) ([]models.PublicUser, error) {
	users, err := s.repomanager.Users().ListStrangers(ctx, userID)
	if err != nil {
		return nil, internal(ctx, s.log, "list users", err)
	}
	return users, nil
}

// --- helpers below ---

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserService) checkPassword(password string) error {
	if len(password) < s.minPasswordLength {
		return common.NewError(common.ErrorValidation,
			fmt.Sprintf("Password must be at least %d characters", s.minPasswordLength))
	}
	return nil
}

func (s *UserService) codeMatches(user *models.User, otp string) bool {
	if user.OTP == "" || !s.now().Before(user.OTPExpiry) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(user.OTP), []byte(otp)) == 1
}

func (s *UserService) resetTarget(ctx context.Context, email, otp string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" || otp == "" {
		return nil, errFieldsRequired
	}
	user, err := s.repomanager.Users().GetByEmail(ctx, email)
	if err != nil {
		return nil, internal(ctx, s.log, "reset password", notFoundAs(err, common.NewError(common.ErrorNotFound, "No such user")))
	}
	if !s.codeMatches(user, otp) {
		return nil, errInvalidOTP
	}
	return user, nil
}

func (s *UserService) issueCode(ctx context.Context, user *models.User, purpose string) error {
	code, err := shared.GenerateNumericCode(otpDigits)
	if err != nil {
		return internal(ctx, s.log, "issue otp", err)
	}
	if err := s.repomanager.Users().SetOTP(ctx, user.ID, code, s.now().Add(s.otpValidity).UTC()); err != nil {
		return internal(ctx, s.log, "issue otp", err)
	}
	s.sendCode(ctx, user.Email, purpose, code)
	return nil
}

// sendCode does not fail the operation; the user can ask for a resend.
func (s *UserService) sendCode(ctx context.Context, to, purpose, code string) {
	subject := "ChitChat " + purpose + " code"
	if err := s.mailer.Send(ctx, to, subject, mail.OTPBody(purpose, code, s.otpValidity)); err != nil {
		s.log.Warn(ctx, "otp mail not sent", "to", to, "error", err)
	}
}

func (s *UserService) newSession(ctx context.Context, user *models.User) (*Session, error) {
	token, err := s.auth.Issue(user.ID)
	if err != nil {
		return nil, internal(ctx, s.log, "issue token", err)
	}
	return &Session{User: user.Public(), Token: token}, nil
}
