// Package service holds the account lifecycle business logic. It sits
// between the RPC handlers and the repository/auth primitives:
//
//	handler (RPC) → AccountService (rules) → AccountRepository (store)
//	             ↘ PasswordService / TokenService / ResetTokenSource
//
// Handlers never touch the store; the service never touches the transport.
package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/medibook/auth-service/internal/apperror"
	"github.com/medibook/auth-service/internal/auth"
	"github.com/medibook/auth-service/internal/model"
	"github.com/medibook/auth-service/internal/notify"
	"github.com/medibook/auth-service/internal/repository"
)

// notifyTimeout bounds the single delivery attempt made for each event.
const notifyTimeout = 15 * time.Second

// AccountService orchestrates registration, login, recovery, and profile
// maintenance.
type AccountService struct {
	accounts  repository.AccountRepository
	passwords *auth.PasswordService
	tokens    *auth.TokenService
	resets    *auth.ResetTokenSource
	notifier  notify.Notifier
	logger    *slog.Logger
}

// NewAccountService wires an AccountService. All dependencies are
// required; the composition root in internal/server builds them.
func NewAccountService(
	accounts repository.AccountRepository,
	passwords *auth.PasswordService,
	tokens *auth.TokenService,
	resets *auth.ResetTokenSource,
	notifier notify.Notifier,
	logger *slog.Logger,
) *AccountService {
	return &AccountService{
		accounts:  accounts,
		passwords: passwords,
		tokens:    tokens,
		resets:    resets,
		notifier:  notifier,
		logger:    logger,
	}
}

// RegisterInput carries everything the register operation accepts. Role
// fields for the non-matching role are silently dropped, not rejected —
// the gateway has always been allowed to send both sets.
type RegisterInput struct {
	Email       string
	Password    string
	FullName    string
	Role        model.Role
	Phone       string
	Address     string
	DateOfBirth string

	// Patient fields.
	BloodGroup string
	Age        int
	Gender     string

	// Doctor fields.
	Education  string
	Experience int
}

// RegisterResult is intentionally minimal: the new account's id and email,
// never the hash.
type RegisterResult struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// SessionResult is returned by every operation that issues a session. The
// shape is identical for password and Google logins.
type SessionResult struct {
	AccessToken    string     `json:"access_token"`
	UserID         string     `json:"user_id"`
	Email          string     `json:"email"`
	Role           model.Role `json:"role"`
	FullName       string     `json:"full_name"`
	ProfilePicture string     `json:"profile_picture,omitempty"`
}

// PhotoResult is the confirmation projection returned by a photo upload.
type PhotoResult struct {
	UserID         string `json:"user_id"`
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	ProfilePicture string `json:"profile_picture"`
}

// Register creates a password-based account. Duplicate email is a
// conflict; nothing is written before validation passes. The registration
// notification is best-effort and cannot fail the operation.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	_, err := s.accounts.FindByEmail(ctx, in.Email)
	if err == nil {
		return nil, apperror.Conflict("User with this email already exists")
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/account: checking email %s: %w", in.Email, err)
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("service/account: %w", err)
	}

	role := in.Role
	if role == "" {
		role = model.RolePatient
	}

	fullName := in.FullName
	if fullName == "" {
		fullName = "User"
	}

	account := &model.Account{
		FullName:     fullName,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
		Phone:        in.Phone,
		Address:      in.Address,
		DateOfBirth:  in.DateOfBirth,
	}

	// Role-conditional fields: only the declared role's set is applied,
	// the other set is dropped without complaint.
	switch role {
	case model.RoleDoctor:
		account.Education = in.Education
		account.Experience = in.Experience
	default:
		account.BloodGroup = in.BloodGroup
		account.Age = in.Age
		account.Gender = in.Gender
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("service/account: creating account: %w", err)
	}

	s.logger.Info("account registered",
		slog.String("userID", account.ID),
		slog.String("role", string(account.Role)),
	)

	s.dispatch(notify.EventRegistration, func(ctx context.Context) bool {
		return s.notifier.NotifyRegistration(ctx, account.Email, account.FullName, account.ID, string(account.Role))
	})

	return &RegisterResult{UserID: account.ID, Email: account.Email}, nil
}

// Login authenticates a password credential and issues a session.
//
// Failure reasons are distinguishable on purpose — unknown email, Google-
// only account, and wrong password each surface differently, matching the
// behavior the gateway depends on.
func (s *AccountService) Login(ctx context.Context, email, password string) (*SessionResult, error) {
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("service/account: login lookup: %w", err)
	}

	if !account.HasPassword() {
		return nil, apperror.Unauthorized("This account uses Google OAuth. Please login with Google instead.")
	}

	if !s.passwords.Verify(account.PasswordHash, password) {
		return nil, apperror.Unauthorized("Invalid password")
	}

	return s.issueSession(account)
}

// RefreshToken re-validates an existing session token and issues a fresh
// one. The old token does not need to be expired. A valid signature is
// necessary but not sufficient: the referenced account must still exist,
// otherwise the refresh is invalid.
func (s *AccountService) RefreshToken(ctx context.Context, tokenStr string) (*SessionResult, error) {
	claims, err := s.tokens.Verify(tokenStr)
	if err != nil {
		return nil, apperror.Unauthorized("Invalid refresh token")
	}

	account, err := s.accounts.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("Invalid refresh token")
		}
		return nil, fmt.Errorf("service/account: refresh lookup: %w", err)
	}

	return s.issueSession(account)
}

// ValidateToken verifies a session token and returns its claims.
func (s *AccountService) ValidateToken(tokenStr string) (*auth.SessionClaims, error) {
	claims, err := s.tokens.Verify(tokenStr)
	if err != nil {
		return nil, apperror.Unauthorized("Invalid token")
	}
	return claims, nil
}

// ForgotPassword issues a reset token, stores it on the account, and
// sends the reset link. The acknowledgement to the caller is generic
// either way; only an unknown email is reported distinctly.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("service/account: forgot-password lookup: %w", err)
	}

	token, expiry, err := s.resets.Issue()
	if err != nil {
		return fmt.Errorf("service/account: %w", err)
	}

	account.ResetToken = token
	account.ResetTokenExpiry = expiry
	if err := s.accounts.Save(ctx, account); err != nil {
		return fmt.Errorf("service/account: storing reset token: %w", err)
	}

	s.logger.Info("password reset requested", slog.String("userID", account.ID))

	s.dispatch(notify.EventPasswordResetRequested, func(ctx context.Context) bool {
		return s.notifier.NotifyPasswordResetRequested(ctx, account.Email, account.FullName, token)
	})

	return nil
}

// ResetPassword consumes a reset token and replaces the password. The
// token and its expiry are cleared in the same Save that stores the new
// hash, so there is no window where both the token and the new password
// validate. An expired token is reported as expired even though it
// matched; it reveals nothing more.
//
// Two concurrent consumptions of the same token can race: this layer does
// no optimistic-concurrency detection and relies on the store serializing
// the writes.
func (s *AccountService) ResetPassword(ctx context.Context, token, newPassword string) error {
	account, err := s.accounts.FindByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return &apperror.AppError{Err: apperror.ErrNotFound, Message: "Invalid reset token"}
		}
		return fmt.Errorf("service/account: reset-token lookup: %w", err)
	}

	if account.ResetTokenExpiry.IsZero() || time.Now().After(account.ResetTokenExpiry) {
		return apperror.Expired("Reset token expired")
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("service/account: %w", err)
	}

	account.PasswordHash = hash
	account.ResetToken = ""
	account.ResetTokenExpiry = time.Time{}
	if err := s.accounts.Save(ctx, account); err != nil {
		return fmt.Errorf("service/account: storing new password: %w", err)
	}

	s.logger.Info("password reset completed", slog.String("userID", account.ID))

	s.dispatch(notify.EventPasswordResetCompleted, func(ctx context.Context) bool {
		return s.notifier.NotifyPasswordResetCompleted(ctx, account.Email, account.FullName)
	})

	return nil
}

// GetProfile returns the sanitized projection of an account.
func (s *AccountService) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/account: fetching profile %s: %w", id, err)
	}

	profile := account.Sanitize()
	return &profile, nil
}

// UpdateProfile applies a partial patch. Omitted fields stay untouched;
// role-conditional fields only apply when the account's current role
// matches, regardless of what the patch contains.
func (s *AccountService) UpdateProfile(ctx context.Context, id string, patch *model.ProfilePatch) (*model.Profile, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/account: updating profile %s: %w", id, err)
	}

	account.ApplyPatch(patch)

	if err := s.accounts.Save(ctx, account); err != nil {
		return nil, fmt.Errorf("service/account: saving profile %s: %w", id, err)
	}

	profile := account.Sanitize()
	return &profile, nil
}

// UploadProfilePhoto stores the photo as an inline data URI on the
// account and returns a minimal confirmation, not the full profile.
func (s *AccountService) UploadProfilePhoto(ctx context.Context, id, contentType string, data []byte) (*PhotoResult, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/account: uploading photo for %s: %w", id, err)
	}

	if len(data) == 0 {
		return nil, apperror.BadRequest("No file uploaded")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	account.ProfilePicture = fmt.Sprintf("data:%s;base64,%s",
		contentType, base64.StdEncoding.EncodeToString(data))

	if err := s.accounts.Save(ctx, account); err != nil {
		return nil, fmt.Errorf("service/account: saving photo for %s: %w", id, err)
	}

	return &PhotoResult{
		UserID:         account.ID,
		FullName:       account.FullName,
		Email:          account.Email,
		ProfilePicture: account.ProfilePicture,
	}, nil
}

// ListByRole returns all accounts of a role, each sanitized exactly like
// GetProfile.
func (s *AccountService) ListByRole(ctx context.Context, role model.Role) ([]model.Profile, error) {
	accounts, err := s.accounts.ListByRole(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("service/account: listing %s accounts: %w", role, err)
	}

	profiles := make([]model.Profile, 0, len(accounts))
	for i := range accounts {
		profiles = append(profiles, accounts[i].Sanitize())
	}

	return profiles, nil
}

// LoginWithGoogle merges a verified Google identity into the account base
// and issues a session identical in shape to a password login:
//
//   - subject already linked → idempotent re-login, no mutation; the
//     subject id is the stable key, the email at Google can change
//   - email exists without a Google link → attach the Google id (and
//     picture) in place; an existing password stays valid and untouched
//   - email exists linked to a different subject → Conflict
//   - email unseen → create a patient account with no password hash
func (s *AccountService) LoginWithGoogle(ctx context.Context, identity *auth.GoogleIdentity) (*SessionResult, error) {
	if identity == nil || identity.Email == "" {
		return nil, apperror.Unauthorized("Invalid or missing email in Google identity")
	}

	account, err := s.accounts.FindByGoogleID(ctx, identity.Subject)
	if err == nil {
		return s.issueSession(account)
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/account: google subject lookup: %w", err)
	}

	account, err = s.accounts.FindByEmail(ctx, identity.Email)
	switch {
	case err == nil:
		if account.GoogleID != "" {
			return nil, apperror.Conflict("This email is already linked to a different Google account")
		}
		account.GoogleID = identity.Subject
		if identity.Picture != "" {
			account.ProfilePicture = identity.Picture
		}
		if err := s.accounts.Save(ctx, account); err != nil {
			return nil, fmt.Errorf("service/account: linking Google identity: %w", err)
		}
		s.logger.Info("google identity linked", slog.String("userID", account.ID))

	case errors.Is(err, apperror.ErrNotFound):
		account = &model.Account{
			FullName:       identity.FullName,
			Email:          identity.Email,
			Role:           model.RolePatient,
			GoogleID:       identity.Subject,
			ProfilePicture: identity.Picture,
		}
		if err := s.accounts.Create(ctx, account); err != nil {
			return nil, fmt.Errorf("service/account: creating Google account: %w", err)
		}
		s.logger.Info("account created via google", slog.String("userID", account.ID))

	default:
		return nil, fmt.Errorf("service/account: google lookup: %w", err)
	}

	return s.issueSession(account)
}

func (s *AccountService) issueSession(account *model.Account) (*SessionResult, error) {
	token, err := s.tokens.Issue(account)
	if err != nil {
		return nil, fmt.Errorf("service/account: issuing session for %s: %w", account.ID, err)
	}

	return &SessionResult{
		AccessToken:    token,
		UserID:         account.ID,
		Email:          account.Email,
		Role:           account.Role,
		FullName:       account.FullName,
		ProfilePicture: account.ProfilePicture,
	}, nil
}

// dispatch runs one best-effort notification attempt in the background.
// The parent operation has usually returned by the time this completes;
// a caller disconnecting does not abort it, which is why the context is
// fresh rather than the request's.
func (s *AccountService) dispatch(event string, fn func(context.Context) bool) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if !fn(ctx) {
			s.logger.Warn("notification not delivered", slog.String("event", event))
		}
	}()
}
