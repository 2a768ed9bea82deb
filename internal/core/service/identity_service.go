package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/storefront/commerce-api/internal/core/domain"
	"github.com/storefront/commerce-api/internal/core/ports"
)

const (
	// sessionTTL is the contract with the cookie layer: tokens live for
	// one year from issuance.
	sessionTTL = 365 * 24 * time.Hour
	// resetWindow is how long a password-reset token stays usable.
	resetWindow = 72 * time.Hour
	// resetTokenBytes of entropy, hex-encoded before storage.
	resetTokenBytes = 20
)

// dummyHash keeps Signin's cost constant when the email is unknown: the
// password is always compared against some bcrypt digest. The plaintext
// behind it is never accepted.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// IdentityService implements registration, authentication, password reset
// and permission management.
type IdentityService struct {
	users       ports.UserRepository
	mailer      ports.Mailer
	appSecret   string
	frontendURL string
	logger      zerolog.Logger

	// now is swapped out in tests to simulate token expiry.
	now func() time.Time
}

func NewIdentityService(users ports.UserRepository, mailer ports.Mailer, appSecret, frontendURL string, logger zerolog.Logger) *IdentityService {
	return &IdentityService{
		users:       users,
		mailer:      mailer,
		appSecret:   appSecret,
		frontendURL: frontendURL,
		logger:      logger,
		now:         time.Now,
	}
}

// Signup creates a user with the baseline USER permission and opens a
// session. The email is lowercased so identity is case-insensitive.
func (s *IdentityService) Signup(ctx context.Context, input ports.SignupInput) (*domain.User, string, error) {
	email := strings.ToLower(input.Email)

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	ts := s.now().UTC()
	user := &domain.User{
		Name:         input.Name,
		Email:        email,
		PasswordHash: string(hash),
		Permissions:  []domain.Permission{domain.PermissionUser},
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, "", err
	}

	token, err := s.signToken(created.ID)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info().Str("user_id", created.ID).Msg("user signed up")
	return created, token, nil
}

// Signin verifies credentials and opens a fresh session. Unknown email and
// wrong password stay distinguishable to the caller, but the password
// comparison runs at equal cost either way.
func (s *IdentityService) Signin(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.users.FindByEmail(ctx, strings.ToLower(email))
	if err != nil {
		// Burn a comparison so an absent user costs the same as a
		// present one.
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
		return nil, "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", domain.ErrInvalidCredentials
	}

	token, err := s.signToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// RequestPasswordReset stores a fresh single-use token on the user record,
// overwriting any previous one, and mails a reset link.
func (s *IdentityService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(email)
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	resetToken := hex.EncodeToString(buf)
	expiry := s.now().UTC().Add(resetWindow)

	if err := s.users.SetResetToken(ctx, email, resetToken, expiry); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/reset?resetToken=%s", s.frontendURL, resetToken)
	body := niceEmail(fmt.Sprintf(`Your password reset token is here!<br/><br/><a href=%q>Click here to reset</a>`, link))
	if err := s.mailer.Send(ctx, user.Email, "Your Password Reset Token", body); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("reset mail dispatch failed")
		return fmt.Errorf("%w: %v", domain.ErrMailDelivery, err)
	}

	s.logger.Info().Str("user_id", user.ID).Msg("password reset requested")
	return nil
}

// ResetPassword consumes a reset token. The token-matches-and-not-expired
// check, password replacement and token clearing happen as one conditional
// update in the store, so a token can never be redeemed twice.
func (s *IdentityService) ResetPassword(ctx context.Context, resetToken, password, confirmPassword string) (*domain.User, string, error) {
	if password != confirmPassword {
		return nil, "", domain.ErrPasswordMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	user, err := s.users.ConsumeResetToken(ctx, resetToken, s.now().UTC(), string(hash))
	if err != nil {
		return nil, "", err
	}

	token, err := s.signToken(user.ID)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info().Str("user_id", user.ID).Msg("password reset completed")
	return user, token, nil
}

// UpdatePermissions replaces the target's entire permission set. The actor
// must hold ADMIN or PERMISSIONUPDATE. Nothing stops an admin from
// revoking their own access.
func (s *IdentityService) UpdatePermissions(ctx context.Context, actor domain.Identity, targetUserID string, permissions []domain.Permission) (*domain.User, error) {
	if !actor.SignedIn() {
		return nil, domain.ErrNotSignedIn
	}

	current, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, domain.ErrNotSignedIn
	}
	if !current.HasAnyPermission(domain.PermissionAdmin, domain.PermissionPermissionUpdate) {
		return nil, domain.ErrPermissionDenied
	}

	if len(permissions) == 0 {
		return nil, domain.ErrInvalidPermission
	}
	for _, p := range permissions {
		if !domain.ValidPermission(p) {
			return nil, domain.ErrInvalidPermission
		}
	}

	updated, err := s.users.ReplacePermissions(ctx, targetUserID, permissions)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("actor_id", actor.UserID).
		Str("target_id", targetUserID).
		Msg("permissions replaced")
	return updated, nil
}

// signToken issues an HS256 session token carrying the user id, expiring
// one year out.
func (s *IdentityService) signToken(userID string) (string, error) {
	claims := jwt.MapClaims{
		"userId": userID,
		"exp":    s.now().Add(sessionTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.appSecret))
}
