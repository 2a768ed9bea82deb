package ports

import (
	"context"
	"time"

	"github.com/storefront/commerce-api/internal/core/domain"
)

// UserRepository is the persistence boundary for user accounts.
type UserRepository interface {
	// Create inserts a new user. Returns domain.ErrEmailTaken when the
	// (lowercased) email is already registered.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)

	// SetResetToken stores a reset token and its expiry on the user,
	// overwriting any previous one. Only one token is valid at a time.
	SetResetToken(ctx context.Context, email, token string, expiry time.Time) error

	// ConsumeResetToken atomically finds the user whose stored reset token
	// equals token and is not yet expired at now, replaces the password
	// hash and clears both reset fields, all in a single conditional
	// update. Returns domain.ErrResetTokenInvalid when no user matches,
	// which also covers a token consumed by a concurrent call.
	ConsumeResetToken(ctx context.Context, token string, now time.Time, newPasswordHash string) (*domain.User, error)

	// ReplacePermissions overwrites the target's whole permission set.
	ReplacePermissions(ctx context.Context, userID string, permissions []domain.Permission) (*domain.User, error)
}
