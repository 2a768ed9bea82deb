package ports

import (
	"context"

	"github.com/storefront/commerce-api/internal/core/domain"
)

// SignupInput carries the caller-supplied registration fields. Password
// arrives in plaintext and is hashed before it ever reaches a repository.
type SignupInput struct {
	Email    string
	Password string
	Name     string
}

// IdentityService registers and authenticates users, manages password
// resets, and replaces permission sets. Methods that establish a session
// return the signed token alongside the user; cookie mechanics stay in the
// transport layer.
type IdentityService interface {
	Signup(ctx context.Context, input SignupInput) (*domain.User, string, error)
	Signin(ctx context.Context, email, password string) (*domain.User, string, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, resetToken, password, confirmPassword string) (*domain.User, string, error)
	UpdatePermissions(ctx context.Context, actor domain.Identity, targetUserID string, permissions []domain.Permission) (*domain.User, error)
}
