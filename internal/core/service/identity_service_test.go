package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/storefront/commerce-api/internal/core/domain"
	"github.com/storefront/commerce-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub user repository
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	users map[string]*domain.User // keyed by id
	seq   int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.Permissions = append([]domain.Permission(nil), u.Permissions...)
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return nil, domain.ErrEmailTaken
		}
	}
	r.seq++
	clone := cloneUser(user)
	clone.ID = fmt.Sprintf("user_%d", r.seq)
	r.users[clone.ID] = clone
	return cloneUser(clone), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) List(_ context.Context) ([]*domain.User, error) {
	var out []*domain.User
	for _, u := range r.users {
		out = append(out, cloneUser(u))
	}
	return out, nil
}

func (r *stubUserRepo) SetResetToken(_ context.Context, email, token string, expiry time.Time) error {
	for _, u := range r.users {
		if u.Email == email {
			u.ResetToken = token
			u.ResetTokenExpiry = expiry
			return nil
		}
	}
	return domain.ErrUserNotFound
}

// ConsumeResetToken mirrors the conditional-update semantics of the Mongo
// repository: match and clear in one step.
func (r *stubUserRepo) ConsumeResetToken(_ context.Context, token string, now time.Time, newPasswordHash string) (*domain.User, error) {
	for _, u := range r.users {
		if u.ResetToken == token && u.ResetToken != "" && !u.ResetTokenExpiry.Before(now) {
			u.PasswordHash = newPasswordHash
			u.ResetToken = ""
			u.ResetTokenExpiry = time.Time{}
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrResetTokenInvalid
}

func (r *stubUserRepo) ReplacePermissions(_ context.Context, userID string, permissions []domain.Permission) (*domain.User, error) {
	u, ok := r.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.Permissions = append([]domain.Permission(nil), permissions...)
	return cloneUser(u), nil
}

// ---------------------------------------------------------------------------
// Stub mailer
// ---------------------------------------------------------------------------

type stubMailer struct {
	sent    []sentMail
	sendErr error
}

type sentMail struct {
	to      string
	subject string
	body    string
}

func (m *stubMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: htmlBody})
	return nil
}

func newIdentityService(repo *stubUserRepo, mailer *stubMailer) *IdentityService {
	return NewIdentityService(repo, mailer, "secret", "http://localhost:7777", zerolog.Nop())
}

func parseUserID(t *testing.T, token string) string {
	t.Helper()
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	id, _ := claims["userId"].(string)
	return id
}

// ---------------------------------------------------------------------------
// Signup
// ---------------------------------------------------------------------------

func TestIdentityService_Signup_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc := newIdentityService(repo, &stubMailer{})

	user, token, err := svc.Signup(context.Background(), ports.SignupInput{
		Name:     "Alice",
		Email:    "Alice@Example.COM",
		Password: "wonderland1",
	})
	if err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("email not lowercased: %s", user.Email)
	}
	if user.PasswordHash == "wonderland1" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("wonderland1")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if len(user.Permissions) != 1 || user.Permissions[0] != domain.PermissionUser {
		t.Fatalf("expected baseline USER permission, got %v", user.Permissions)
	}
	if got := parseUserID(t, token); got != user.ID {
		t.Fatalf("token bound to %q, want %q", got, user.ID)
	}
}

func TestIdentityService_Signup_DuplicateEmail(t *testing.T) {
	repo := newStubUserRepo()
	svc := newIdentityService(repo, &stubMailer{})

	if _, _, err := svc.Signup(context.Background(), ports.SignupInput{Email: "bob@example.com", Password: "password1"}); err != nil {
		t.Fatalf("first signup failed: %v", err)
	}
	// Same identity, different case.
	_, _, err := svc.Signup(context.Background(), ports.SignupInput{Email: "BOB@example.com", Password: "password2"})
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if len(repo.users) != 1 {
		t.Fatalf("expected exactly 1 user, got %d", len(repo.users))
	}
}

// ---------------------------------------------------------------------------
// Signin
// ---------------------------------------------------------------------------

func TestIdentityService_Signin(t *testing.T) {
	repo := newStubUserRepo()
	svc := newIdentityService(repo, &stubMailer{})

	created, _, err := svc.Signup(context.Background(), ports.SignupInput{Email: "carol@example.com", Password: "s3cret-pass"})
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	user, token, err := svc.Signin(context.Background(), "Carol@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("signin failed: %v", err)
	}
	if user.ID != created.ID {
		t.Fatalf("unexpected user: %+v", user)
	}
	if parseUserID(t, token) != created.ID {
		t.Fatalf("token not bound to user")
	}
}

func TestIdentityService_Signin_WrongPassword(t *testing.T) {
	repo := newStubUserRepo()
	svc := newIdentityService(repo, &stubMailer{})

	_, _, _ = svc.Signup(context.Background(), ports.SignupInput{Email: "dave@example.com", Password: "goodpass1"})
	_, _, err := svc.Signin(context.Background(), "dave@example.com", "badpass")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestIdentityService_Signin_UnknownEmail(t *testing.T) {
	repo := newStubUserRepo()
	svc := newIdentityService(repo, &stubMailer{})

	_, _, err := svc.Signin(context.Background(), "ghost@example.com", "whatever1")
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Password reset
// ---------------------------------------------------------------------------

func TestIdentityService_RequestPasswordReset(t *testing.T) {
	repo := newStubUserRepo()
	mailer := &stubMailer{}
	svc := newIdentityService(repo, mailer)

	created, _, _ := svc.Signup(context.Background(), ports.SignupInput{Email: "erin@example.com", Password: "password1"})

	if err := svc.RequestPasswordReset(context.Background(), "erin@example.com"); err != nil {
		t.Fatalf("request reset failed: %v", err)
	}

	stored := repo.users[created.ID]
	if len(stored.ResetToken) != 40 { // 20 random bytes, hex-encoded
		t.Fatalf("expected 40-char token, got %q", stored.ResetToken)
	}
	wantExpiry := time.Now().UTC().Add(72 * time.Hour)
	if diff := stored.ResetTokenExpiry.Sub(wantExpiry); diff < -time.Minute || diff > time.Minute {
		t.Fatalf("expiry not ~72h out: %v", stored.ResetTokenExpiry)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected 1 mail, got %d", len(mailer.sent))
	}
	if mailer.sent[0].to != "erin@example.com" {
		t.Fatalf("mail sent to %q", mailer.sent[0].to)
	}
	if !strings.Contains(mailer.sent[0].body, stored.ResetToken) {
		t.Fatalf("mail body missing reset token")
	}
}

func TestIdentityService_RequestPasswordReset_OverwritesPrior(t *testing.T) {
	repo := newStubUserRepo()
	svc := newIdentityService(repo, &stubMailer{})

	created, _, _ := svc.Signup(context.Background(), ports.SignupInput{Email: "frank@example.com", Password: "password1"})

	_ = svc.RequestPasswordReset(context.Background(), "frank@example.com")
	first := repo.users[created.ID].ResetToken
	_ = svc.RequestPasswordReset(context.Background(), "frank@example.com")
	second := repo.users[created.ID].ResetToken

	if first == second {
		t.Fatalf("expected a fresh token on re-request")
	}
	// The overwritten token is no longer redeemable.
	if _, _, err := svc.ResetPassword(context.Background(), first, "newpass123", "newpass123"); !errors.Is(err, domain.ErrResetTokenInvalid) {
		t.Fatalf("expected ErrResetTokenInvalid for stale token, got %v", err)
	}
}

func TestIdentityService_RequestPasswordReset_UnknownEmail(t *testing.T) {
	repo := newStubUserRepo()
	svc := newIdentityService(repo, &stubMailer{})

	err := svc.RequestPasswordReset(context.Background(), "nobody@example.com")
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestIdentityService_RequestPasswordReset_DeliveryFailure(t *testing.T) {
	repo := newStubUserRepo()
	mailer := &stubMailer{sendErr: errors.New("smtp down")}
	svc := newIdentityService(repo, mailer)

	_, _, _ = svc.Signup(context.Background(), ports.SignupInput{Email: "gail@example.com", Password: "password1"})

	err := svc.RequestPasswordReset(context.Background(), "gail@example.com")
	if !errors.Is(err, domain.ErrMailDelivery) {
		t.Fatalf("expected ErrMailDelivery, got %v", err)
	}
}

func TestIdentityService_ResetPassword_SingleUse(t *testing.T) {
	repo := newStubUserRepo()
	svc := newIdentityService(repo, &stubMailer{})

	created, _, _ := svc.Signup(context.Background(), ports.SignupInput{Email: "hank@example.com", Password: "oldpass123"})
	_ = svc.RequestPasswordReset(context.Background(), "hank@example.com")
	token := repo.users[created.ID].ResetToken

	user, session, err := svc.ResetPassword(context.Background(), token, "newpass123", "newpass123")
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if parseUserID(t, session) != created.ID {
		t.Fatalf("session not bound to user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(repo.users[user.ID].PasswordHash), []byte("newpass123")); err != nil {
		t.Fatalf("new password not stored: %v", err)
	}

	// Second redemption of the same token must fail.
	if _, _, err := svc.ResetPassword(context.Background(), token, "again12345", "again12345"); !errors.Is(err, domain.ErrResetTokenInvalid) {
		t.Fatalf("expected ErrResetTokenInvalid on reuse, got %v", err)
	}
}

func TestIdentityService_ResetPassword_Expired(t *testing.T) {
	repo := newStubUserRepo()
	svc := newIdentityService(repo, &stubMailer{})

	created, _, _ := svc.Signup(context.Background(), ports.SignupInput{Email: "iris@example.com", Password: "oldpass123"})
	_ = svc.RequestPasswordReset(context.Background(), "iris@example.com")
	token := repo.users[created.ID].ResetToken

	// Jump the clock past the 72-hour window.
	svc.now = func() time.Time { return time.Now().Add(73 * time.Hour) }

	_, _, err := svc.ResetPassword(context.Background(), token, "newpass123", "newpass123")
	if !errors.Is(err, domain.ErrResetTokenInvalid) {
		t.Fatalf("expected ErrResetTokenInvalid after expiry, got %v", err)
	}
}

func TestIdentityService_ResetPassword_Mismatch(t *testing.T) {
	repo := newStubUserRepo()
	svc := newIdentityService(repo, &stubMailer{})

	_, _, err := svc.ResetPassword(context.Background(), "whatever", "one-password", "another-password")
	if !errors.Is(err, domain.ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Permissions
// ---------------------------------------------------------------------------

func TestIdentityService_UpdatePermissions(t *testing.T) {
	repo := newStubUserRepo()
	svc := newIdentityService(repo, &stubMailer{})

	admin, _, _ := svc.Signup(context.Background(), ports.SignupInput{Email: "admin@example.com", Password: "password1"})
	repo.users[admin.ID].Permissions = []domain.Permission{domain.PermissionUser, domain.PermissionAdmin}
	target, _, _ := svc.Signup(context.Background(), ports.SignupInput{Email: "target@example.com", Password: "password1"})

	updated, err := svc.UpdatePermissions(context.Background(), domain.Identity{UserID: admin.ID}, target.ID,
		[]domain.Permission{domain.PermissionUser, domain.PermissionItemDelete})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if !updated.HasAnyPermission(domain.PermissionItemDelete) {
		t.Fatalf("permission not granted: %v", updated.Permissions)
	}
}

func TestIdentityService_UpdatePermissions_Denied(t *testing.T) {
	repo := newStubUserRepo()
	svc := newIdentityService(repo, &stubMailer{})

	actor, _, _ := svc.Signup(context.Background(), ports.SignupInput{Email: "pleb@example.com", Password: "password1"})
	target, _, _ := svc.Signup(context.Background(), ports.SignupInput{Email: "victim@example.com", Password: "password1"})

	_, err := svc.UpdatePermissions(context.Background(), domain.Identity{UserID: actor.ID}, target.ID,
		[]domain.Permission{domain.PermissionAdmin})
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	// Target must be untouched.
	if repo.users[target.ID].HasAnyPermission(domain.PermissionAdmin) {
		t.Fatalf("target permissions changed despite denial")
	}
}

func TestIdentityService_UpdatePermissions_NotSignedIn(t *testing.T) {
	repo := newStubUserRepo()
	svc := newIdentityService(repo, &stubMailer{})

	_, err := svc.UpdatePermissions(context.Background(), domain.Identity{}, "user_1",
		[]domain.Permission{domain.PermissionUser})
	if !errors.Is(err, domain.ErrNotSignedIn) {
		t.Fatalf("expected ErrNotSignedIn, got %v", err)
	}
}

func TestIdentityService_UpdatePermissions_InvalidLabel(t *testing.T) {
	repo := newStubUserRepo()
	svc := newIdentityService(repo, &stubMailer{})

	admin, _, _ := svc.Signup(context.Background(), ports.SignupInput{Email: "root@example.com", Password: "password1"})
	repo.users[admin.ID].Permissions = []domain.Permission{domain.PermissionAdmin}
	target, _, _ := svc.Signup(context.Background(), ports.SignupInput{Email: "other@example.com", Password: "password1"})

	if _, err := svc.UpdatePermissions(context.Background(), domain.Identity{UserID: admin.ID}, target.ID,
		[]domain.Permission{"SUPERUSER"}); !errors.Is(err, domain.ErrInvalidPermission) {
		t.Fatalf("expected ErrInvalidPermission, got %v", err)
	}
	if _, err := svc.UpdatePermissions(context.Background(), domain.Identity{UserID: admin.ID}, target.ID,
		nil); !errors.Is(err, domain.ErrInvalidPermission) {
		t.Fatalf("expected ErrInvalidPermission for empty set, got %v", err)
	}
}
