package domain

import "time"

// Permission is a closed set of capability labels attached to a user.
type Permission string

const (
	PermissionUser             Permission = "USER"
	PermissionAdmin            Permission = "ADMIN"
	PermissionItemCreate       Permission = "ITEMCREATE"
	PermissionItemUpdate       Permission = "ITEMUPDATE"
	PermissionItemDelete       Permission = "ITEMDELETE"
	PermissionPermissionUpdate Permission = "PERMISSIONUPDATE"
)

// AllPermissions enumerates every valid label, used to reject unknown input.
var AllPermissions = []Permission{
	PermissionUser,
	PermissionAdmin,
	PermissionItemCreate,
	PermissionItemUpdate,
	PermissionItemDelete,
	PermissionPermissionUpdate,
}

// ValidPermission reports whether p is one of the known labels.
func ValidPermission(p Permission) bool {
	for _, known := range AllPermissions {
		if p == known {
			return true
		}
	}
	return false
}

// User models an account holder. Email is stored lowercase and is unique.
type User struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	Email            string       `json:"email"`
	PasswordHash     string       `json:"-"`
	Permissions      []Permission `json:"permissions"`
	ResetToken       string       `json:"-"`
	ResetTokenExpiry time.Time    `json:"-"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// HasAnyPermission reports whether the user holds at least one of the
// required labels. An empty required set never authorizes.
func (u *User) HasAnyPermission(required ...Permission) bool {
	for _, want := range required {
		for _, have := range u.Permissions {
			if have == want {
				return true
			}
		}
	}
	return false
}

// Identity is the already-verified result of decoding a session token.
// Services take it explicitly instead of reaching into transport state.
type Identity struct {
	UserID string
}

// SignedIn reports whether the identity belongs to an authenticated caller.
func (id Identity) SignedIn() bool {
	return id.UserID != ""
}
