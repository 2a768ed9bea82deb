package domain

import "errors"

// Authentication failures: the caller is not signed in or presented bad
// credentials.
var ErrNotSignedIn = errors.New("you must be signed in")
var ErrInvalidCredentials = errors.New("invalid password")

// Authorization failures: the caller is signed in but may not act on the
// target.
var ErrPermissionDenied = errors.New("insufficient permissions")
var ErrNotCartOwner = errors.New("cart item belongs to another user")
var ErrNotOrderOwner = errors.New("order belongs to another user")

// Not-found failures.
var ErrUserNotFound = errors.New("no user found for that email")
var ErrItemNotFound = errors.New("item not found")
var ErrCartItemNotFound = errors.New("cart item not found")
var ErrOrderNotFound = errors.New("order not found")

// Validation failures.
var ErrEmailTaken = errors.New("an account with that email already exists")
var ErrPasswordMismatch = errors.New("passwords do not match")
var ErrInvalidPermission = errors.New("unknown permission label")

// Reset-token failures.
var ErrResetTokenInvalid = errors.New("reset token is invalid or expired")

// Delivery failures.
var ErrMailDelivery = errors.New("could not deliver notification email")

// ErrCartChanged aborts order finalization when the cart was mutated
// between snapshot and commit. Exactly one concurrent finalization wins.
var ErrCartChanged = errors.New("cart changed while placing order")
