package auth

import "errors"

// Closed set of authentication failures. Handlers branch on these with
// errors.Is; anything outside the set surfaces as a generic 500.
var (
	ErrEmailExists         = errors.New("email already registered")
	ErrUsernameExists      = errors.New("username already taken")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrAccountInactive     = errors.New("account is not active")
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired or revoked")
	ErrTokenNotFound       = errors.New("token not found")
	ErrTokenAlreadyRevoked = errors.New("token already revoked")
	ErrUserNotFound        = errors.New("user not found")
)
