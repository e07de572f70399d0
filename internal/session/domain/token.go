package domain

import "time"

// TokenPair is what the login and refresh endpoints return: the
// short-lived access token and the long-lived refresh token, both
// compact signed blobs.
type TokenPair struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type,omitempty"` // typically "Bearer"
	ExpiresIn    time.Duration `json:"expires_in"`           // seconds until access expiry
}

// ResetToken models a stored password reset grant. The signed blob is
// mailed to the user; the row makes it single-use, redeeming deletes
// the row inside the same transaction that updates the password.
type ResetToken struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}
