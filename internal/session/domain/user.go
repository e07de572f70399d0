package domain

import "time"

type User struct {
	ID           string
	Email        string
	Nickname     string
	PasswordHash string // argon2 encoded
	Banned       bool   // banned users are excluded from notification fan-out
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
