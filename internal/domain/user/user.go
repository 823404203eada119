package user

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already in use")
)

type User struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Salt      []byte    `json:"-"`
	Hash      []byte    `json:"-"` // never expose credentials in JSON
	Token     string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewUser is the insert payload for a signup: everything but the
// database-assigned id and timestamps.
type NewUser struct {
	FirstName string
	LastName  string
	Email     string
	Salt      []byte
	Hash      []byte
	Token     string
}

func (u User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// NormalizeEmail is applied before every lookup and insert so the unique
// index compares addresses case-insensitively.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
