package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/geocoder89/todohub/internal/domain/user"
)

var ErrTokenTaken = errors.New("token already in use")

// UsersRepo mirrors the postgres users table, including its unique
// constraints on email and jwt.
type UsersRepo struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]user.User
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items: make(map[int64]user.User),
	}
}

func (r *UsersRepo) Create(_ context.Context, nu user.NewUser) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.items {
		if u.Email == nu.Email {
			return user.User{}, user.ErrEmailTaken
		}
		if u.Token == nu.Token {
			return user.User{}, ErrTokenTaken
		}
	}

	r.nextID++
	now := time.Now().UTC()

	u := user.User{
		ID:        r.nextID,
		FirstName: nu.FirstName,
		LastName:  nu.LastName,
		Email:     nu.Email,
		Salt:      append([]byte(nil), nu.Salt...),
		Hash:      append([]byte(nil), nu.Hash...),
		Token:     nu.Token,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.items[u.ID] = u

	return u, nil
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.items {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) GetByID(_ context.Context, id int64) (user.User, error) {
	r.mu.RLock()
	u, ok := r.items[id]
	r.mu.RUnlock()

	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) UpdateToken(_ context.Context, id int64, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]
	if !ok {
		return user.ErrNotFound
	}

	for otherID, other := range r.items {
		if otherID != id && other.Token == token {
			return ErrTokenTaken
		}
	}

	u.Token = token
	u.UpdatedAt = time.Now().UTC()
	r.items[id] = u

	return nil
}
