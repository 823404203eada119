// Package account implements signup, login and identity lookup on top of
// the credential hasher and the token manager.
package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/todohub/internal/domain/user"
	"github.com/geocoder89/todohub/internal/security"
)

var (
	ErrAccountExists  = errors.New("account exists")
	ErrEmailNotFound  = errors.New("email not found")
	ErrBadCredentials = errors.New("incorrect email or password")
)

type UserStore interface {
	Create(ctx context.Context, nu user.NewUser) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id int64) (user.User, error)
	UpdateToken(ctx context.Context, id int64, token string) error
}

type TokenIssuer interface {
	Issue(email string) (string, error)
}

type CredentialHasher interface {
	Derive(password string, salt []byte) (security.Credential, error)
	Verify(password string, salt, expected []byte) bool
}

type Service struct {
	users  UserStore
	tokens TokenIssuer
	hasher CredentialHasher
}

func NewService(users UserStore, tokens TokenIssuer, hasher CredentialHasher) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		hasher: hasher,
	}
}

// Input shapes are validated by the HTTP layer before they get here.
type SignupInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

type Session struct {
	Token string
	User  user.User
}

func (s *Service) Signup(ctx context.Context, in SignupInput) (Session, error) {
	email := user.NormalizeEmail(in.Email)

	cred, err := s.hasher.Derive(in.Password, nil)
	if err != nil {
		return Session{}, fmt.Errorf("derive credential: %w", err)
	}

	// derivation ignores ctx; honour a deadline that passed meanwhile
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}

	token, err := s.tokens.Issue(email)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}

	u, err := s.users.Create(ctx, user.NewUser{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     email,
		Salt:      cred.Salt,
		Hash:      cred.Hash,
		Token:     token,
	})
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			return Session{}, ErrAccountExists
		}
		return Session{}, fmt.Errorf("create user: %w", err)
	}

	return Session{Token: token, User: u}, nil
}

// Login reveals whether the email exists (ErrEmailNotFound) but reports a
// wrong password only as ErrBadCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	u, err := s.users.GetByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return Session{}, ErrEmailNotFound
		}
		return Session{}, fmt.Errorf("lookup user: %w", err)
	}

	if !s.hasher.Verify(password, u.Salt, u.Hash) {
		return Session{}, ErrBadCredentials
	}

	if err := ctx.Err(); err != nil {
		return Session{}, err
	}

	token, err := s.tokens.Issue(u.Email)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}

	if err := s.users.UpdateToken(ctx, u.ID, token); err != nil {
		return Session{}, fmt.Errorf("store token: %w", err)
	}
	u.Token = token

	return Session{Token: token, User: u}, nil
}

// Lookup resolves a verified token identity to the stored user. A missing
// user is returned as user.ErrNotFound; anything else is a storage failure.
func (s *Service) Lookup(ctx context.Context, email string) (user.User, error) {
	return s.users.GetByEmail(ctx, user.NormalizeEmail(email))
}

func (s *Service) GetByID(ctx context.Context, id int64) (user.User, error) {
	return s.users.GetByID(ctx, id)
}
