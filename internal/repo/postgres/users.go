package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/todohub/internal/domain/user"
	"github.com/geocoder89/todohub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgUniqueViolation    = "23505"
	usersEmailConstraint = "users_email_key"
)

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

const userColumns = `id, first_name, last_name, email, salt, hash, jwt, created_at, updated_at`

func scanUser(row pgx.Row, u *user.User) error {
	return row.Scan(
		&u.ID,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.Salt,
		&u.Hash,
		&u.Token,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
}

// Create inserts the full signup row in one statement, so a failed signup
// never leaves a user without its token or credentials.
func (r *UsersRepo) Create(ctx context.Context, nu user.NewUser) (user.User, error) {
	var u user.User

	err := r.observe("users.create", func() error {
		return scanUser(r.pool.QueryRow(ctx,
			`INSERT INTO users (first_name, last_name, email, salt, hash, jwt)
			VALUES ($1,$2,$3,$4,$5,$6)
			RETURNING `+userColumns,
			nu.FirstName, nu.LastName, nu.Email, nu.Salt, nu.Hash, nu.Token,
		), &u)
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == usersEmailConstraint {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, fmt.Errorf("insert user: %w", err)
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_email", func() error {
		return scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+`
			FROM users
			WHERE email = $1`,
			email,
		), &u)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id int64) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_id", func() error {
		return scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+`
			FROM users
			WHERE id = $1`,
			id,
		), &u)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

// UpdateToken stores the token minted by the latest login.
func (r *UsersRepo) UpdateToken(ctx context.Context, id int64, token string) error {
	var affected int64

	err := r.observe("users.update_token", func() error {
		tag, err := r.pool.Exec(ctx,
			`UPDATE users
			SET jwt = $2, updated_at = NOW()
			WHERE id = $1`,
			id, token,
		)
		affected = tag.RowsAffected()
		return err
	})

	if err != nil {
		return fmt.Errorf("update token: %w", err)
	}

	if affected == 0 {
		return user.ErrNotFound
	}
	return nil
}
