package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/todohub/internal/domain/todo"
	"github.com/geocoder89/todohub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TodosRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewTodosRepo(pool *pgxpool.Pool, prom *observability.Prom) *TodosRepo {
	return &TodosRepo{
		pool: pool,
		prom: prom,
	}
}

func (r *TodosRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *TodosRepo) Create(ctx context.Context, t todo.Todo) (todo.Todo, error) {
	err := r.observe("todos.create", func() error {
		return r.pool.QueryRow(ctx,
			`INSERT INTO todos (user_id, name, done, deadline, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6)
			RETURNING id`,
			t.UserID, t.Name, t.Done, t.Deadline, t.CreatedAt, t.UpdatedAt,
		).Scan(&t.ID)
	})

	if err != nil {
		return todo.Todo{}, fmt.Errorf("insert todo: %w", err)
	}

	return t, nil
}

// List returns the user's todos newest first. The (created_at, id) keyset
// keeps pages stable when several rows share a timestamp.
func (r *TodosRepo) List(ctx context.Context, f todo.ListTodosFilter) ([]todo.Todo, error) {
	args := []interface{}{f.UserID}
	query := `SELECT id, user_id, name, done, deadline, created_at, updated_at
		FROM todos
		WHERE user_id = $1`

	if f.AfterCreatedAt != nil {
		query += ` AND (created_at, id) < ($2, $3)`
		args = append(args, *f.AfterCreatedAt, f.AfterID)
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args)+1)
	args = append(args, f.Limit)

	output := make([]todo.Todo, 0, f.Limit)

	err := r.observe("todos.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var t todo.Todo
			err = rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Done, &t.Deadline, &t.CreatedAt, &t.UpdatedAt)
			if err != nil {
				return err
			}
			output = append(output, t)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return output, nil
}

// Update patches the todo matching both id and owner; fields left nil in
// req keep their stored value and ClearDeadline nulls the deadline.
func (r *TodosRepo) Update(ctx context.Context, userID, id int64, req todo.UpdateTodoRequest) (todo.Todo, error) {
	var t todo.Todo

	err := r.observe("todos.update", func() error {
		return r.pool.QueryRow(ctx,
			`UPDATE todos
			SET name = COALESCE($3, name),
				done = COALESCE($4, done),
				deadline = CASE WHEN $6::boolean THEN NULL ELSE COALESCE($5, deadline) END,
				updated_at = NOW()
			WHERE id = $1 AND user_id = $2
			RETURNING id, user_id, name, done, deadline, created_at, updated_at`,
			id, userID, req.Name, req.Done, req.Deadline, req.ClearDeadline,
		).Scan(&t.ID, &t.UserID, &t.Name, &t.Done, &t.Deadline, &t.CreatedAt, &t.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return todo.Todo{}, todo.ErrNotFound
		}
		return todo.Todo{}, err
	}

	return t, nil
}
