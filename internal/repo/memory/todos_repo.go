package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/todohub/internal/domain/todo"
)

type TodosRepo struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]todo.Todo
}

func NewTodosRepo() *TodosRepo {
	return &TodosRepo{
		items: make(map[int64]todo.Todo),
	}
}

func (r *TodosRepo) Create(_ context.Context, t todo.Todo) (todo.Todo, error) {
	r.mu.Lock()
	r.nextID++
	t.ID = r.nextID
	r.items[t.ID] = t
	r.mu.Unlock()

	return t, nil
}

func (r *TodosRepo) List(_ context.Context, f todo.ListTodosFilter) ([]todo.Todo, error) {
	r.mu.RLock()
	out := make([]todo.Todo, 0)
	for _, t := range r.items {
		if t.UserID != f.UserID {
			continue
		}
		if f.AfterCreatedAt != nil && !before(t, *f.AfterCreatedAt, f.AfterID) {
			continue
		}
		out = append(out, t)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return before(out[j], out[i].CreatedAt, out[i].ID)
	})

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *TodosRepo) Update(_ context.Context, userID, id int64, req todo.UpdateTodoRequest) (todo.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.items[id]
	if !ok || t.UserID != userID {
		return todo.Todo{}, todo.ErrNotFound
	}

	t = t.Apply(req, time.Now().UTC())
	r.items[id] = t

	return t, nil
}

// before reports whether t sorts after the (createdAt, id) keyset position
// in newest-first order.
func before(t todo.Todo, createdAt time.Time, id int64) bool {
	if t.CreatedAt.Equal(createdAt) {
		return t.ID < id
	}
	return t.CreatedAt.Before(createdAt)
}
