package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/geocoder89/todohub/internal/domain/todo"
	"github.com/geocoder89/todohub/internal/domain/user"
)

func TestUsersRepo_Constraints(t *testing.T) {
	ctx := context.Background()
	r := NewUsersRepo()

	a, err := r.Create(ctx, user.NewUser{Email: "a@x.com", Token: "t1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.ID != 1 {
		t.Fatalf("first id = %d, want 1", a.ID)
	}

	if _, err := r.Create(ctx, user.NewUser{Email: "a@x.com", Token: "t2"}); !errors.Is(err, user.ErrEmailTaken) {
		t.Fatalf("duplicate email err = %v", err)
	}
	if _, err := r.Create(ctx, user.NewUser{Email: "b@x.com", Token: "t1"}); !errors.Is(err, ErrTokenTaken) {
		t.Fatalf("duplicate token err = %v", err)
	}

	b, err := r.Create(ctx, user.NewUser{Email: "b@x.com", Token: "t2"})
	if err != nil {
		t.Fatalf("create b: %v", err)
	}

	if err := r.UpdateToken(ctx, b.ID, "t1"); !errors.Is(err, ErrTokenTaken) {
		t.Fatalf("update to a taken token err = %v", err)
	}
	if err := r.UpdateToken(ctx, 99, "t9"); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("update missing user err = %v", err)
	}
	if err := r.UpdateToken(ctx, b.ID, "t3"); err != nil {
		t.Fatalf("update token: %v", err)
	}

	got, err := r.GetByEmail(ctx, "b@x.com")
	if err != nil || got.Token != "t3" {
		t.Fatalf("GetByEmail = %+v, %v", got, err)
	}
}

func TestTodosRepo_ListNewestFirstWithKeyset(t *testing.T) {
	ctx := context.Background()
	r := NewTodosRepo()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	// two rows share a timestamp; id breaks the tie
	for i, at := range []time.Time{base, base.Add(time.Minute), base.Add(time.Minute), base.Add(2 * time.Minute)} {
		if _, err := r.Create(ctx, todo.Todo{UserID: 1, Name: string(rune('a' + i)), CreatedAt: at}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if _, err := r.Create(ctx, todo.Todo{UserID: 2, Name: "other", CreatedAt: base.Add(time.Hour)}); err != nil {
		t.Fatalf("create: %v", err)
	}

	all, err := r.List(ctx, todo.ListTodosFilter{UserID: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	wantIDs := []int64{4, 3, 2, 1}
	if len(all) != len(wantIDs) {
		t.Fatalf("got %d todos, want %d", len(all), len(wantIDs))
	}
	for i, id := range wantIDs {
		if all[i].ID != id {
			t.Fatalf("position %d: id %d, want %d", i, all[i].ID, id)
		}
	}

	// resume after id 3 (same timestamp as id 2)
	after := all[1]
	rest, err := r.List(ctx, todo.ListTodosFilter{UserID: 1, Limit: 10, AfterCreatedAt: &after.CreatedAt, AfterID: after.ID})
	if err != nil {
		t.Fatalf("list after: %v", err)
	}
	if len(rest) != 2 || rest[0].ID != 2 || rest[1].ID != 1 {
		t.Fatalf("keyset page = %+v", rest)
	}

	limited, _ := r.List(ctx, todo.ListTodosFilter{UserID: 1, Limit: 1})
	if len(limited) != 1 || limited[0].ID != 4 {
		t.Fatalf("limited page = %+v", limited)
	}
}

func TestTodosRepo_UpdateScopedToOwner(t *testing.T) {
	ctx := context.Background()
	r := NewTodosRepo()

	created, _ := r.Create(ctx, todo.Todo{UserID: 1, Name: "water"})

	done := true
	if _, err := r.Update(ctx, 2, created.ID, todo.UpdateTodoRequest{Done: &done}); !errors.Is(err, todo.ErrNotFound) {
		t.Fatalf("foreign update err = %v", err)
	}

	updated, err := r.Update(ctx, 1, created.ID, todo.UpdateTodoRequest{Done: &done})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.Done || updated.Name != "water" {
		t.Fatalf("updated = %+v", updated)
	}

	deadline := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	withDeadline, err := r.Update(ctx, 1, created.ID, todo.UpdateTodoRequest{Deadline: &deadline})
	if err != nil || withDeadline.Deadline == nil {
		t.Fatalf("set deadline = %+v, %v", withDeadline, err)
	}

	cleared, err := r.Update(ctx, 1, created.ID, todo.UpdateTodoRequest{ClearDeadline: true})
	if err != nil || cleared.Deadline != nil || !cleared.Done {
		t.Fatalf("clear deadline = %+v, %v", cleared, err)
	}
}
