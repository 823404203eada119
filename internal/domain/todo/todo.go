package todo

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"
)

var ErrNotFound = errors.New("todo not found")

type Todo struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"userId"`
	Name      string     `json:"name"`
	Done      bool       `json:"done"`
	Deadline  *time.Time `json:"deadline,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type CreateTodoRequest struct {
	Name     string     `json:"name" binding:"required,min=1,max=500"`
	Deadline *time.Time `json:"deadline" binding:"omitempty"`
}

// with pointers if optional, nil means "leave unchanged". An explicit
// "deadline": null sets ClearDeadline instead.
type UpdateTodoRequest struct {
	Name     *string    `json:"name" binding:"omitempty,min=1,max=500"`
	Done     *bool      `json:"done"`
	Deadline *time.Time `json:"deadline"`

	ClearDeadline bool `json:"-"`
}

func (r *UpdateTodoRequest) UnmarshalJSON(b []byte) error {
	type plain UpdateTodoRequest

	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	if raw, ok := fields["deadline"]; ok && bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		p.ClearDeadline = true
	}

	*r = UpdateTodoRequest(p)
	return nil
}

func (r UpdateTodoRequest) IsEmpty() bool {
	return r.Name == nil && r.Done == nil && r.Deadline == nil && !r.ClearDeadline
}

type ListTodosFilter struct {
	UserID int64
	Limit  int
	// keyset position; zero values mean "from the newest"
	AfterCreatedAt *time.Time
	AfterID        int64
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)
