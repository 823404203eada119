package todo

import "time"

// NewFromCreateRequest builds an unsaved todo. Timestamps are truncated to
// the microsecond precision postgres stores.
func NewFromCreateRequest(userID int64, req CreateTodoRequest) Todo {
	now := time.Now().UTC().Truncate(time.Microsecond)

	var deadline *time.Time
	if req.Deadline != nil {
		d := req.Deadline.UTC()
		deadline = &d
	}

	return Todo{
		UserID:    userID,
		Name:      req.Name,
		Done:      false,
		Deadline:  deadline,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Apply returns t with the non-nil fields of req patched in; ClearDeadline
// removes the deadline.
func (t Todo) Apply(req UpdateTodoRequest, now time.Time) Todo {
	if req.Name != nil {
		t.Name = *req.Name
	}
	if req.Done != nil {
		t.Done = *req.Done
	}
	if req.Deadline != nil {
		d := req.Deadline.UTC()
		t.Deadline = &d
	}
	if req.ClearDeadline {
		t.Deadline = nil
	}
	t.UpdatedAt = now
	return t
}
