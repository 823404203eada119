package todo

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewFromCreateRequest(t *testing.T) {
	deadline := time.Date(2026, 4, 30, 12, 0, 0, 0, time.FixedZone("EST", -5*3600))

	td := NewFromCreateRequest(7, CreateTodoRequest{Name: "taxes", Deadline: &deadline})

	if td.UserID != 7 || td.Name != "taxes" || td.Done {
		t.Fatalf("unexpected todo: %+v", td)
	}
	if td.Deadline == nil || td.Deadline.Location() != time.UTC || !td.Deadline.Equal(deadline) {
		t.Fatalf("deadline not normalised to UTC: %v", td.Deadline)
	}
	if td.CreatedAt.IsZero() || !td.CreatedAt.Equal(td.UpdatedAt) {
		t.Fatalf("timestamps: created=%v updated=%v", td.CreatedAt, td.UpdatedAt)
	}
	if td.CreatedAt.Nanosecond()%1000 != 0 {
		t.Fatalf("created_at not truncated to microseconds: %v", td.CreatedAt)
	}
}

func TestApply(t *testing.T) {
	orig := Todo{ID: 1, UserID: 7, Name: "water", CreatedAt: time.Unix(0, 0).UTC()}
	now := time.Unix(100, 0).UTC()

	name := "water garden"
	done := true
	deadline := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	withDeadline := orig
	withDeadline.Deadline = &deadline

	tests := []struct {
		name string
		from *Todo
		req  UpdateTodoRequest
		want func(Todo) bool
	}{
		{name: "name_only", req: UpdateTodoRequest{Name: &name}, want: func(t Todo) bool { return t.Name == name && !t.Done }},
		{name: "done_only", req: UpdateTodoRequest{Done: &done}, want: func(t Todo) bool { return t.Done && t.Name == "water" }},
		{name: "both", req: UpdateTodoRequest{Name: &name, Done: &done}, want: func(t Todo) bool { return t.Done && t.Name == name }},
		{name: "set_deadline", req: UpdateTodoRequest{Deadline: &deadline}, want: func(t Todo) bool { return t.Deadline != nil && t.Deadline.Equal(deadline) }},
		{name: "clear_deadline", from: &withDeadline, req: UpdateTodoRequest{ClearDeadline: true}, want: func(t Todo) bool { return t.Deadline == nil && t.Name == "water" }},
		{name: "keep_deadline", from: &withDeadline, req: UpdateTodoRequest{Done: &done}, want: func(t Todo) bool { return t.Deadline != nil && t.Done }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from := orig
			if tt.from != nil {
				from = *tt.from
			}
			got := from.Apply(tt.req, now)
			if !tt.want(got) {
				t.Fatalf("unexpected result %+v", got)
			}
			if !got.UpdatedAt.Equal(now) || !got.CreatedAt.Equal(orig.CreatedAt) {
				t.Fatalf("timestamps: %+v", got)
			}
		})
	}

	if !(UpdateTodoRequest{}).IsEmpty() || (UpdateTodoRequest{Done: &done}).IsEmpty() || (UpdateTodoRequest{ClearDeadline: true}).IsEmpty() {
		t.Fatalf("IsEmpty mismatch")
	}
}

func TestUpdateTodoRequest_UnmarshalDeadline(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantClear bool
		wantSet   bool
	}{
		{name: "absent", body: `{"done":true}`},
		{name: "null", body: `{"deadline": null}`, wantClear: true},
		{name: "value", body: `{"deadline":"2026-05-01T00:00:00Z"}`, wantSet: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req UpdateTodoRequest
			if err := json.Unmarshal([]byte(tt.body), &req); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if req.ClearDeadline != tt.wantClear || (req.Deadline != nil) != tt.wantSet {
				t.Fatalf("got clear=%v deadline=%v", req.ClearDeadline, req.Deadline)
			}
		})
	}

	var req UpdateTodoRequest
	if err := json.Unmarshal([]byte(`{"name":5}`), &req); err == nil {
		t.Fatalf("expected a type error for a numeric name")
	}
}
