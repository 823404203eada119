package utils

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"
)

// TodoCursor is the (created_at, id) position of the last todo on a page.
type TodoCursor struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        int64     `json:"id"`
}

func EncodeTodoCursor(createdAt time.Time, id int64) (string, error) {
	b, err := json.Marshal(TodoCursor{CreatedAt: createdAt, ID: id})
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func DecodeTodoCursor(cursor string) (TodoCursor, error) {
	if cursor == "" {
		return TodoCursor{}, errors.New("empty cursor")
	}

	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return TodoCursor{}, err
	}

	var c TodoCursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return TodoCursor{}, err
	}
	if c.ID <= 0 || c.CreatedAt.IsZero() {
		return TodoCursor{}, errors.New("invalid cursor payload")
	}
	return c, nil
}
