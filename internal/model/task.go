package model

import (
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrEmptyInput is returned when a required text field is blank
var ErrEmptyInput = errors.New("input cannot be empty")

// Task represents a todo item
type Task struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// NewTask creates a pending task with a fresh ID.
// Text is stored as typed; it only has to contain something besides whitespace.
func NewTask(text string, now time.Time) (Task, error) {
	if strings.TrimSpace(text) == "" {
		return Task{}, ErrEmptyInput
	}

	id, err := uuid.NewV7()
	if err != nil {
		return Task{}, err
	}

	return Task{
		ID:        id.String(),
		Text:      text,
		Completed: false,
		CreatedAt: now,
	}, nil
}

// Validate checks the fields every stored task must have
func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" || strings.TrimSpace(t.Text) == "" {
		return ErrEmptyInput
	}
	return nil
}

// WithText returns a copy of the task with new text
func (t Task) WithText(text string) Task {
	t.Text = text
	return t
}

// Toggled returns a copy of the task with its completion flipped
func (t Task) Toggled() Task {
	t.Completed = !t.Completed
	return t
}

// ShortID returns an eight character handle for display. UUIDs use their
// random tail since their leading characters are a timestamp. Longer legacy
// ids share a time zone suffix, so they are shortened to an FNV-1a hash.
func (t Task) ShortID() string {
	if len(t.ID) <= 8 {
		return t.ID
	}
	if _, err := uuid.Parse(t.ID); err == nil {
		return t.ID[len(t.ID)-8:]
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(t.ID))
	return fmt.Sprintf("%08x", h.Sum32())
}
