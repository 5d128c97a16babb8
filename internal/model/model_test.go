package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTask(t *testing.T) {
	now := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

	task, err := NewTask("Buy milk", now)
	require.NoError(t, err)

	assert.Equal(t, "Buy milk", task.Text)
	assert.False(t, task.Completed)
	assert.Equal(t, now, task.CreatedAt)
	parsed, err := uuid.Parse(task.ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestNewTask_RejectsBlankText(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := NewTask(text, time.Now())
		assert.ErrorIs(t, err, ErrEmptyInput, "text %q", text)
	}
}

func TestNewTask_UniqueIDs(t *testing.T) {
	now := time.Now()
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		task, err := NewTask("x", now)
		require.NoError(t, err)
		require.False(t, seen[task.ID], "duplicate id %s", task.ID)
		seen[task.ID] = true
	}
}

func TestTask_JSONShape(t *testing.T) {
	b, err := json.Marshal(Task{ID: "1", Text: "A"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1","text":"A","completed":false}`, string(b))

	var legacy Task
	require.NoError(t, json.Unmarshal([]byte(`{"id":"Tue Oct 17 2023 10:00:00 GMT+0000 (UTC)","text":"B","completed":true}`), &legacy))
	assert.True(t, legacy.Completed)
	assert.True(t, legacy.CreatedAt.IsZero())
}

func TestTask_Validate(t *testing.T) {
	assert.NoError(t, Task{ID: "1", Text: "A"}.Validate())
	assert.ErrorIs(t, Task{ID: "1", Text: " "}.Validate(), ErrEmptyInput)
	assert.ErrorIs(t, Task{Text: "A"}.Validate(), ErrEmptyInput)
}

func TestTask_Toggled(t *testing.T) {
	task := Task{ID: "1", Text: "A"}
	toggled := task.Toggled()
	assert.True(t, toggled.Completed)
	assert.False(t, task.Completed)
}

func TestNewCredential(t *testing.T) {
	c, err := NewCredential("alice", "secret")
	require.NoError(t, err)
	assert.True(t, c.Matches("alice", "secret"))
	assert.False(t, c.Matches("alice", "Secret"))

	_, err = NewCredential(" ", "secret")
	assert.ErrorIs(t, err, ErrEmptyInput)
	_, err = NewCredential("alice", "")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestTask_ShortID(t *testing.T) {
	assert.Equal(t, "1700", Task{ID: "1700"}.ShortID())
	assert.Equal(t, "9abcdef0", Task{ID: "0192f3a1-7c2e-7d41-8b3a-56789abcdef0"}.ShortID())

	legacyA := Task{ID: "Tue Oct 17 2023 09:30:00 GMT+0200 (Central European Summer Time)"}
	legacyB := Task{ID: "Tue Oct 17 2023 09:31:00 GMT+0200 (Central European Summer Time)"}
	assert.Len(t, legacyA.ShortID(), 8)
	assert.NotEqual(t, legacyA.ShortID(), legacyB.ShortID())
	assert.Equal(t, legacyA.ShortID(), legacyA.ShortID())
	assert.Len(t, Task{ID: "1697527800000"}.ShortID(), 8)

	a, err := NewTask("a", time.Now())
	require.NoError(t, err)
	b, err := NewTask("b", time.Now())
	require.NoError(t, err)
	assert.NotEqual(t, a.ShortID(), b.ShortID())
}
