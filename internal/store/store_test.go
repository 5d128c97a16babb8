package store

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dori/taskman/internal/db"
	"github.com/dori/taskman/internal/model"
)

func openTestDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func declined(string) bool { return false }

// failingKV fails every call with err
type failingKV struct{ err error }

func (f failingKV) Get(context.Context, string) ([]byte, error) { return nil, f.err }
func (f failingKV) Set(context.Context, string, []byte) error { return f.err }
func (f failingKV) Remove(context.Context, string) error { return f.err }
func (f failingKV) Update(context.Context, string, func([]byte, bool) ([]byte, error)) error {
	return f.err
}

func TestTaskStore_LoadEmpty(t *testing.T) {
	s := NewTaskStore(openTestDB(t))

	tasks, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
}

func TestTaskStore_ReplaceLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewTaskStore(openTestDB(t))
	created := time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC)

	want := []model.Task{
		{ID: "1", Text: "A", Completed: false},
		{ID: "2", Text: "B", Completed: true, CreatedAt: created},
		{ID: "3", Text: "  padded  ", Completed: false},
	}
	require.NoError(t, s.Replace(ctx, want))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, want, s.Snapshot())
}

func TestTaskStore_RoundTripUnderRandomOperations(t *testing.T) {
	ctx := context.Background()
	s := NewTaskStore(openTestDB(t))
	rng := rand.New(rand.NewSource(42))

	var expected []model.Task
	for i := 0; i < 60; i++ {
		switch op := rng.Intn(3); {
		case op == 0 || len(expected) == 0:
			task, err := s.Add(ctx, fmt.Sprintf("task %d", i))
			require.NoError(t, err)
			expected = append(expected, task)
		case op == 1:
			j := rng.Intn(len(expected))
			require.NoError(t, s.Delete(ctx, expected[j].ID, Confirmed))
			expected = append(expected[:j:j], expected[j+1:]...)
		default:
			j := rng.Intn(len(expected))
			_, err := s.Toggle(ctx, expected[j].ID)
			require.NoError(t, err)
			expected[j] = expected[j].Toggled()
		}

		got, err := s.Load(ctx)
		require.NoError(t, err)
		if len(expected) == 0 {
			assert.Empty(t, got)
		} else {
			require.Equal(t, expected, got, "after operation %d", i)
		}

		// Writing back what was loaded changes nothing
		require.NoError(t, s.Replace(ctx, got))
		again, err := s.Load(ctx)
		require.NoError(t, err)
		require.Equal(t, got, again)
	}
}

func TestTaskStore_AddToEmptyStore(t *testing.T) {
	ctx := context.Background()
	s := NewTaskStore(openTestDB(t))

	_, err := s.Add(ctx, "Buy milk")
	require.NoError(t, err)

	tasks, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Buy milk", tasks[0].Text)
	assert.False(t, tasks[0].Completed)
	assert.NotEmpty(t, tasks[0].ID)
	assert.False(t, tasks[0].CreatedAt.IsZero())
}

func TestTaskStore_AddRejectsBlankText(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	s := NewTaskStore(database)

	_, err := s.Add(ctx, "   ")
	assert.ErrorIs(t, err, model.ErrEmptyInput)

	_, err = database.Get(ctx, TasksKey)
	assert.ErrorIs(t, err, db.ErrNotFound, "nothing should be persisted")
}

func TestTaskStore_UpdatePreservesPosition(t *testing.T) {
	ctx := context.Background()
	s := NewTaskStore(openTestDB(t))
	require.NoError(t, s.Replace(ctx, []model.Task{
		{ID: "1", Text: "A"},
		{ID: "2", Text: "B"},
		{ID: "3", Text: "C"},
	}))

	require.NoError(t, s.Update(ctx, model.Task{ID: "2", Text: "B2", Completed: true}))

	tasks, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Task{
		{ID: "1", Text: "A"},
		{ID: "2", Text: "B2", Completed: true},
		{ID: "3", Text: "C"},
	}, tasks)
}

func TestTaskStore_UpdateErrors(t *testing.T) {
	ctx := context.Background()
	s := NewTaskStore(openTestDB(t))
	require.NoError(t, s.Replace(ctx, []model.Task{{ID: "1", Text: "A"}}))

	assert.ErrorIs(t, s.Update(ctx, model.Task{ID: "1", Text: ""}), model.ErrEmptyInput)
	assert.ErrorIs(t, s.Update(ctx, model.Task{ID: "9", Text: "X"}), ErrTaskNotFound)

	tasks, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Task{{ID: "1", Text: "A"}}, tasks)
}

func TestTaskStore_ReplaceRejectsInvalidRecords(t *testing.T) {
	ctx := context.Background()
	s := NewTaskStore(openTestDB(t))
	seed := []model.Task{{ID: "1", Text: "A"}}
	require.NoError(t, s.Replace(ctx, seed))

	cases := map[string]struct {
		tasks []model.Task
		index int
		want  error
	}{
		"empty id":      {[]model.Task{{ID: "2", Text: "B"}, {ID: "", Text: "C"}}, 1, model.ErrEmptyInput},
		"blank text":    {[]model.Task{{ID: "x", Text: "   "}}, 0, model.ErrEmptyInput},
		"duplicate ids": {[]model.Task{{ID: "2", Text: "B"}, {ID: "3", Text: "C"}, {ID: "2", Text: "D"}}, 2, ErrDuplicateID},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := s.Replace(ctx, tc.tasks)
			assert.ErrorIs(t, err, tc.want)
			var re *RecordError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, tc.index, re.Index)

			tasks, err := s.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, seed, tasks, "nothing is written")
		})
	}
}

func TestTaskStore_RepeatedLegacyIDs(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	s := NewTaskStore(database)
	const id = "Tue Oct 17 2023 09:30:00 GMT+0200 (CEST)"
	payload := `[{"id":"` + id + `","text":"A","completed":false},` +
		`{"id":"other","text":"X","completed":false},` +
		`{"id":"` + id + `","text":"B","completed":false}]`
	require.NoError(t, database.Set(ctx, TasksKey, []byte(payload)))

	toggled, err := s.Toggle(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "A", toggled.Text)
	tasks, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Task{
		{ID: id, Text: "A", Completed: true},
		{ID: "other", Text: "X"},
		{ID: id, Text: "B", Completed: true},
	}, tasks)

	require.NoError(t, s.Update(ctx, model.Task{ID: id, Text: "C"}))
	tasks, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Task{
		{ID: id, Text: "C"},
		{ID: "other", Text: "X"},
		{ID: id, Text: "C"},
	}, tasks)

	require.NoError(t, s.Delete(ctx, id, Confirmed))
	tasks, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Task{{ID: "other", Text: "X"}}, tasks)
}

func TestTaskStore_ToggleUnknownID(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	s := NewTaskStore(database)
	require.NoError(t, s.Replace(ctx, []model.Task{{ID: "1", Text: "A"}}))
	before, err := database.Get(ctx, TasksKey)
	require.NoError(t, err)

	_, err = s.Toggle(ctx, "missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)

	after, err := database.Get(ctx, TasksKey)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestTaskStore_DeleteRequiresConfirmation(t *testing.T) {
	ctx := context.Background()
	s := NewTaskStore(openTestDB(t))
	seed := []model.Task{{ID: "1", Text: "A"}, {ID: "2", Text: "B"}}
	require.NoError(t, s.Replace(ctx, seed))

	var prompt string
	err := s.Delete(ctx, "1", func(p string) bool {
		prompt = p
		return false
	})
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, DeletePrompt, prompt)

	tasks, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, seed, tasks)

	require.NoError(t, s.Delete(ctx, "1", Confirmed))
	tasks, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Task{{ID: "2", Text: "B"}}, tasks)

	assert.ErrorIs(t, s.Delete(ctx, "1", Confirmed), ErrTaskNotFound)
}

func TestTaskStore_DeleteAll(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	s := NewTaskStore(database)
	require.NoError(t, s.Replace(ctx, []model.Task{{ID: "1", Text: "A"}, {ID: "2", Text: "B", Completed: true}}))

	assert.ErrorIs(t, s.DeleteAll(ctx, declined), ErrCancelled)
	assert.ErrorIs(t, s.DeleteAll(ctx, nil), ErrCancelled)
	tasks, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	require.NoError(t, s.DeleteAll(ctx, Confirmed))
	tasks, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)
	assert.Empty(t, s.Snapshot())

	_, err = database.Get(ctx, TasksKey)
	assert.ErrorIs(t, err, db.ErrNotFound, "clear removes the key")
}

func TestTaskStore_MalformedPayload(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	s := NewTaskStore(database)

	require.NoError(t, database.Set(ctx, TasksKey, []byte(`{not json`)))
	_, err := s.Load(ctx)
	var de *DeserializationError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, TasksKey, de.Key)
	assert.ErrorIs(t, err, ErrMalformedPayload)

	// The payload is left alone for the user to inspect
	raw, err := database.Get(ctx, TasksKey)
	require.NoError(t, err)
	assert.Equal(t, `{not json`, string(raw))
}

func TestTaskStore_SchemaInvalidPayload(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	s := NewTaskStore(database)

	cases := map[string]string{
		"wrong type":    `[{"id":"1","text":"A","completed":"yes"}]`,
		"missing field": `[{"id":"1","completed":false}]`,
		"not an array":  `{"id":"1","text":"A","completed":false}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, database.Set(ctx, TasksKey, []byte(payload)))
			_, err := s.Load(ctx)
			var de *DeserializationError
			require.ErrorAs(t, err, &de)
			assert.NotEmpty(t, de.Path)
		})
	}
}

func TestTaskStore_ToleratesUnknownFields(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	s := NewTaskStore(database)

	require.NoError(t, database.Set(ctx, TasksKey, []byte(`[{"id":"1697536800000","text":"A","completed":false,"color":"red"}]`)))
	tasks, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Task{{ID: "1697536800000", Text: "A"}}, tasks)
}

func TestTaskStore_StorageFailure(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk gone")
	s := NewTaskStore(failingKV{err: boom})

	_, err := s.Load(ctx)
	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "get", se.Op)
	assert.ErrorIs(t, err, boom)

	err = s.Replace(ctx, []model.Task{{ID: "1", Text: "A"}})
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "set", se.Op)

	err = s.Clear(ctx)
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "remove", se.Op)
}

func TestCredentialStore_RegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	s := NewCredentialStore(openTestDB(t))

	require.NoError(t, s.Register(ctx, "alice", "secret"))
	require.NoError(t, s.Register(ctx, "bob", "hunter2"))

	assert.NoError(t, s.Authenticate(ctx, "alice", "secret"))
	assert.NoError(t, s.Authenticate(ctx, "bob", "hunter2"))
	assert.ErrorIs(t, s.Authenticate(ctx, "alice", "wrong"), ErrInvalidCredentials)
	assert.ErrorIs(t, s.Authenticate(ctx, "Alice", "secret"), ErrInvalidCredentials)
	assert.ErrorIs(t, s.Authenticate(ctx, "carol", "secret"), ErrInvalidCredentials)

	names, err := s.Usernames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, names)
}

func TestCredentialStore_DuplicateUsernameLeavesCollection(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	s := NewCredentialStore(database)

	require.NoError(t, s.Register(ctx, "alice", "secret"))
	before, err := database.Get(ctx, UsersKey)
	require.NoError(t, err)

	err = s.Register(ctx, "alice", "other")
	assert.ErrorIs(t, err, ErrUsernameTaken)

	after, err := database.Get(ctx, UsersKey)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.NoError(t, s.Authenticate(ctx, "alice", "secret"))
}

func TestCredentialStore_BlankInput(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	s := NewCredentialStore(database)

	assert.ErrorIs(t, s.Register(ctx, "", "x"), model.ErrEmptyInput)
	assert.ErrorIs(t, s.Register(ctx, "alice", " "), model.ErrEmptyInput)
	assert.ErrorIs(t, s.Authenticate(ctx, "", ""), model.ErrEmptyInput)

	_, err := database.Get(ctx, UsersKey)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestCredentialStore_MalformedUsers(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	s := NewCredentialStore(database)
	require.NoError(t, database.Set(ctx, UsersKey, []byte(`[{"username":"alice"}]`)))

	assert.ErrorIs(t, s.Register(ctx, "bob", "pw"), ErrMalformedPayload)
	assert.ErrorIs(t, s.Authenticate(ctx, "alice", "pw"), ErrMalformedPayload)
}

func TestCredentialStore_StorageFailure(t *testing.T) {
	boom := errors.New("locked")
	s := NewCredentialStore(failingKV{err: boom})

	err := s.Register(context.Background(), "alice", "secret")
	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, UsersKey, se.Key)
	assert.ErrorIs(t, err, boom)
}

func TestSessionStore(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore(openTestDB(t))

	_, ok, err := s.Current(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SignIn(ctx, "alice"))
	user, ok, err := s.Current(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "alice", user)

	require.NoError(t, s.SignOut(ctx))
	_, ok, err = s.Current(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, s.SignIn(ctx, " "), model.ErrEmptyInput)
	assert.NoError(t, s.SignOut(ctx), "signing out twice is fine")
}
