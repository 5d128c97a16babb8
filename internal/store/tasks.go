// Package store holds the persisted task and credential collections.
// Every collection lives under a single key and is always read and written
// whole.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dori/taskman/internal/db"
	"github.com/dori/taskman/internal/logger"
	"github.com/dori/taskman/internal/model"
)

const (
	TasksKey   = "tasks"
	UsersKey   = "users"
	SessionKey = "user"
)

const (
	DeletePrompt    = "Are you sure you want to delete this task?"
	DeleteAllPrompt = "Are you sure you want to delete all tasks?"
)

// KV is the key-value backend the stores persist to. *db.DB satisfies it.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Update(ctx context.Context, key string, fn func(current []byte, found bool) ([]byte, error)) error
}

// Confirm asks the user to approve a destructive action
type Confirm func(prompt string) bool

// Confirmed approves every prompt
func Confirmed(string) bool { return true }

// TaskStore owns the task collection and an in-memory mirror of it
type TaskStore struct {
	kv  KV
	now func() time.Time

	mu     sync.Mutex
	mirror []model.Task
}

// NewTaskStore creates a store over kv with an empty mirror
func NewTaskStore(kv KV) *TaskStore {
	return &TaskStore{
		kv:     kv,
		now:    func() time.Time { return time.Now().UTC() },
		mirror: []model.Task{},
	}
}

// Load reads the persisted collection. A missing key yields an empty slice.
func (s *TaskStore) Load(ctx context.Context) ([]model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Replace persists tasks as the whole collection. Every record must be
// valid and ids must be unique; otherwise a *RecordError is returned and
// nothing is written.
func (s *TaskStore) Replace(ctx context.Context, tasks []model.Task) error {
	if err := checkRecords(tasks); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replace(ctx, tasks)
}

// Clear removes the persisted collection
func (s *TaskStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clear(ctx)
}

// Snapshot returns a copy of the tasks last loaded or written
func (s *TaskStore) Snapshot() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.mirror)
}

// Add appends a new pending task
func (s *TaskStore) Add(ctx context.Context, text string) (model.Task, error) {
	task, err := model.NewTask(text, s.now())
	if err != nil {
		return model.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.load(ctx)
	if err != nil {
		return model.Task{}, err
	}
	if err := s.replace(ctx, append(tasks, task)); err != nil {
		return model.Task{}, err
	}
	logger.Debug("task added", zap.String("id", task.ID))
	return task, nil
}

// Update overwrites every task sharing task.ID, keeping positions
func (s *TaskStore) Update(ctx context.Context, task model.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.load(ctx)
	if err != nil {
		return err
	}
	if indexOf(tasks, task.ID) < 0 {
		return ErrTaskNotFound
	}
	for i := range tasks {
		if tasks[i].ID == task.ID {
			tasks[i] = task
		}
	}
	return s.replace(ctx, tasks)
}

// Toggle flips the completion flag of every task with id and returns the
// first of them. Legacy ids are second-resolution timestamps and may repeat;
// toggle, update and delete all act on every match.
func (s *TaskStore) Toggle(ctx context.Context, id string) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.load(ctx)
	if err != nil {
		return model.Task{}, err
	}
	first := indexOf(tasks, id)
	if first < 0 {
		return model.Task{}, ErrTaskNotFound
	}
	for i := range tasks {
		if tasks[i].ID == id {
			tasks[i] = tasks[i].Toggled()
		}
	}
	if err := s.replace(ctx, tasks); err != nil {
		return model.Task{}, err
	}
	return tasks[first], nil
}

// Delete removes every task with id once confirm approves.
// Declining returns ErrCancelled and leaves the store untouched.
func (s *TaskStore) Delete(ctx context.Context, id string, confirm Confirm) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.load(ctx)
	if err != nil {
		return err
	}
	if indexOf(tasks, id) < 0 {
		return ErrTaskNotFound
	}
	if confirm == nil || !confirm(DeletePrompt) {
		return ErrCancelled
	}

	kept := slices.DeleteFunc(tasks, func(t model.Task) bool { return t.ID == id })
	if err := s.replace(ctx, kept); err != nil {
		return err
	}
	logger.Debug("task deleted", zap.String("id", id))
	return nil
}

// DeleteAll clears the collection once confirm approves
func (s *TaskStore) DeleteAll(ctx context.Context, confirm Confirm) error {
	if confirm == nil || !confirm(DeleteAllPrompt) {
		return ErrCancelled
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.clear(ctx); err != nil {
		return err
	}
	logger.Info("all tasks deleted")
	return nil
}

func (s *TaskStore) load(ctx context.Context) ([]model.Task, error) {
	raw, err := s.kv.Get(ctx, TasksKey)
	if errors.Is(err, db.ErrNotFound) {
		s.mirror = []model.Task{}
		return []model.Task{}, nil
	}
	if err != nil {
		logger.Error("load tasks", err)
		return nil, &StorageError{Op: "get", Key: TasksKey, Err: err}
	}

	tasks, err := decodeCollection[model.Task](TasksKey, raw, tasksSchema)
	if err != nil {
		logger.Error("decode tasks", err)
		return nil, err
	}
	s.mirror = slices.Clone(tasks)
	return tasks, nil
}

func (s *TaskStore) replace(ctx context.Context, tasks []model.Task) error {
	if tasks == nil {
		tasks = []model.Task{}
	}
	raw, err := json.Marshal(tasks)
	if err != nil {
		return &StorageError{Op: "encode", Key: TasksKey, Err: err}
	}
	if err := s.kv.Set(ctx, TasksKey, raw); err != nil {
		logger.Error("persist tasks", err, zap.Int("count", len(tasks)))
		return &StorageError{Op: "set", Key: TasksKey, Err: err}
	}
	s.mirror = slices.Clone(tasks)
	return nil
}

func (s *TaskStore) clear(ctx context.Context) error {
	if err := s.kv.Remove(ctx, TasksKey); err != nil {
		logger.Error("clear tasks", err)
		return &StorageError{Op: "remove", Key: TasksKey, Err: err}
	}
	s.mirror = []model.Task{}
	return nil
}

// checkRecords validates a caller-supplied collection
func checkRecords(tasks []model.Task) error {
	seen := make(map[string]struct{}, len(tasks))
	for i, task := range tasks {
		if err := task.Validate(); err != nil {
			return &RecordError{Index: i, ID: task.ID, Err: err}
		}
		if _, dup := seen[task.ID]; dup {
			return &RecordError{Index: i, ID: task.ID, Err: ErrDuplicateID}
		}
		seen[task.ID] = struct{}{}
	}
	return nil
}

func indexOf(tasks []model.Task, id string) int {
	return slices.IndexFunc(tasks, func(t model.Task) bool { return t.ID == id })
}
