package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/gofrs/flock"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/dori/taskman/internal/config"
	"github.com/dori/taskman/internal/db"
	"github.com/dori/taskman/internal/logger"
	"github.com/dori/taskman/internal/notify"
	"github.com/dori/taskman/internal/store"
)

// ErrAlreadyRunning is returned when another TUI holds the data dir lock
var ErrAlreadyRunning = errors.New("another instance of taskman is already running")

// App holds the application state and dependencies
type App struct {
	Config   *config.Config
	DB       *db.DB
	Tasks    *store.TaskStore
	Users    *store.CredentialStore
	Session  *store.SessionStore
	Notifier *notify.Notifier
	lockFile *flock.Flock
}

// New opens the app for interactive use, holding an exclusive lock on the
// data dir for its lifetime
func New(cfg *config.Config) (*App, error) {
	return open(cfg, true)
}

// NewUnlocked opens the app without the single-instance lock. Used by the
// one-shot CLI commands, which rely on the database busy timeout instead.
func NewUnlocked(cfg *config.Config) (*App, error) {
	return open(cfg, false)
}

func open(cfg *config.Config, lock bool) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	app := &App{
		Config:   cfg,
		Notifier: notify.NewNotifier(cfg.Notifications),
	}

	if lock {
		if err := app.acquireLock(); err != nil {
			return nil, err
		}
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		app.releaseLock()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	app.DB = database
	app.Tasks = store.NewTaskStore(database)
	app.Users = store.NewCredentialStore(database)
	app.Session = store.NewSessionStore(database)

	logger.Info("app opened", zap.String("db", cfg.DBPath), zap.Bool("locked", lock))
	return app, nil
}

// acquireLock acquires an exclusive file lock to prevent multiple instances
func (a *App) acquireLock() error {
	a.lockFile = flock.New(a.Config.LockPath())

	locked, err := a.lockFile.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return ErrAlreadyRunning
	}
	return nil
}

// releaseLock releases the file lock
func (a *App) releaseLock() error {
	if a.lockFile == nil {
		return nil
	}
	return a.lockFile.Unlock()
}

// SignedIn reports the current session user, if any
func (a *App) SignedIn(ctx context.Context) (string, bool) {
	user, ok, err := a.Session.Current(ctx)
	if err != nil {
		logger.Warn("read session", zap.Error(err))
		return "", false
	}
	return user, ok
}

// Close cleans up application resources
func (a *App) Close() error {
	var err error
	if a.DB != nil {
		if cerr := a.DB.Close(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("failed to close database: %w", cerr))
		}
	}
	if uerr := a.releaseLock(); uerr != nil {
		err = multierr.Append(err, fmt.Errorf("failed to release lock: %w", uerr))
	}
	return err
}
