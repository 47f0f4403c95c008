// Package app is the boundary the presentation layer talks to: it owns the
// task store and maps user intents onto store, view, persistence and export
// operations.
package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/ldi/todo/internal/db"
	"github.com/ldi/todo/internal/export"
	"github.com/ldi/todo/internal/logging"
	"github.com/ldi/todo/internal/snapshot"
	"github.com/ldi/todo/internal/store"
	"github.com/ldi/todo/internal/view"
	"github.com/ldi/todo/pkg/models"
)

// App serializes access to the store. The store itself is unsynchronized;
// the lock exists because the MCP and HTTP transports call in from their
// own goroutines.
type App struct {
	mu       sync.Mutex
	store    *store.Store
	logger   *log.Logger
	dataFile string
	autosave bool
	saveErr  error
}

type Option func(*App)

// WithLogger sets the logger; the default discards everything.
func WithLogger(l *log.Logger) Option {
	return func(a *App) { a.logger = l }
}

// WithDataFile sets the file used by Open, Save and autosave.
func WithDataFile(path string) Option {
	return func(a *App) { a.dataFile = path }
}

// WithAutosave saves the data file after every successful mutation.
func WithAutosave(on bool) Option {
	return func(a *App) { a.autosave = on }
}

func New(opts ...Option) *App {
	a := &App{
		store:  store.New(),
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.store.SetOnChange(a.onChange)
	return a
}

func (a *App) onChange() {
	if !a.autosave || a.dataFile == "" {
		return
	}
	if err := saveTasks(a.dataFile, a.store.Snapshot()); err != nil {
		a.saveErr = err
		a.logger.Error("autosave failed", "path", a.dataFile, "err", err)
		return
	}
	a.saveErr = nil
	a.logger.Debug("autosaved", "path", a.dataFile, "count", a.store.Len())
}

// LastSaveError returns the error of the most recent autosave, if it failed.
func (a *App) LastSaveError() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.saveErr
}

// SetLogger swaps the logger and returns the previous one.
func (a *App) SetLogger(l *log.Logger) *log.Logger {
	a.mu.Lock()
	defer a.mu.Unlock()
	prev := a.logger
	a.logger = l
	return prev
}

func (a *App) DataFile() string {
	return a.dataFile
}

// Open loads the data file into the store. A missing file is not an error:
// it leaves the store empty and reports created=true so the caller can seed
// sample tasks.
func (a *App) Open() (created bool, err error) {
	if a.dataFile == "" {
		return true, nil
	}
	if _, statErr := os.Stat(a.dataFile); errors.Is(statErr, os.ErrNotExist) {
		a.logger.Debug("data file does not exist yet", "path", a.dataFile)
		return true, nil
	}
	return false, a.LoadAll(a.dataFile)
}

// CreateTask validates fields and appends a new task.
func (a *App) CreateTask(fields models.TaskFields) (*models.Task, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	t, err := models.NewTask(fields)
	if err != nil {
		return nil, err
	}
	if err := a.store.Add(t); err != nil {
		return nil, err
	}
	a.logger.Debug("created task", "id", t.ID, "title", t.Title)
	return t, nil
}

func (a *App) EditTask(id string, fields models.TaskFields) (*models.Task, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	t, err := a.store.Update(id, fields)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("edited task", "id", id)
	return t, nil
}

func (a *App) DeleteTask(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.store.Remove(id); err != nil {
		return err
	}
	a.logger.Debug("deleted task", "id", id)
	return nil
}

func (a *App) ToggleTask(id string) (*models.Task, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	t, err := a.store.ToggleCompleted(id)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("toggled task", "id", id, "completed", t.Completed)
	return t, nil
}

// Task returns a copy of the task with the given id.
func (a *App) Task(id string) (*models.Task, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	t, err := a.store.Get(id)
	if err != nil {
		return nil, err
	}
	return t.Clone(), nil
}

// ResolveID accepts a full id or a unique prefix of one, as typed on the
// command line.
func (a *App) ResolveID(ref string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", &models.NotFoundError{ID: ref}
	}
	var match string
	for _, t := range a.store.Snapshot() {
		if t.ID == ref {
			return t.ID, nil
		}
		if strings.HasPrefix(t.ID, ref) {
			if match != "" {
				return "", &models.ValidationError{Field: "id", Reason: "ambiguous id prefix " + ref}
			}
			match = t.ID
		}
	}
	if match == "" {
		return "", &models.NotFoundError{ID: ref}
	}
	return match, nil
}

// ComputeView returns the tasks to display for query and filter. Unlike
// view.Compute, which returns references into the store, the result holds
// copies: MCP and HTTP handlers read it outside the lock while other calls
// may mutate the store.
func (a *App) ComputeView(query string, filter models.StatusFilter) []*models.Task {
	a.mu.Lock()
	defer a.mu.Unlock()

	return cloneAll(view.Compute(a.store.Snapshot(), query, filter))
}

// Tasks returns copies of all tasks in insertion order.
func (a *App) Tasks() []*models.Task {
	a.mu.Lock()
	defer a.mu.Unlock()

	return cloneAll(a.store.Snapshot())
}

func (a *App) Counts() view.Counts {
	a.mu.Lock()
	defer a.mu.Unlock()

	return view.Count(a.store.Snapshot(), models.Today())
}

// SaveAll writes every task to path. The extension selects the format.
func (a *App) SaveAll(path string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := saveTasks(path, a.store.Snapshot()); err != nil {
		return err
	}
	a.logger.Info("saved tasks", "path", path, "count", a.store.Len())
	return nil
}

// LoadAll replaces the store with the tasks in path. Nothing changes unless
// the whole file is valid.
func (a *App) LoadAll(path string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	tasks, err := loadTasks(path)
	if err != nil {
		return err
	}

	// The data just came from disk; saving it straight back is pointless.
	autosave := a.autosave
	a.autosave = autosave && path != a.dataFile
	err = a.store.ReplaceAll(tasks)
	a.autosave = autosave
	if err != nil {
		var ide *models.InvalidDataError
		if errors.As(err, &ide) {
			ide.Path = path
		}
		return err
	}

	a.logger.Info("loaded tasks", "path", path, "count", len(tasks))
	return nil
}

// ExportCSV writes the CSV export and returns the path written, which gains
// a .csv extension when missing.
func (a *App) ExportCSV(path string) (string, error) {
	return a.Export(path, export.FormatCSV)
}

func (a *App) Export(path string, format export.Format) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	written, err := export.ToFile(path, format, a.store.Snapshot())
	if err != nil {
		return written, err
	}
	a.logger.Info("exported tasks", "path", written, "format", format, "count", a.store.Len())
	return written, nil
}

// SeedSamples adds the three example tasks shown on first start.
func (a *App) SeedSamples(today models.Date) error {
	samples := []models.TaskFields{
		{Title: "Buy groceries", Description: "Milk, bread, eggs", Priority: "MEDIUM"},
		{Title: "Finish project", Description: "Push final changes to repo", DueDate: today.AddDays(2).String(), Priority: "HIGH"},
		{Title: "Call mom", Description: "Weekly check-in", DueDate: today.AddDays(1).String(), Priority: "LOW"},
	}
	for _, f := range samples {
		if _, err := a.CreateTask(f); err != nil {
			return err
		}
	}
	return nil
}

// IsSQLitePath reports whether path selects the SQLite format.
func IsSQLitePath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

func saveTasks(path string, tasks []*models.Task) error {
	if IsSQLitePath(path) {
		return db.Save(context.Background(), path, tasks)
	}
	return snapshot.Save(path, tasks)
}

func loadTasks(path string) ([]*models.Task, error) {
	if IsSQLitePath(path) {
		return db.Load(context.Background(), path)
	}
	return snapshot.Load(path)
}

func cloneAll(tasks []*models.Task) []*models.Task {
	out := make([]*models.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}
