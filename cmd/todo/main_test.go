package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ldi/todo/internal/app"
	"github.com/ldi/todo/internal/config"
	"github.com/ldi/todo/internal/logging"
	"github.com/ldi/todo/pkg/models"
)

// setupTestConfig points the CLI at a fresh data file in a temp dir.
func setupTestConfig(t *testing.T, name string) string {
	t.Helper()

	originalCfg, originalLogger := cfg, logger
	t.Cleanup(func() {
		cfg, logger = originalCfg, originalLogger
	})

	dataFile := filepath.Join(t.TempDir(), name)
	cfg = config.Default()
	cfg.DataFile = dataFile
	logger = logging.Discard()
	return dataFile
}

func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	runErr := fn()
	w.Close()
	os.Stdout = oldStdout

	var buf bytes.Buffer
	buf.ReadFrom(r)
	return buf.String(), runErr
}

func mustRun(t *testing.T, command string, args ...string) string {
	t.Helper()
	out, err := captureOutput(t, func() error { return run(command, args) })
	if err != nil {
		t.Fatalf("%s %v failed: %v", command, args, err)
	}
	return out
}

func listJSON(t *testing.T, args ...string) []models.Task {
	t.Helper()
	out := mustRun(t, "list", append([]string{"-json"}, args...)...)
	var tasks []models.Task
	if err := json.Unmarshal([]byte(out), &tasks); err != nil {
		t.Fatalf("failed to parse list output: %v\n%s", err, out)
	}
	return tasks
}

func titlesOf(tasks []models.Task) string {
	var out []string
	for _, t := range tasks {
		out = append(out, t.Title)
	}
	return strings.Join(out, ", ")
}

func TestListSeedsSamples(t *testing.T) {
	dataFile := setupTestConfig(t, "tasks.todo")

	out := mustRun(t, "list")
	for _, want := range []string{"ID", "PRIORITY", "Finish project", "Buy groceries", "Call mom"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
	if strings.Index(out, "Finish project") > strings.Index(out, "Buy groceries") {
		t.Errorf("expected Finish project before Buy groceries: %s", out)
	}
	if _, err := os.Stat(dataFile); err != nil {
		t.Errorf("expected seeded data file to be written: %v", err)
	}
}

func TestListNoSeed(t *testing.T) {
	setupTestConfig(t, "tasks.todo")
	cfg.SeedSamples = false

	if tasks := listJSON(t); len(tasks) != 0 {
		t.Errorf("expected no tasks, got %d", len(tasks))
	}
}

func TestAddEditToggleDelete(t *testing.T) {
	for _, name := range []string{"tasks.todo", "tasks.db"} {
		t.Run(name, func(t *testing.T) {
			setupTestConfig(t, name)
			cfg.SeedSamples = false

			out := mustRun(t, "add", "-p", "high", "-due", "2025-05-02", "-d", "Quarterly", "Write", "report")
			if !strings.Contains(out, `"Write report"`) {
				t.Errorf("unexpected add output: %s", out)
			}
			mustRun(t, "add", "Buy milk")

			tasks := listJSON(t)
			if titlesOf(tasks) != "Write report, Buy milk" {
				t.Fatalf("unexpected tasks: %s", titlesOf(tasks))
			}
			report := tasks[0]
			if report.Priority != models.PriorityHigh || report.Description != "Quarterly" || report.DueDate == nil {
				t.Errorf("unexpected task: %+v", report)
			}

			mustRun(t, "edit", report.ID[:8], "-title", "Write summary")
			edited := listJSON(t, "-q", "summary")
			if len(edited) != 1 || edited[0].ID != report.ID {
				t.Fatalf("expected edited task, got %+v", edited)
			}
			if edited[0].Description != "Quarterly" || edited[0].Priority != models.PriorityHigh {
				t.Errorf("expected omitted fields kept: %+v", edited[0])
			}

			mustRun(t, "edit", report.ID, "-due", "")
			if got := listJSON(t, "-q", "summary"); got[0].DueDate != nil {
				t.Errorf("expected -due \"\" to clear the due date")
			}

			out = mustRun(t, "toggle", report.ID)
			if !strings.Contains(out, "completed") {
				t.Errorf("unexpected toggle output: %s", out)
			}
			if got := listJSON(t, "-status", "active"); titlesOf(got) != "Buy milk" {
				t.Errorf("unexpected active list: %s", titlesOf(got))
			}

			mustRun(t, "delete", report.ID)
			if got := listJSON(t); titlesOf(got) != "Buy milk" {
				t.Errorf("unexpected list after delete: %s", titlesOf(got))
			}
		})
	}
}

func TestNoAutosaveStillCommits(t *testing.T) {
	setupTestConfig(t, "tasks.todo")
	cfg.Autosave = false
	cfg.SeedSamples = false

	mustRun(t, "add", "kept")
	if got := listJSON(t); titlesOf(got) != "kept" {
		t.Errorf("expected one-shot add to be saved, got %s", titlesOf(got))
	}
}

func TestCommandErrors(t *testing.T) {
	setupTestConfig(t, "tasks.todo")

	tests := []struct {
		name    string
		command string
		args    []string
		target  error
	}{
		{"blank title", "add", []string{"   "}, models.ErrValidation},
		{"bad date", "add", []string{"-due", "31/12/2025", "x"}, models.ErrValidation},
		{"bad priority", "add", []string{"-p", "urgent", "x"}, models.ErrValidation},
		{"unknown id", "toggle", []string{"nope"}, models.ErrNotFound},
		{"unknown id delete", "delete", []string{"nope"}, models.ErrNotFound},
		{"bad status", "list", []string{"-status", "later"}, models.ErrValidation},
		{"bad format", "export", []string{"-format", "xml", "out"}, models.ErrValidation},
		{"missing load", "load", []string{filepath.Join(t.TempDir(), "missing.todo")}, models.ErrIO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := captureOutput(t, func() error { return run(tt.command, tt.args) })
			if !errors.Is(err, tt.target) {
				t.Errorf("expected %v, got %v", tt.target, err)
			}
		})
	}

	if _, err := captureOutput(t, func() error { return run("frobnicate", nil) }); err == nil {
		t.Error("expected unknown command to fail")
	}
	if _, err := captureOutput(t, func() error { return run("delete", nil) }); err == nil {
		t.Error("expected delete without id to fail")
	}
}

func TestAddBlankTitleLeavesFileUntouched(t *testing.T) {
	setupTestConfig(t, "tasks.todo")
	mustRun(t, "list")

	captureOutput(t, func() error { return run("add", []string{""}) })
	if got := listJSON(t); len(got) != 3 {
		t.Errorf("expected 3 tasks, got %d", len(got))
	}
}

func TestSaveLoadExport(t *testing.T) {
	setupTestConfig(t, "tasks.todo")
	dir := t.TempDir()

	dbPath := filepath.Join(dir, "backup.db")
	out := mustRun(t, "save", dbPath)
	if !strings.Contains(out, "Saved 3 tasks") {
		t.Errorf("unexpected save output: %s", out)
	}

	mustRun(t, "delete", listJSON(t)[0].ID)
	if len(listJSON(t)) != 2 {
		t.Fatalf("expected 2 tasks after delete")
	}

	out = mustRun(t, "load", dbPath)
	if !strings.Contains(out, "Loaded 3 tasks") {
		t.Errorf("unexpected load output: %s", out)
	}
	if len(listJSON(t)) != 3 {
		t.Errorf("expected load to be persisted to the data file")
	}

	bad := filepath.Join(dir, "bad.todo")
	os.WriteFile(bad, []byte("{}\n"), 0644)
	if _, err := captureOutput(t, func() error { return run("load", []string{bad}) }); !errors.Is(err, models.ErrInvalidData) {
		t.Errorf("expected ErrInvalidData, got %v", err)
	}
	if len(listJSON(t)) != 3 {
		t.Errorf("expected failed load to keep tasks")
	}

	out = mustRun(t, "export", filepath.Join(dir, "tasks"))
	if !strings.Contains(out, "tasks.csv") {
		t.Errorf("expected .csv to be appended: %s", out)
	}
	data, err := os.ReadFile(filepath.Join(dir, "tasks.csv"))
	if err != nil {
		t.Fatalf("expected csv file: %v", err)
	}
	if n := len(strings.Split(strings.TrimRight(string(data), "\n"), "\n")); n != 4 {
		t.Errorf("expected 4 csv lines, got %d", n)
	}

	mustRun(t, "export", filepath.Join(dir, "tasks.json"))
	if _, err := os.Stat(filepath.Join(dir, "tasks.json")); err != nil {
		t.Errorf("expected format to follow the extension: %v", err)
	}
	mustRun(t, "export", "-format", "pdf", filepath.Join(dir, "report"))
	if _, err := os.Stat(filepath.Join(dir, "report.pdf")); err != nil {
		t.Errorf("expected pdf export: %v", err)
	}
}

func TestStatus(t *testing.T) {
	setupTestConfig(t, "tasks.todo")

	out := mustRun(t, "status")
	for _, want := range []string{"Total:      3", "Active:     3", "Completed:  0", "Up next:", "Finish project"} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q:\n%s", want, out)
		}
	}
}

func TestTUICommand(t *testing.T) {
	setupTestConfig(t, "tasks.todo")
	cfg.DefaultFilter = "Active"

	original := runTUI
	t.Cleanup(func() { runTUI = original })

	called := false
	runTUI = func(a *app.App, filter models.StatusFilter) error {
		called = true
		if filter != models.FilterActive {
			t.Errorf("expected Active filter, got %s", filter)
		}
		if len(a.Tasks()) != 3 {
			t.Errorf("expected seeded app, got %d tasks", len(a.Tasks()))
		}
		return nil
	}

	mustRun(t, "tui")
	if !called {
		t.Error("expected TUI to run")
	}
}

func TestInit(t *testing.T) {
	setupTestConfig(t, "unused.todo")
	dir := t.TempDir()

	out := mustRun(t, "init", dir)
	if !strings.Contains(out, "initialized successfully") {
		t.Errorf("unexpected init output: %s", out)
	}

	loaded, err := config.LoadFile(filepath.Join(dir, config.ProjectConfigFile))
	if err != nil {
		t.Fatalf("failed to load generated config: %v", err)
	}
	if loaded.DataFile != filepath.Join(".todo", "tasks.todo") {
		t.Errorf("unexpected data_file %s", loaded.DataFile)
	}

	a := app.New()
	if err := a.LoadAll(filepath.Join(dir, ".todo", "tasks.todo")); err != nil {
		t.Fatalf("failed to load created task file: %v", err)
	}
	if len(a.Tasks()) != 3 {
		t.Errorf("expected 3 sample tasks, got %d", len(a.Tasks()))
	}

	out = mustRun(t, "init", dir)
	if !strings.Contains(out, "Kept existing task file") {
		t.Errorf("expected second init to keep the file: %s", out)
	}
}

func TestInitEmpty(t *testing.T) {
	setupTestConfig(t, "unused.todo")
	dir := t.TempDir()

	mustRun(t, "init", "-empty", dir)

	a := app.New()
	if err := a.LoadAll(filepath.Join(dir, ".todo", "tasks.todo")); err != nil {
		t.Fatalf("failed to load created task file: %v", err)
	}
	if len(a.Tasks()) != 0 {
		t.Errorf("expected empty task file, got %d", len(a.Tasks()))
	}
}

func TestMenuSummary(t *testing.T) {
	dataFile := setupTestConfig(t, "tasks.todo")

	summary := menuSummary()
	if !summary.Missing || summary.Err != nil {
		t.Errorf("expected missing file summary, got %+v", summary)
	}
	if _, err := os.Stat(dataFile); !os.IsNotExist(err) {
		t.Errorf("expected the menu not to create the data file")
	}

	mustRun(t, "list")
	mustRun(t, "toggle", listJSON(t)[0].ID)
	summary = menuSummary()
	if summary.Missing || summary.Err != nil {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.Counts.Total != 3 || summary.Counts.Completed != 1 {
		t.Errorf("unexpected counts: %+v", summary.Counts)
	}

	os.WriteFile(dataFile, []byte("garbage\n"), 0644)
	if summary = menuSummary(); !errors.Is(summary.Err, models.ErrInvalidData) {
		t.Errorf("expected invalid data error, got %v", summary.Err)
	}
}
