package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ldi/todo/internal/app"
	"github.com/ldi/todo/internal/config"
	"github.com/ldi/todo/internal/export"
	"github.com/ldi/todo/internal/logging"
	"github.com/ldi/todo/internal/mcp"
	"github.com/ldi/todo/internal/server"
	"github.com/ldi/todo/internal/ui"
	"github.com/ldi/todo/pkg/models"
)

var version = "0.1.0"

var (
	cfg    = config.Default()
	logger = logging.Discard()

	// Replaced in tests.
	runTUI  = ui.Run
	runMenu = ui.RunMenu
)

func main() {
	flag.Usage = usage

	loaded, args, err := config.Load(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cfg = loaded
	logger = logging.New(os.Stderr, cfg.LogOptions())
	logger.Debug("configuration loaded", "data_file", cfg.DataFile, "sources", cfg.Sources)

	var command string
	if len(args) == 0 {
		selected, err := runMenu(menuSummary())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error running menu: %v\n", err)
			os.Exit(1)
		}
		if selected == "" {
			os.Exit(0)
		}
		command = selected
	} else {
		command = args[0]
		args = args[1:]
	}

	if err := run(command, args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `Usage: todo [global flags] <command> [arguments]

Commands:
  init [dir]                      Create a project config and data file
  tui                             Open the interactive task list
  list [-q text] [-status s]      Print tasks in display order
  add [flags] <title>             Add a task
  edit <id> [flags]               Change fields of a task
  delete <id>                     Delete a task
  toggle <id>                     Flip a task between active and completed
  save <path>                     Save all tasks (.db/.sqlite for SQLite)
  load <path>                     Replace all tasks with a saved file
  export [-format f] <path>       Export tasks as csv, json or pdf
  status                          Summarize the task list
  mcp                             Serve tools over MCP on stdio
  web [-port p]                   Serve the read-only web view
  version                         Print the version

Global flags:
`)
	flag.PrintDefaults()
}

func run(command string, args []string) error {
	switch command {
	case "init":
		return runInit(args)
	case "tui":
		return runTUICommand(args)
	case "list", "ls":
		return runList(args)
	case "add":
		return runAdd(args)
	case "edit":
		return runEdit(args)
	case "delete", "rm":
		return runDelete(args)
	case "toggle", "done":
		return runToggle(args)
	case "save":
		return runSave(args)
	case "load":
		return runLoad(args)
	case "export":
		return runExport(args)
	case "status":
		return runStatus(args)
	case "mcp":
		return runMCP(args)
	case "web":
		return runWeb(args)
	case "version":
		fmt.Printf("todo %s\n", version)
		return nil
	}
	return fmt.Errorf("unknown command: %s", command)
}

// openApp loads the configured data file. A data file that does not exist
// yet is seeded with the sample tasks when seed_samples is on.
func openApp() (*app.App, error) {
	a := app.New(
		app.WithLogger(logger),
		app.WithDataFile(cfg.DataFile),
		app.WithAutosave(cfg.Autosave),
	)
	created, err := a.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", cfg.DataFile, err)
	}
	if created && cfg.SeedSamples {
		if err := a.SeedSamples(models.Today()); err != nil {
			return nil, fmt.Errorf("failed to seed sample tasks: %w", err)
		}
		logger.Info("seeded sample tasks", "path", cfg.DataFile)
	}
	return a, nil
}

// menuSummary reads the data file for the launcher without creating or
// seeding it.
func menuSummary() ui.MenuSummary {
	summary := ui.MenuSummary{DataFile: cfg.DataFile}
	if cfg.DataFile == "" {
		return summary
	}
	if _, err := os.Stat(cfg.DataFile); errors.Is(err, os.ErrNotExist) {
		summary.Missing = true
		return summary
	}

	a := app.New(app.WithLogger(logger))
	if err := a.LoadAll(cfg.DataFile); err != nil {
		summary.Err = err
		return summary
	}
	summary.Counts = a.Counts()
	return summary
}

// commit makes a one-shot change durable. With autosave on the change is
// already on disk unless the autosave failed.
func commit(a *app.App) error {
	if cfg.Autosave {
		if err := a.LastSaveError(); err != nil {
			return fmt.Errorf("failed to save %s: %w", cfg.DataFile, err)
		}
		return nil
	}
	return a.SaveAll(cfg.DataFile)
}

func oneArg(args []string, what string) (string, error) {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return "", fmt.Errorf("expected exactly one %s", what)
	}
	return args[0], nil
}

func runInit(args []string) error {
	initFlags := flag.NewFlagSet("init", flag.ContinueOnError)
	empty := initFlags.Bool("empty", false, "Do not seed the sample tasks")
	if err := initFlags.Parse(args); err != nil {
		return err
	}

	targetDir := "."
	if initFlags.NArg() > 0 {
		targetDir = initFlags.Arg(0)
	}

	todoDir := filepath.Join(targetDir, ".todo")
	if err := os.MkdirAll(todoDir, 0755); err != nil {
		return fmt.Errorf("failed to create .todo directory: %w", err)
	}
	fmt.Println("✓ Created .todo/ directory")

	configPath := filepath.Join(targetDir, config.ProjectConfigFile)
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		content := fmt.Sprintf("data_file = %q\nautosave = true\n", filepath.Join(".todo", "tasks.todo"))
		if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", config.ProjectConfigFile, err)
		}
		fmt.Printf("✓ Created %s\n", config.ProjectConfigFile)
	}

	dataPath := filepath.Join(todoDir, "tasks.todo")
	if _, err := os.Stat(dataPath); err == nil {
		fmt.Printf("✓ Kept existing task file %s\n", dataPath)
		return nil
	}

	a := app.New(app.WithLogger(logger))
	if !*empty {
		if err := a.SeedSamples(models.Today()); err != nil {
			return err
		}
	}
	if err := a.SaveAll(dataPath); err != nil {
		return err
	}
	fmt.Printf("✓ Created task file %s with %d tasks\n", dataPath, len(a.Tasks()))
	fmt.Println("✓ todo initialized successfully")
	return nil
}

func runTUICommand(args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	return runTUI(a, cfg.StatusFilter())
}

func runList(args []string) error {
	listFlags := flag.NewFlagSet("list", flag.ContinueOnError)
	query := listFlags.String("q", "", "Only tasks whose title or description contains this text")
	status := listFlags.String("status", cfg.DefaultFilter, "All, Active or Completed")
	asJSON := listFlags.Bool("json", false, "Print JSON instead of a table")
	if err := listFlags.Parse(args); err != nil {
		return err
	}

	filter, err := models.ParseStatusFilter(*status)
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	tasks := a.ComputeView(*query, filter)

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(tasks)
	}

	fmt.Printf("%-8s %-4s %-8s %-10s %s\n", "ID", "DONE", "PRIORITY", "DUE", "TITLE")
	fmt.Println("----------------------------------------------------------------------")
	for _, t := range tasks {
		fmt.Println(formatRow(t))
	}
	return nil
}

func formatRow(t *models.Task) string {
	done := "[ ]"
	if t.Completed {
		done = "[x]"
	}
	due := "-"
	if t.DueDate != nil {
		due = t.DueDate.String()
	}
	return fmt.Sprintf("%-8s %-4s %-8s %-10s %s", shortID(t.ID), done, t.Priority, due, t.Title)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func runAdd(args []string) error {
	addFlags := flag.NewFlagSet("add", flag.ContinueOnError)
	description := addFlags.String("d", "", "Description")
	due := addFlags.String("due", "", "Due date (YYYY-MM-DD)")
	priority := addFlags.String("p", "", "Priority: LOW, MEDIUM or HIGH")
	done := addFlags.Bool("done", false, "Create the task already completed")
	if err := addFlags.Parse(args); err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	t, err := a.CreateTask(models.TaskFields{
		Title:       strings.Join(addFlags.Args(), " "),
		Description: *description,
		DueDate:     *due,
		Priority:    *priority,
		Completed:   done,
	})
	if err != nil {
		return err
	}
	if err := commit(a); err != nil {
		return err
	}
	fmt.Printf("✓ Added %s %q\n", shortID(t.ID), t.Title)
	return nil
}

func runEdit(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("expected a task id")
	}
	ref := args[0]

	editFlags := flag.NewFlagSet("edit", flag.ContinueOnError)
	title := editFlags.String("title", "", "New title")
	description := editFlags.String("d", "", "New description")
	due := editFlags.String("due", "", "New due date (YYYY-MM-DD, empty to clear)")
	priority := editFlags.String("p", "", "New priority")
	done := editFlags.Bool("done", false, "New completion state")
	if err := editFlags.Parse(args[1:]); err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	id, err := a.ResolveID(ref)
	if err != nil {
		return err
	}
	current, err := a.Task(id)
	if err != nil {
		return err
	}

	fields := models.FieldsOf(current)
	editFlags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			fields.Title = *title
		case "d":
			fields.Description = *description
		case "due":
			fields.DueDate = *due
		case "p":
			fields.Priority = *priority
		case "done":
			fields.Completed = done
		}
	})

	t, err := a.EditTask(id, fields)
	if err != nil {
		return err
	}
	if err := commit(a); err != nil {
		return err
	}
	fmt.Printf("✓ Updated %s %q\n", shortID(t.ID), t.Title)
	return nil
}

func runDelete(args []string) error {
	ref, err := oneArg(args, "task id")
	if err != nil {
		return err
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	id, err := a.ResolveID(ref)
	if err != nil {
		return err
	}
	t, err := a.Task(id)
	if err != nil {
		return err
	}
	if err := a.DeleteTask(id); err != nil {
		return err
	}
	if err := commit(a); err != nil {
		return err
	}
	fmt.Printf("✓ Deleted %s %q\n", shortID(id), t.Title)
	return nil
}

func runToggle(args []string) error {
	ref, err := oneArg(args, "task id")
	if err != nil {
		return err
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	id, err := a.ResolveID(ref)
	if err != nil {
		return err
	}
	t, err := a.ToggleTask(id)
	if err != nil {
		return err
	}
	if err := commit(a); err != nil {
		return err
	}
	state := "active"
	if t.Completed {
		state = "completed"
	}
	fmt.Printf("✓ Marked %s %q %s\n", shortID(id), t.Title, state)
	return nil
}

func runSave(args []string) error {
	path, err := oneArg(args, "target path")
	if err != nil {
		return err
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	if err := a.SaveAll(path); err != nil {
		return err
	}
	fmt.Printf("✓ Saved %d tasks to %s\n", len(a.Tasks()), path)
	return nil
}

func runLoad(args []string) error {
	path, err := oneArg(args, "source path")
	if err != nil {
		return err
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	if err := a.LoadAll(path); err != nil {
		return err
	}
	if err := commit(a); err != nil {
		return err
	}
	fmt.Printf("✓ Loaded %d tasks from %s\n", len(a.Tasks()), path)
	return nil
}

func runExport(args []string) error {
	exportFlags := flag.NewFlagSet("export", flag.ContinueOnError)
	formatName := exportFlags.String("format", "", "csv, json or pdf (default: from the file extension, else csv)")
	if err := exportFlags.Parse(args); err != nil {
		return err
	}
	path, err := oneArg(exportFlags.Args(), "target path")
	if err != nil {
		return err
	}

	format := export.FormatFromPath(path)
	if *formatName != "" {
		if format, err = export.ParseFormat(*formatName); err != nil {
			return err
		}
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	written, err := a.Export(path, format)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Exported %d tasks to %s\n", len(a.Tasks()), written)
	return nil
}

func runStatus(args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	c := a.Counts()

	fmt.Println("todo status")
	fmt.Println("===========")
	fmt.Printf("Data file:  %s\n", cfg.DataFile)
	fmt.Printf("Total:      %d\n", c.Total)
	fmt.Printf("Active:     %d\n", c.Active)
	fmt.Printf("Completed:  %d\n", c.Completed)
	fmt.Printf("Overdue:    %d\n", c.Overdue)

	next := a.ComputeView("", models.FilterActive)
	if len(next) > 0 {
		fmt.Println("\nUp next:")
		for i, t := range next {
			if i >= 5 {
				break
			}
			fmt.Printf("  - %s\n", formatRow(t))
		}
	}
	return nil
}

func runMCP(args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	s := mcp.NewServer(a, version)
	return mcp.Serve(s)
}

func runWeb(args []string) error {
	webFlags := flag.NewFlagSet("web", flag.ContinueOnError)
	port := webFlags.String("port", cfg.WebPort, "Port to listen on")
	if err := webFlags.Parse(args); err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.NewServer(a, logger.With("component", "web"))
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	fmt.Printf("Serving tasks on http://localhost:%s\n", *port)
	if err := srv.Start(fmt.Sprintf(":%s", *port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
