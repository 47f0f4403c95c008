package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ldi/todo/internal/app"
	"github.com/ldi/todo/internal/export"
	"github.com/ldi/todo/pkg/models"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewServer creates a new MCP server exposing the task list of a.
func NewServer(a *app.App, version string) *server.MCPServer {
	s := server.NewMCPServer("todo", version)

	// Task Management
	s.AddTool(mcp.NewTool("create_task",
		mcp.WithDescription("Create a new task."),
		mcp.WithString("title", mcp.Description("Task title (must not be blank)"), mcp.Required()),
		mcp.WithString("description", mcp.Description("Free-form description")),
		mcp.WithString("due_date", mcp.Description("Due date as YYYY-MM-DD")),
		mcp.WithString("priority", mcp.Description("LOW, MEDIUM or HIGH (defaults to MEDIUM)")),
		mcp.WithBoolean("completed", mcp.Description("Create the task already completed")),
	), createTaskHandler(a))

	s.AddTool(mcp.NewTool("edit_task",
		mcp.WithDescription("Edit an existing task. Omitted fields keep their current value; an empty due_date clears it."),
		mcp.WithString("id", mcp.Description("Task id or unique id prefix"), mcp.Required()),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("description", mcp.Description("New description")),
		mcp.WithString("due_date", mcp.Description("New due date as YYYY-MM-DD")),
		mcp.WithString("priority", mcp.Description("New priority")),
		mcp.WithBoolean("completed", mcp.Description("New completion state")),
	), editTaskHandler(a))

	s.AddTool(mcp.NewTool("delete_task",
		mcp.WithDescription("Delete a task."),
		mcp.WithString("id", mcp.Description("Task id or unique id prefix"), mcp.Required()),
	), deleteTaskHandler(a))

	s.AddTool(mcp.NewTool("toggle_task",
		mcp.WithDescription("Flip a task between active and completed."),
		mcp.WithString("id", mcp.Description("Task id or unique id prefix"), mcp.Required()),
	), toggleTaskHandler(a))

	s.AddTool(mcp.NewTool("get_task",
		mcp.WithDescription("Get a single task by id."),
		mcp.WithString("id", mcp.Description("Task id or unique id prefix"), mcp.Required()),
	), getTaskHandler(a))

	s.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List tasks in display order: active before completed, then by priority and due date."),
		mcp.WithString("query", mcp.Description("Case-insensitive text matched against title and description")),
		mcp.WithString("status", mcp.Description("All, Active or Completed (defaults to All)")),
	), listTasksHandler(a))

	// Files
	s.AddTool(mcp.NewTool("save_tasks",
		mcp.WithDescription("Save all tasks. The extension picks the format: .db/.sqlite for SQLite, anything else for the JSON lines snapshot."),
		mcp.WithString("path", mcp.Description("Target file (defaults to the data file)")),
	), saveTasksHandler(a))

	s.AddTool(mcp.NewTool("load_tasks",
		mcp.WithDescription("Replace all tasks with the contents of a file. Nothing changes if the file is invalid."),
		mcp.WithString("path", mcp.Description("Source file (defaults to the data file)")),
	), loadTasksHandler(a))

	s.AddTool(mcp.NewTool("export_tasks",
		mcp.WithDescription("Export all tasks in insertion order."),
		mcp.WithString("path", mcp.Description("Target file; the format extension is added when missing"), mcp.Required()),
		mcp.WithString("format", mcp.Description("csv, json or pdf (defaults to csv)")),
	), exportTasksHandler(a))

	return s
}

// Serve starts the MCP server on stdio.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func arguments(request mcp.CallToolRequest) map[string]any {
	args, _ := request.Params.Arguments.(map[string]any)
	return args
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func createTaskHandler(a *app.App) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		fields := models.TaskFields{
			Title:       mcp.ParseString(request, "title", ""),
			Description: mcp.ParseString(request, "description", ""),
			DueDate:     mcp.ParseString(request, "due_date", ""),
			Priority:    mcp.ParseString(request, "priority", ""),
		}
		if completed, ok := arguments(request)["completed"].(bool); ok {
			fields.Completed = &completed
		}

		t, err := a.CreateTask(fields)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(t)
	}
}

func editTaskHandler(a *app.App) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := a.ResolveID(mcp.ParseString(request, "id", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		current, err := a.Task(id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		fields := models.FieldsOf(current)
		args := arguments(request)
		if title, ok := args["title"].(string); ok {
			fields.Title = title
		}
		if description, ok := args["description"].(string); ok {
			fields.Description = description
		}
		if due, ok := args["due_date"].(string); ok {
			fields.DueDate = due
		}
		if priority, ok := args["priority"].(string); ok {
			fields.Priority = priority
		}
		if completed, ok := args["completed"].(bool); ok {
			fields.Completed = &completed
		}

		t, err := a.EditTask(id, fields)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(t)
	}
}

func deleteTaskHandler(a *app.App) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := a.ResolveID(mcp.ParseString(request, "id", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := a.DeleteTask(id); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Task %s deleted", id)), nil
	}
}

func toggleTaskHandler(a *app.App) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := a.ResolveID(mcp.ParseString(request, "id", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		t, err := a.ToggleTask(id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(t)
	}
}

func getTaskHandler(a *app.App) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := a.ResolveID(mcp.ParseString(request, "id", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		t, err := a.Task(id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(t)
	}
}

func listTasksHandler(a *app.App) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		status, err := models.ParseStatusFilter(mcp.ParseString(request, "status", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		query := mcp.ParseString(request, "query", "")

		return jsonResult(map[string]any{
			"tasks":  a.ComputeView(query, status),
			"counts": a.Counts(),
		})
	}
}

func saveTasksHandler(a *app.App) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path := mcp.ParseString(request, "path", a.DataFile())
		if path == "" {
			return mcp.NewToolResultError("no path given and no data file configured"), nil
		}
		if err := a.SaveAll(path); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Saved %d tasks to %s", len(a.Tasks()), path)), nil
	}
}

func loadTasksHandler(a *app.App) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path := mcp.ParseString(request, "path", a.DataFile())
		if path == "" {
			return mcp.NewToolResultError("no path given and no data file configured"), nil
		}
		if err := a.LoadAll(path); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Loaded %d tasks from %s", len(a.Tasks()), path)), nil
	}
}

func exportTasksHandler(a *app.App) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path := mcp.ParseString(request, "path", "")
		if path == "" {
			return mcp.NewToolResultError("path is required"), nil
		}
		format, err := export.ParseFormat(mcp.ParseString(request, "format", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		written, err := a.Export(path, format)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Exported %d tasks to %s", len(a.Tasks()), written)), nil
	}
}
