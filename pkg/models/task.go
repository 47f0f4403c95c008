package models

import (
	"strings"

	"github.com/google/uuid"
)

type Task struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	DueDate     *Date    `json:"due_date"`
	Priority    Priority `json:"priority"`
	Completed   bool     `json:"completed"`
}

// TaskFields is the user-editable part of a task as it arrives from a form,
// a flag set or a tool call. DueDate and Priority are raw strings; an empty
// DueDate clears the date and an empty Priority means MEDIUM. A nil
// Completed leaves the completion state unchanged.
type TaskFields struct {
	Title       string
	Description string
	DueDate     string
	Priority    string
	Completed   *bool
}

// ValidFields is TaskFields after validation.
type ValidFields struct {
	Title       string
	Description string
	DueDate     *Date
	Priority    Priority
	Completed   *bool
}

// Validate trims and checks the fields. It never returns partially valid
// output: on error the zero ValidFields is returned.
func (f TaskFields) Validate() (ValidFields, error) {
	title := strings.TrimSpace(f.Title)
	if title == "" {
		return ValidFields{}, &ValidationError{Field: "title", Reason: "empty title"}
	}

	var due *Date
	if s := strings.TrimSpace(f.DueDate); s != "" {
		d, err := ParseDate(s)
		if err != nil {
			return ValidFields{}, &ValidationError{Field: "due_date", Reason: "invalid date"}
		}
		due = &d
	}

	priority, err := ParsePriority(f.Priority)
	if err != nil {
		return ValidFields{}, err
	}

	return ValidFields{
		Title:       title,
		Description: strings.TrimSpace(f.Description),
		DueDate:     due,
		Priority:    priority,
		Completed:   f.Completed,
	}, nil
}

// FieldsOf returns the editable fields of t, suitable as the base for a
// partial edit.
func FieldsOf(t *Task) TaskFields {
	f := TaskFields{
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority.String(),
	}
	if t.DueDate != nil {
		f.DueDate = t.DueDate.String()
	}
	completed := t.Completed
	f.Completed = &completed
	return f
}

// NewTask validates fields and returns an incomplete task with a fresh
// random id.
func NewTask(fields TaskFields) (*Task, error) {
	v, err := fields.Validate()
	if err != nil {
		return nil, err
	}
	t := &Task{ID: uuid.NewString()}
	t.Apply(v)
	return t, nil
}

// Apply overwrites the editable fields of t. The id is never touched.
func (t *Task) Apply(v ValidFields) {
	t.Title = v.Title
	t.Description = v.Description
	t.DueDate = v.DueDate
	t.Priority = v.Priority
	if v.Completed != nil {
		t.Completed = *v.Completed
	}
}

// Validate checks the structural invariants of a task that did not come
// through NewTask, e.g. one read from disk.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return &ValidationError{Field: "id", Reason: "empty id"}
	}
	if strings.TrimSpace(t.Title) == "" {
		return &ValidationError{Field: "title", Reason: "empty title"}
	}
	if !t.Priority.Valid() {
		return &ValidationError{Field: "priority", Reason: "invalid priority"}
	}
	return nil
}

// Clone returns a deep copy of t.
func (t *Task) Clone() *Task {
	c := *t
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	return &c
}
