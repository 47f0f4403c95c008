package models

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewTask(t *testing.T) {
	task, err := NewTask(TaskFields{
		Title:       "  Buy groceries  ",
		Description: " Milk, bread, eggs ",
		DueDate:     "2025-03-14",
		Priority:    "high",
	})
	if err != nil {
		t.Fatalf("NewTask failed: %v", err)
	}

	if len(task.ID) != 36 || !strings.Contains(task.ID, "-") {
		t.Errorf("Expected UUID id, got %q", task.ID)
	}
	if task.Title != "Buy groceries" {
		t.Errorf("Expected trimmed title, got %q", task.Title)
	}
	if task.Description != "Milk, bread, eggs" {
		t.Errorf("Expected trimmed description, got %q", task.Description)
	}
	if task.DueDate == nil || *task.DueDate != NewDate(2025, time.March, 14) {
		t.Errorf("Expected due date 2025-03-14, got %v", task.DueDate)
	}
	if task.Priority != PriorityHigh {
		t.Errorf("Expected HIGH, got %s", task.Priority)
	}
	if task.Completed {
		t.Errorf("Expected new task to be incomplete")
	}
}

func TestNewTaskDefaults(t *testing.T) {
	task, err := NewTask(TaskFields{Title: "Call mom"})
	if err != nil {
		t.Fatalf("NewTask failed: %v", err)
	}
	if task.Priority != PriorityMedium {
		t.Errorf("Expected default priority MEDIUM, got %s", task.Priority)
	}
	if task.DueDate != nil {
		t.Errorf("Expected no due date, got %v", task.DueDate)
	}
}

func TestNewTaskUniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		task, err := NewTask(TaskFields{Title: "x"})
		if err != nil {
			t.Fatalf("NewTask failed: %v", err)
		}
		if seen[task.ID] {
			t.Fatalf("Duplicate id %s", task.ID)
		}
		seen[task.ID] = true
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		fields TaskFields
		reason string
	}{
		{"empty title", TaskFields{Title: ""}, "empty title"},
		{"whitespace title", TaskFields{Title: " \t\n"}, "empty title"},
		{"bad date", TaskFields{Title: "a", DueDate: "14/03/2025"}, "invalid date"},
		{"impossible date", TaskFields{Title: "a", DueDate: "2025-02-30"}, "invalid date"},
		{"bad priority", TaskFields{Title: "a", Priority: "urgent"}, "invalid priority"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTask(tt.fields)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !errors.Is(err, ErrValidation) {
				t.Errorf("Expected ErrValidation, got %v", err)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Reason != tt.reason {
				t.Errorf("Expected reason %q, got %v", tt.reason, err)
			}
		})
	}
}

func TestApplyKeepsID(t *testing.T) {
	task, _ := NewTask(TaskFields{Title: "Finish project"})
	id := task.ID

	done := true
	v, err := TaskFields{Title: "Ship it", Priority: "LOW", Completed: &done}.Validate()
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	task.Apply(v)

	if task.ID != id {
		t.Errorf("Expected id %s to be preserved, got %s", id, task.ID)
	}
	if task.Title != "Ship it" || task.Priority != PriorityLow || !task.Completed {
		t.Errorf("Unexpected task after apply: %+v", task)
	}

	v, _ = TaskFields{Title: "Ship it again"}.Validate()
	task.Apply(v)
	if !task.Completed {
		t.Errorf("Expected nil Completed to leave completion unchanged")
	}
}

func TestFieldsOfRoundTrip(t *testing.T) {
	d := NewDate(2024, time.December, 1)
	task := &Task{ID: "id-1", Title: "t", Description: "d", DueDate: &d, Priority: PriorityLow, Completed: true}

	v, err := FieldsOf(task).Validate()
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	clone := &Task{ID: task.ID}
	clone.Apply(v)

	if clone.Title != task.Title || clone.Description != task.Description ||
		*clone.DueDate != *task.DueDate || clone.Priority != task.Priority || clone.Completed != task.Completed {
		t.Errorf("Expected %+v, got %+v", task, clone)
	}
}

func TestTaskValidate(t *testing.T) {
	if err := (&Task{ID: "a", Title: "b", Priority: PriorityLow}).Validate(); err != nil {
		t.Errorf("Expected valid task, got %v", err)
	}
	if err := (&Task{ID: "", Title: "b", Priority: PriorityLow}).Validate(); err == nil {
		t.Error("Expected error for empty id")
	}
	if err := (&Task{ID: "a", Title: "b"}).Validate(); err == nil {
		t.Error("Expected error for zero priority")
	}
}

func TestTaskJSON(t *testing.T) {
	d := NewDate(2025, time.January, 2)
	task := &Task{ID: "abc", Title: "Say \"hi\"", DueDate: &d, Priority: PriorityHigh}

	data, err := json.Marshal(task)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	s := string(data)
	if !strings.Contains(s, `"due_date":"2025-01-02"`) {
		t.Errorf("Expected due date as string, got %s", s)
	}
	if !strings.Contains(s, `"priority":"HIGH"`) {
		t.Errorf("Expected priority by name, got %s", s)
	}

	var decoded Task
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.Priority != PriorityHigh || *decoded.DueDate != d || decoded.Title != task.Title {
		t.Errorf("Unexpected decoded task: %+v", decoded)
	}
}

func TestPriorityUnmarshalStrict(t *testing.T) {
	var p Priority
	if err := p.UnmarshalText([]byte("")); err == nil {
		t.Error("Expected error for missing priority")
	}
	if err := p.UnmarshalText([]byte("low")); err != nil || p != PriorityLow {
		t.Errorf("Expected LOW, got %s (%v)", p, err)
	}
}

func TestDateCompare(t *testing.T) {
	a := NewDate(2024, time.February, 28)
	b := a.AddDays(1)
	if b.String() != "2024-02-29" {
		t.Errorf("Expected leap day, got %s", b)
	}
	if !a.Before(b) || b.Before(a) || a.Compare(a) != 0 {
		t.Errorf("Unexpected ordering between %s and %s", a, b)
	}
	if NewDate(2023, time.December, 31).Compare(NewDate(2024, time.January, 1)) != -1 {
		t.Error("Expected year to dominate comparison")
	}
}

func TestStatusFilter(t *testing.T) {
	f, err := ParseStatusFilter("ACTIVE")
	if err != nil || f != FilterActive {
		t.Errorf("Expected Active, got %s (%v)", f, err)
	}
	if f, _ := ParseStatusFilter(""); f != FilterAll {
		t.Errorf("Expected empty filter to mean All, got %s", f)
	}
	if _, err := ParseStatusFilter("someday"); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected validation error, got %v", err)
	}

	done := &Task{Completed: true}
	open := &Task{}
	if !FilterCompleted.Matches(done) || FilterCompleted.Matches(open) {
		t.Error("Completed filter mismatch")
	}
	if FilterActive.Matches(done) || !FilterActive.Matches(open) {
		t.Error("Active filter mismatch")
	}
	if FilterCompleted.Next() != FilterAll {
		t.Errorf("Expected filter cycle to wrap to All")
	}
}
