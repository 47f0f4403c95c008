// Package store holds the authoritative, insertion-ordered task list for a
// session. It is owned by a single goroutine and does no locking.
package store

import (
	"fmt"

	"github.com/ldi/todo/pkg/models"
)

type Store struct {
	tasks    []*models.Task
	onChange func()
}

func New() *Store {
	return &Store{}
}

// SetOnChange registers fn to run after every successful mutation.
func (s *Store) SetOnChange(fn func()) {
	s.onChange = fn
}

func (s *Store) triggerChange() {
	if s.onChange != nil {
		s.onChange()
	}
}

// Add appends t. Ids come from models.NewTask, so no duplicate check is
// done beyond the task's own invariants.
func (s *Store) Add(t *models.Task) error {
	if t == nil {
		return &models.ValidationError{Reason: "nil task"}
	}
	if err := t.Validate(); err != nil {
		return err
	}
	s.tasks = append(s.tasks, t)
	s.triggerChange()
	return nil
}

// Get returns the task with the given id, or a NotFoundError.
func (s *Store) Get(id string) (*models.Task, error) {
	i := s.indexOf(id)
	if i < 0 {
		return nil, &models.NotFoundError{ID: id}
	}
	return s.tasks[i], nil
}

// Update re-validates fields and applies them to the task in place. The
// task is left untouched when validation fails.
func (s *Store) Update(id string, fields models.TaskFields) (*models.Task, error) {
	i := s.indexOf(id)
	if i < 0 {
		return nil, &models.NotFoundError{ID: id}
	}

	v, err := fields.Validate()
	if err != nil {
		return nil, err
	}

	t := s.tasks[i]
	t.Apply(v)
	s.triggerChange()
	return t, nil
}

func (s *Store) Remove(id string) error {
	i := s.indexOf(id)
	if i < 0 {
		return &models.NotFoundError{ID: id}
	}
	s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
	s.triggerChange()
	return nil
}

func (s *Store) ToggleCompleted(id string) (*models.Task, error) {
	i := s.indexOf(id)
	if i < 0 {
		return nil, &models.NotFoundError{ID: id}
	}
	t := s.tasks[i]
	t.Completed = !t.Completed
	s.triggerChange()
	return t, nil
}

// ReplaceAll swaps the whole list, as done by load. Every task must satisfy
// the task invariants and ids must be unique; otherwise an InvalidDataError
// is returned and the current list is kept.
func (s *Store) ReplaceAll(tasks []*models.Task) error {
	seen := make(map[string]struct{}, len(tasks))
	for i, t := range tasks {
		if t == nil {
			return &models.InvalidDataError{Reason: fmt.Sprintf("task %d is empty", i)}
		}
		if err := t.Validate(); err != nil {
			return &models.InvalidDataError{Reason: fmt.Sprintf("task %d: %v", i, err)}
		}
		if _, dup := seen[t.ID]; dup {
			return &models.InvalidDataError{Reason: fmt.Sprintf("duplicate task id %s", t.ID)}
		}
		seen[t.ID] = struct{}{}
	}

	s.tasks = append(make([]*models.Task, 0, len(tasks)), tasks...)
	s.triggerChange()
	return nil
}

// Snapshot returns the tasks in insertion order. The slice is fresh but the
// tasks are shared; callers must not mutate them.
func (s *Store) Snapshot() []*models.Task {
	out := make([]*models.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

func (s *Store) Len() int {
	return len(s.tasks)
}

func (s *Store) indexOf(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
