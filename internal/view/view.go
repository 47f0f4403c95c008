// Package view derives the on-screen task order from the store contents, a
// search query and a status filter.
package view

import (
	"slices"
	"strings"

	"github.com/ldi/todo/pkg/models"
)

// Query is the user-controlled input to Compute.
type Query struct {
	Text   string
	Status models.StatusFilter
}

// Compute filters tasks by status and query, then sorts the survivors:
// incomplete before completed, higher priority first, earlier due date
// first with undated tasks last. Ties keep insertion order. The returned
// slice shares task pointers with the input and nothing is mutated.
func Compute(tasks []*models.Task, query string, status models.StatusFilter) []*models.Task {
	q := strings.ToLower(strings.TrimSpace(query))

	out := make([]*models.Task, 0, len(tasks))
	for _, t := range tasks {
		if !status.Matches(t) {
			continue
		}
		if q != "" && !matches(t, q) {
			continue
		}
		out = append(out, t)
	}

	slices.SortStableFunc(out, compare)
	return out
}

// Run is Compute driven by a Query.
func (q Query) Run(tasks []*models.Task) []*models.Task {
	return Compute(tasks, q.Text, q.Status)
}

func matches(t *models.Task, lowered string) bool {
	if strings.Contains(strings.ToLower(t.Title), lowered) {
		return true
	}
	return t.Description != "" && strings.Contains(strings.ToLower(t.Description), lowered)
}

func compare(a, b *models.Task) int {
	if a.Completed != b.Completed {
		if !a.Completed {
			return -1
		}
		return 1
	}
	if a.Priority != b.Priority {
		if a.Priority > b.Priority {
			return -1
		}
		return 1
	}
	switch {
	case a.DueDate == nil && b.DueDate == nil:
		return 0
	case a.DueDate == nil:
		return 1
	case b.DueDate == nil:
		return -1
	}
	return a.DueDate.Compare(*b.DueDate)
}

// Counts summarizes a task list by completion state.
type Counts struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
	Overdue   int `json:"overdue"`
}

// Count tallies tasks. A task is overdue when it is active and its due date
// is before today.
func Count(tasks []*models.Task, today models.Date) Counts {
	var c Counts
	for _, t := range tasks {
		c.Total++
		if t.Completed {
			c.Completed++
			continue
		}
		c.Active++
		if t.DueDate != nil && t.DueDate.Before(today) {
			c.Overdue++
		}
	}
	return c
}
