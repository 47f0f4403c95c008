package models

import "strings"

// StatusFilter narrows a task list by completion state.
type StatusFilter string

const (
	FilterAll       StatusFilter = "All"
	FilterActive    StatusFilter = "Active"
	FilterCompleted StatusFilter = "Completed"
)

var StatusFilters = []StatusFilter{FilterAll, FilterActive, FilterCompleted}

// ParseStatusFilter is case-insensitive; an empty string means FilterAll.
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return FilterAll, nil
	case "active":
		return FilterActive, nil
	case "completed", "done":
		return FilterCompleted, nil
	}
	return "", &ValidationError{Field: "status", Reason: "invalid status filter"}
}

func (f StatusFilter) Matches(t *Task) bool {
	switch f {
	case FilterActive:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	}
	return true
}

// Next cycles All -> Active -> Completed -> All.
func (f StatusFilter) Next() StatusFilter {
	for i, s := range StatusFilters {
		if s == f {
			return StatusFilters[(i+1)%len(StatusFilters)]
		}
	}
	return FilterAll
}
