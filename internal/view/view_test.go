package view

import (
	"testing"
	"time"

	"github.com/ldi/todo/pkg/models"
)

var today = models.NewDate(2025, time.June, 10)

func task(title, desc string, due *models.Date, p models.Priority, done bool) *models.Task {
	return &models.Task{ID: title, Title: title, Description: desc, DueDate: due, Priority: p, Completed: done}
}

func date(offset int) *models.Date {
	d := today.AddDays(offset)
	return &d
}

func titles(tasks []*models.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}

func assertOrder(t *testing.T, got []*models.Task, want ...string) {
	t.Helper()
	gotTitles := titles(got)
	if len(gotTitles) != len(want) {
		t.Fatalf("Expected %v, got %v", want, gotTitles)
	}
	for i := range want {
		if gotTitles[i] != want[i] {
			t.Fatalf("Expected %v, got %v", want, gotTitles)
		}
	}
}

func sample() []*models.Task {
	return []*models.Task{
		task("Buy groceries", "Milk, bread, eggs", nil, models.PriorityMedium, false),
		task("Finish project", "Push final changes to repo", date(2), models.PriorityHigh, false),
		task("Call mom", "Weekly check-in", date(1), models.PriorityLow, false),
	}
}

func TestComputeSampleScenario(t *testing.T) {
	tasks := sample()

	assertOrder(t, Compute(tasks, "", models.FilterAll), "Finish project", "Buy groceries", "Call mom")

	tasks[0].Completed = true
	assertOrder(t, Compute(tasks, "", models.FilterActive), "Finish project", "Call mom")
	assertOrder(t, Compute(tasks, "", models.FilterCompleted), "Buy groceries")
	assertOrder(t, Compute(tasks, "", models.FilterAll), "Finish project", "Call mom", "Buy groceries")
}

func TestComputeQuery(t *testing.T) {
	tasks := sample()

	assertOrder(t, Compute(tasks, "mom", models.FilterAll), "Call mom")
	assertOrder(t, Compute(tasks, "  MOM ", models.FilterAll), "Call mom")
	assertOrder(t, Compute(tasks, "bread", models.FilterAll), "Buy groceries")
	assertOrder(t, Compute(tasks, "   ", models.FilterAll), "Finish project", "Buy groceries", "Call mom")

	if got := Compute(tasks, "nothing matches", models.FilterAll); len(got) != 0 {
		t.Errorf("Expected empty result, got %v", titles(got))
	}
}

func TestComputeEmpty(t *testing.T) {
	got := Compute(nil, "", models.FilterAll)
	if got == nil || len(got) != 0 {
		t.Errorf("Expected empty non-nil slice, got %v", got)
	}
}

func TestComputePriorityDominatesDueDate(t *testing.T) {
	tasks := []*models.Task{
		task("medium dated", "", date(-5), models.PriorityMedium, false),
		task("high undated", "", nil, models.PriorityHigh, false),
	}
	assertOrder(t, Compute(tasks, "", models.FilterAll), "high undated", "medium dated")
}

func TestComputeDueDateOrder(t *testing.T) {
	tasks := []*models.Task{
		task("none", "", nil, models.PriorityMedium, false),
		task("later", "", date(3), models.PriorityMedium, false),
		task("sooner", "", date(1), models.PriorityMedium, false),
	}
	assertOrder(t, Compute(tasks, "", models.FilterAll), "sooner", "later", "none")
}

func TestComputeStable(t *testing.T) {
	var tasks []*models.Task
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		tasks = append(tasks, task(name, "", date(1), models.PriorityMedium, false))
	}
	tasks = append(tasks, task("first", "", date(1), models.PriorityHigh, false))

	assertOrder(t, Compute(tasks, "", models.FilterAll), "first", "a", "b", "c", "d", "e")
}

func TestComputePure(t *testing.T) {
	tasks := sample()
	before := titles(tasks)

	first := Compute(tasks, "", models.FilterAll)
	second := Compute(tasks, "", models.FilterAll)

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("Expected identical output across calls")
		}
	}
	for i, title := range titles(tasks) {
		if before[i] != title {
			t.Fatalf("Expected input order untouched, got %v", titles(tasks))
		}
	}
	if first[0] != tasks[1] {
		t.Errorf("Expected output to reference the stored tasks, not copies")
	}
}

func TestQueryRun(t *testing.T) {
	q := Query{Text: "o", Status: models.FilterActive}
	tasks := sample()
	tasks[2].Completed = true
	assertOrder(t, q.Run(tasks), "Finish project", "Buy groceries")
}

func TestCount(t *testing.T) {
	tasks := sample()
	tasks = append(tasks, task("late", "", date(-1), models.PriorityLow, false))
	tasks = append(tasks, task("late but done", "", date(-3), models.PriorityLow, true))

	c := Count(tasks, today)
	if c.Total != 5 || c.Active != 4 || c.Completed != 1 || c.Overdue != 1 {
		t.Errorf("Unexpected counts: %+v", c)
	}
}
