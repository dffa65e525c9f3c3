package policy

import (
	"strings"
	"time"

	"github.com/cleantrack-dev/cleantrack/internal/models"
)

const dateLayout = "2006-01-02"

// TaskFilter selects tasks of one property. Start and End only apply to
// completed tasks and are already normalized: Start at midnight, End at the
// last millisecond of its day.
type TaskFilter struct {
	State TaskState
	Start *time.Time
	End   *time.Time
}

func PendingTasks() TaskFilter {
	return TaskFilter{State: TaskPending}
}

// CompletedTasks builds a completed filter. A nil bound is open.
func CompletedTasks(start, end *time.Time) TaskFilter {
	f := TaskFilter{State: TaskCompleted}

	if start != nil {
		s := startOfDay(*start)
		f.Start = &s
	}

	if end != nil {
		e := endOfDay(*end)
		f.End = &e
	}

	return f
}

// ParseTaskFilter reads the wire form: status "pending" or "completed" (empty
// means pending) plus optional start/end dates for completed tasks.
func ParseTaskFilter(status, startDate, endDate string) (TaskFilter, error) {
	switch TaskState(strings.ToLower(strings.TrimSpace(status))) {
	case "", TaskPending:
		return PendingTasks(), nil
	case TaskCompleted:
	default:
		return TaskFilter{}, Validation("status", "status must be pending or completed")
	}

	start, err := parseDate("start_date", startDate)

	if err != nil {
		return TaskFilter{}, err
	}

	end, err := parseDate("end_date", endDate)

	if err != nil {
		return TaskFilter{}, err
	}

	f := CompletedTasks(start, end)

	if f.Start != nil && f.End != nil && f.Start.After(*f.End) {
		return TaskFilter{}, Validation("start_date", "start_date must not be after end_date")
	}

	return f, nil
}

// Matches applies the filter to one task in memory.
func (f TaskFilter) Matches(task models.Task) bool {
	switch f.State {
	case TaskPending:
		return task.CompletedAt == nil
	case TaskCompleted:
		if task.CompletedByID == nil || task.CompletedAt == nil {
			return false
		}
		if f.Start != nil && task.CompletedAt.Before(*f.Start) {
			return false
		}
		if f.End != nil && task.CompletedAt.After(*f.End) {
			return false
		}
		return true
	default:
		return false
	}
}

func parseDate(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)

	if value == "" {
		return nil, nil
	}

	if t, err := time.Parse(dateLayout, value); err == nil {
		return &t, nil
	}

	t, err := time.Parse(time.RFC3339, value)

	if err != nil {
		return nil, Validation(field, "%s must be a YYYY-MM-DD date", field)
	}

	return &t, nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).Add(24*time.Hour - time.Millisecond)
}
