package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cleantrack-dev/cleantrack/internal/policy"
)

func TestCompleteTaskOnce(t *testing.T) {
	h := newHarness(t)
	owner := h.signup(t, "Olive", "olive@example.com")
	emp := h.employee(t, owner, "Eve", "eve@example.com")
	pid := h.property(t, owner, "Loft")

	ids := []uint{emp.ID}

	if _, err := h.svc.EditProperty(h.ctx, owner, pid, PropertyUpdate{EmployeeIDs: &ids}); err != nil {
		t.Fatalf("assign: %v", err)
	}

	task, err := h.svc.CreateTask(h.ctx, emp, pid, "Change linen")

	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if task.Status != policy.TaskPending || task.CreatedByID != emp.ID {
		t.Fatalf("unexpected task %+v", task)
	}

	done, err := h.svc.CompleteTask(h.ctx, emp, task.ID)

	if err != nil {
		t.Fatalf("complete: %v", err)
	}

	if done.Status != policy.TaskCompleted || *done.CompletedByID != emp.ID || !done.CompletedAt.Equal(now) {
		t.Fatalf("unexpected completion %+v", done)
	}

	_, err = h.svc.CompleteTask(h.ctx, owner, task.ID)
	expectKind(t, err, policy.ErrAlreadyCompleted)

	stored, _ := h.repo.GetTask(h.ctx, task.ID)

	if *stored.CompletedByID != emp.ID {
		t.Fatalf("second completion overwrote the first: %+v", stored)
	}
}

func TestCompleteTaskRequiresAccess(t *testing.T) {
	h := newHarness(t)
	owner := h.signup(t, "Olive", "olive@example.com")
	other := h.signup(t, "Oscar", "oscar@example.com")
	emp := h.employee(t, owner, "Eve", "eve@example.com")
	pid := h.property(t, owner, "Loft")

	task, err := h.svc.CreateTask(h.ctx, owner, pid, "Mop")

	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = h.svc.CompleteTask(h.ctx, emp, task.ID)
	expectKind(t, err, policy.ErrForbidden)

	_, err = h.svc.CompleteTask(h.ctx, other, task.ID)
	expectKind(t, err, policy.ErrNotFound)

	_, err = h.svc.CreateTask(h.ctx, emp, pid, "Sneaky")
	expectKind(t, err, policy.ErrForbidden)

	_, err = h.svc.CompleteTask(h.ctx, owner, 999)
	expectKind(t, err, policy.ErrNotFound)

	_, err = h.svc.CreateTask(h.ctx, owner, pid, "   ")
	expectKind(t, err, policy.ErrValidation)
}

func TestConcurrentCompletionHasOneWinner(t *testing.T) {
	h := newHarness(t)
	owner := h.signup(t, "Olive", "olive@example.com")
	pid := h.property(t, owner, "Loft")

	task, err := h.svc.CreateTask(h.ctx, owner, pid, "Windows")

	if err != nil {
		t.Fatalf("create: %v", err)
	}

	const workers = 8

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := h.svc.CompleteTask(h.ctx, owner, task.ID)

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				successes++
			case errors.Is(err, policy.ErrAlreadyCompleted):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}

	wg.Wait()

	if successes != 1 || conflicts != workers-1 {
		t.Fatalf("expected 1 success and %d conflicts, got %d and %d", workers-1, successes, conflicts)
	}
}

func TestListTasksFilters(t *testing.T) {
	h := newHarness(t)
	owner := h.signup(t, "Olive", "olive@example.com")
	pid := h.property(t, owner, "Loft")

	create := func(title string) uint {
		task, err := h.svc.CreateTask(h.ctx, owner, pid, title)

		if err != nil {
			t.Fatalf("create %s: %v", title, err)
		}

		return task.ID
	}

	pending := create("pending")
	lateOnTenth := create("late on the tenth")
	onEleventh := create("on the eleventh")

	h.repo.SetTaskCompletion(lateOnTenth, owner.ID, time.Date(2024, 3, 10, 23, 59, 59, 500_000_000, time.UTC))
	h.repo.SetTaskCompletion(onEleventh, owner.ID, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC))

	list := func(status, start, end string) []uint {
		t.Helper()

		filter, err := policy.ParseTaskFilter(status, start, end)

		if err != nil {
			t.Fatalf("parse filter: %v", err)
		}

		tasks, err := h.svc.ListTasks(h.ctx, owner, pid, filter)

		if err != nil {
			t.Fatalf("list: %v", err)
		}

		ids := make([]uint, 0, len(tasks))
		for _, task := range tasks {
			ids = append(ids, task.ID)
		}
		return ids
	}

	if got := list("", "", ""); len(got) != 1 || got[0] != pending {
		t.Fatalf("pending: %v", got)
	}

	if got := list("completed", "", ""); len(got) != 2 || got[0] != onEleventh {
		t.Fatalf("all completed, newest first: %v", got)
	}

	if got := list("completed", "2024-03-10", "2024-03-10"); len(got) != 1 || got[0] != lateOnTenth {
		t.Fatalf("end of day must be inclusive: %v", got)
	}

	if got := list("completed", "2024-03-11", ""); len(got) != 1 || got[0] != onEleventh {
		t.Fatalf("open end: %v", got)
	}
}
