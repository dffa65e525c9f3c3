package services

import (
	"testing"
	"time"

	"github.com/cleantrack-dev/cleantrack/internal/policy"
)

func TestOwnerDashboardCounts(t *testing.T) {
	h := newHarness(t)
	owner := h.signup(t, "Olive", "olive@example.com")
	h.employee(t, owner, "Eve", "eve@example.com")
	p1 := h.property(t, owner, "One")
	p2 := h.property(t, owner, "Two")

	for _, title := range []string{"a", "b", "c"} {
		if _, err := h.svc.CreateTask(h.ctx, owner, p1, title); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	done, _ := h.svc.CreateTask(h.ctx, owner, p2, "d")

	if _, err := h.svc.CompleteTask(h.ctx, owner, done.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	tasks, _ := h.svc.ListTasks(h.ctx, owner, p1, policy.PendingTasks())

	if _, err := h.svc.CompleteTask(h.ctx, owner, tasks[0].ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	dash, err := h.svc.OwnerDashboard(h.ctx, owner.ID)

	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}

	if len(dash.Employees) != 1 || len(dash.Properties) != 2 {
		t.Fatalf("unexpected dashboard %+v", dash)
	}

	counts := map[uint]int64{}
	for _, p := range dash.Properties {
		counts[p.ID] = *p.PendingTaskCount
	}

	if counts[p1] != 2 || counts[p2] != 0 {
		t.Fatalf("expected P1=2 P2=0, got %v", counts)
	}
}

func TestOwnerDashboardGates(t *testing.T) {
	h := newHarness(t)
	owner := h.signup(t, "Olive", "olive@example.com")
	emp := h.employee(t, owner, "Eve", "eve@example.com")

	_, err := h.svc.OwnerDashboard(h.ctx, emp.ID)
	expectKind(t, err, policy.ErrNotFound)

	_, err = h.svc.OwnerDashboard(h.ctx, 999)
	expectKind(t, err, policy.ErrNotFound)

	expired := now.Add(-24 * time.Hour)
	h.setLimits(t, owner, SubscriptionUpdate{ExpiresAt: OptionalTime{Set: true, Value: &expired}})

	_, err = h.svc.OwnerDashboard(h.ctx, owner.ID)
	expectKind(t, err, policy.ErrSubscriptionExpired)

	// Expiry exactly now is still active.
	h.setLimits(t, owner, SubscriptionUpdate{ExpiresAt: OptionalTime{Set: true, Value: &now}})

	if _, err := h.svc.OwnerDashboard(h.ctx, owner.ID); err != nil {
		t.Fatalf("expiry at now should be active: %v", err)
	}
}

func TestEmployeeDashboard(t *testing.T) {
	h := newHarness(t)
	owner := h.signup(t, "Olive", "olive@example.com")
	emp := h.employee(t, owner, "Eve", "eve@example.com")
	p1 := h.property(t, owner, "One")
	h.property(t, owner, "Two")

	if _, err := h.svc.AssignProperties(h.ctx, owner, emp.ID, []uint{p1}); err != nil {
		t.Fatalf("assign: %v", err)
	}

	if _, err := h.svc.CreateTask(h.ctx, emp, p1, "Vacuum"); err != nil {
		t.Fatalf("create: %v", err)
	}

	dash, err := h.svc.EmployeeDashboard(h.ctx, emp.ID)

	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}

	if dash.Owner.ID != owner.ID || len(dash.Properties) != 1 || dash.Properties[0].ID != p1 {
		t.Fatalf("unexpected dashboard %+v", dash)
	}

	if *dash.Properties[0].PendingTaskCount != 1 {
		t.Fatalf("expected one pending task, got %d", *dash.Properties[0].PendingTaskCount)
	}

	_, err = h.svc.EmployeeDashboard(h.ctx, owner.ID)
	expectKind(t, err, policy.ErrNotFound)
}
