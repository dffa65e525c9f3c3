package services

import (
	"errors"
	"testing"
	"time"

	"github.com/cleantrack-dev/cleantrack/internal/models"
	"github.com/cleantrack-dev/cleantrack/internal/policy"
)

func TestPropertyQuota(t *testing.T) {
	h := newHarness(t)
	owner := h.signup(t, "Olive", "olive@example.com")

	h.property(t, owner, "One")
	h.property(t, owner, "Two")

	_, err := h.svc.CreateProperty(h.ctx, owner, "Three")
	perr := expectKind(t, err, policy.ErrQuotaExceeded)

	if perr.Limit != 2 || perr.Resource != policy.ResourceProperty {
		t.Fatalf("unexpected quota error %+v", perr)
	}

	h.setLimits(t, owner, SubscriptionUpdate{MaxProperties: intPtr(3)})

	if _, err := h.svc.CreateProperty(h.ctx, owner, "Three"); err != nil {
		t.Fatalf("create after raise: %v", err)
	}
}

func TestExpiredOwnerCannotCreate(t *testing.T) {
	h := newHarness(t)
	owner := h.signup(t, "Olive", "olive@example.com")

	expired := now.Add(-time.Minute)
	h.setLimits(t, owner, SubscriptionUpdate{ExpiresAt: OptionalTime{Set: true, Value: &expired}})

	_, err := h.svc.CreateProperty(h.ctx, owner, "One")
	expectKind(t, err, policy.ErrSubscriptionExpired)

	_, err = h.svc.CreateEmployee(h.ctx, owner, EmployeeInput{Name: "Eve", Email: "eve@example.com", Password: "password1"})
	expectKind(t, err, policy.ErrSubscriptionExpired)
}

func TestPropertyAccess(t *testing.T) {
	h := newHarness(t)
	owner := h.signup(t, "Olive", "olive@example.com")
	other := h.signup(t, "Oscar", "oscar@example.com")
	emp := h.employee(t, owner, "Eve", "eve@example.com")
	pid := h.property(t, owner, "Loft")

	_, err := h.svc.GetProperty(h.ctx, other, pid)
	expectKind(t, err, policy.ErrNotFound)

	_, err = h.svc.GetProperty(h.ctx, emp, pid)
	expectKind(t, err, policy.ErrForbidden)

	access, err := h.svc.CheckAccess(h.ctx, emp, pid)

	if err != nil || access.HasAccess {
		t.Fatalf("expected no access before assignment: %+v, %v", access, err)
	}

	ids := []uint{emp.ID}

	if _, err := h.svc.EditProperty(h.ctx, owner, pid, PropertyUpdate{EmployeeIDs: &ids}); err != nil {
		t.Fatalf("assign: %v", err)
	}

	got, err := h.svc.GetProperty(h.ctx, emp, pid)

	if err != nil {
		t.Fatalf("employee read: %v", err)
	}

	if len(got.Employees) != 1 || got.Employees[0].ID != emp.ID {
		t.Fatalf("expected the employee listed, got %+v", got.Employees)
	}

	access, _ = h.svc.CheckAccess(h.ctx, emp, pid)

	if !access.HasAccess || access.Role != models.RoleEmployee {
		t.Fatalf("expected access after assignment: %+v", access)
	}

	name := "Renamed"

	_, err = h.svc.EditProperty(h.ctx, emp, pid, PropertyUpdate{Name: &name})
	expectKind(t, err, policy.ErrForbidden)

	_, err = h.svc.EditProperty(h.ctx, other, pid, PropertyUpdate{Name: &name})
	expectKind(t, err, policy.ErrNotFound)

	err = h.svc.DeleteProperty(h.ctx, emp, pid)
	expectKind(t, err, policy.ErrForbidden)

	_, err = h.svc.CheckAccess(h.ctx, owner, 999)
	expectKind(t, err, policy.ErrNotFound)
}

func TestEditProperty(t *testing.T) {
	h := newHarness(t)
	owner := h.signup(t, "Olive", "olive@example.com")
	other := h.signup(t, "Oscar", "oscar@example.com")
	emp := h.employee(t, owner, "Eve", "eve@example.com")
	stranger := h.employee(t, other, "Sam", "sam@example.com")
	pid := h.property(t, owner, "Loft")

	ids := []uint{emp.ID}
	name := "  Harbour Loft "
	status := "INACTIVE"

	got, err := h.svc.EditProperty(h.ctx, owner, pid, PropertyUpdate{Name: &name, Status: &status, EmployeeIDs: &ids})

	if err != nil {
		t.Fatalf("edit: %v", err)
	}

	if got.Name != "Harbour Loft" || got.Status != models.PropertyInactive || len(got.EmployeeIDs) != 1 {
		t.Fatalf("unexpected property %+v", got)
	}

	if !h.events.saw(pid) {
		t.Fatalf("expected a change notification")
	}

	bad := "archived"

	_, err = h.svc.EditProperty(h.ctx, owner, pid, PropertyUpdate{Status: &bad})
	expectKind(t, err, policy.ErrValidation)

	foreign := []uint{emp.ID, stranger.ID}

	_, err = h.svc.EditProperty(h.ctx, owner, pid, PropertyUpdate{EmployeeIDs: &foreign})
	perr := expectKind(t, err, policy.ErrValidation)

	if perr.Field != "employee_ids" {
		t.Fatalf("expected employee_ids, got %q", perr.Field)
	}

	// A name-only edit keeps the assigned set.
	rename := "Loft"

	got, err = h.svc.EditProperty(h.ctx, owner, pid, PropertyUpdate{Name: &rename})

	if err != nil || len(got.EmployeeIDs) != 1 {
		t.Fatalf("rename dropped assignments: %+v, %v", got, err)
	}

	empty := []uint{}

	got, err = h.svc.EditProperty(h.ctx, owner, pid, PropertyUpdate{EmployeeIDs: &empty})

	if err != nil || len(got.EmployeeIDs) != 0 {
		t.Fatalf("clearing assignments: %+v, %v", got, err)
	}
}

func TestDeletePropertyCascadesTasks(t *testing.T) {
	h := newHarness(t)
	owner := h.signup(t, "Olive", "olive@example.com")
	pid := h.property(t, owner, "Loft")

	task, err := h.svc.CreateTask(h.ctx, owner, pid, "Dust shelves")

	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	if err := h.svc.DeleteProperty(h.ctx, owner, pid); err != nil {
		t.Fatalf("delete: %v", err)
	}

	_, err = h.repo.GetTask(h.ctx, task.ID)
	expectKind(t, err, policy.ErrNotFound)

	err = h.svc.DeleteProperty(h.ctx, owner, pid)
	expectKind(t, err, policy.ErrNotFound)

	// The slot is free again.
	h.property(t, owner, "Two")
	h.property(t, owner, "Three")
}

func TestPendingCountsOnlyReadable(t *testing.T) {
	h := newHarness(t)
	owner := h.signup(t, "Olive", "olive@example.com")
	other := h.signup(t, "Oscar", "oscar@example.com")
	mine := h.property(t, owner, "Mine")
	theirs := h.property(t, other, "Theirs")

	for _, title := range []string{"a", "b"} {
		if _, err := h.svc.CreateTask(h.ctx, owner, mine, title); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	if _, err := h.svc.CreateTask(h.ctx, other, theirs, "c"); err != nil {
		t.Fatalf("create: %v", err)
	}

	counts, err := h.svc.PendingCounts(h.ctx, owner, []uint{mine, theirs, 999, mine})

	if err != nil {
		t.Fatalf("counts: %v", err)
	}

	if len(counts) != 1 || counts[mine] != 2 {
		t.Fatalf("unexpected counts %v", counts)
	}

	_, err = h.svc.PendingCounts(h.ctx, Actor{ID: 1, Role: models.RoleAdmin}, []uint{mine})
	expectKind(t, err, policy.ErrForbidden)
}

func TestStorageFailureIsUnavailable(t *testing.T) {
	h := newHarness(t)
	owner := h.signup(t, "Olive", "olive@example.com")

	h.repo.Fail = errors.New("connection refused")

	_, err := h.svc.ListProperties(h.ctx, owner)
	expectKind(t, err, policy.ErrStorageUnavailable)

	if !policy.Transient(err) {
		t.Fatalf("expected a transient error")
	}
}
