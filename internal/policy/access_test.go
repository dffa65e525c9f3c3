package policy

import (
	"errors"
	"testing"

	"github.com/cleantrack-dev/cleantrack/internal/models"
)

func property(ownerID uint, employees ...uint) models.Property {
	p := models.Property{OwnerID: ownerID, EmployeeIDs: employees}
	p.ID = 100
	return p
}

func TestHasAccessByRole(t *testing.T) {
	p := property(1, 7, 8)

	cases := []struct {
		name   string
		userID uint
		role   models.Role
		want   bool
	}{
		{"owner of record", 1, models.RoleOwner, true},
		{"other owner", 2, models.RoleOwner, false},
		{"assigned employee", 7, models.RoleEmployee, true},
		{"second assigned employee", 8, models.RoleEmployee, true},
		{"unassigned employee", 9, models.RoleEmployee, false},
		{"owner id claimed as employee", 1, models.RoleEmployee, false},
		{"employee id claimed as owner", 7, models.RoleOwner, false},
		{"admin", 1, models.RoleAdmin, false},
		{"unknown role", 1, models.Role("janitor"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := HasAccess(p, tc.userID, tc.role); got != tc.want {
				t.Fatalf("HasAccess = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestHasAccessFollowsAssignment(t *testing.T) {
	p := property(1)

	if HasAccess(p, 7, models.RoleEmployee) {
		t.Fatalf("expected no access before assignment")
	}

	p.EmployeeIDs = append(p.EmployeeIDs, 7)
	if !HasAccess(p, 7, models.RoleEmployee) {
		t.Fatalf("expected access after assignment")
	}

	p.EmployeeIDs = nil
	if HasAccess(p, 7, models.RoleEmployee) {
		t.Fatalf("expected no access after unassignment")
	}
}

func TestCanManagePropertyOnlyOwnerOfRecord(t *testing.T) {
	p := property(1, 7)

	if err := CanManageProperty(p, 1, models.RoleOwner); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := CanManageProperty(p, 2, models.RoleOwner); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for other owner, got %v", err)
	}
	// Read access does not imply write access.
	if err := CanManageProperty(p, 7, models.RoleEmployee); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden for assigned employee, got %v", err)
	}
	if err := CanManageProperty(p, 1, models.RoleAdmin); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden for admin, got %v", err)
	}
}
