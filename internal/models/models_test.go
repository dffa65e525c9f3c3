package models

import "testing"

func TestParseRole(t *testing.T) {
	for _, s := range []string{"admin", "owner", "employee"} {
		if r, err := ParseRole(s); err != nil || string(r) != s {
			t.Fatalf("ParseRole(%q) = %q, %v", s, r, err)
		}
	}

	for _, s := range []string{"", "Owner", "superuser"} {
		if _, err := ParseRole(s); err == nil {
			t.Fatalf("ParseRole(%q) should fail", s)
		}
	}
}

func TestSubscriptionLimits(t *testing.T) {
	var sub Subscription

	if sub.PropertyLimit() != DefaultMaxProperties || sub.EmployeeLimit() != DefaultMaxEmployees {
		t.Fatalf("nil limits should fall back to defaults, got %d/%d", sub.PropertyLimit(), sub.EmployeeLimit())
	}

	zero := 0
	sub.MaxProperties = &zero

	if sub.PropertyLimit() != 0 {
		t.Fatalf("an explicit zero limit must be kept, got %d", sub.PropertyLimit())
	}

	filled := sub.WithDefaults()

	if *filled.MaxProperties != 0 || *filled.MaxEmployees != DefaultMaxEmployees {
		t.Fatalf("unexpected defaults %+v", filled)
	}
}

func TestPropertyStatusValid(t *testing.T) {
	if !PropertyActive.Valid() || !PropertyInactive.Valid() {
		t.Fatal("known statuses should be valid")
	}

	if PropertyStatus("archived").Valid() {
		t.Fatal("unknown status should be invalid")
	}
}
