package policy

import (
	"errors"
	"testing"
	"time"

	"github.com/cleantrack-dev/cleantrack/internal/models"
)

var now = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func limits(properties, employees int) models.Subscription {
	return models.Subscription{MaxProperties: &properties, MaxEmployees: &employees}
}

func TestCanCreatePropertyLimitIsReachedAtMax(t *testing.T) {
	sub := limits(3, 1)

	for count := int64(0); count < 3; count++ {
		if err := CanCreateProperty(sub, count, now); err != nil {
			t.Fatalf("count %d: unexpected error: %v", count, err)
		}
	}

	err := CanCreateProperty(sub, 3, now)
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected quota exceeded, got %v", err)
	}

	perr, ok := As(err)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if perr.Limit != 3 || perr.Resource != ResourceProperty {
		t.Fatalf("unexpected context: limit=%d resource=%q", perr.Limit, perr.Resource)
	}

	// One deletion frees exactly one slot.
	if err := CanCreateProperty(sub, 2, now); err != nil {
		t.Fatalf("expected a free slot after deletion, got %v", err)
	}
}

func TestCanCreateEmployeeUsesEmployeeLimit(t *testing.T) {
	sub := limits(5, 2)

	if err := CanCreateEmployee(sub, 1, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := CanCreateEmployee(sub, 2, now)
	perr, ok := As(err)
	if !ok || !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected quota exceeded, got %v", err)
	}
	if perr.Limit != 2 || perr.Resource != ResourceEmployee {
		t.Fatalf("unexpected context: limit=%d resource=%q", perr.Limit, perr.Resource)
	}
}

func TestQuotaDefaultsApplyWhenLimitsMissing(t *testing.T) {
	var sub models.Subscription

	if err := CanCreateProperty(sub, 1, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := CanCreateProperty(sub, models.DefaultMaxProperties, now); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected default property limit to apply, got %v", err)
	}
	if err := CanCreateEmployee(sub, 0, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := CanCreateEmployee(sub, models.DefaultMaxEmployees, now); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected default employee limit to apply, got %v", err)
	}
}

func TestQuotaExpiredSubscriptionWinsOverCounts(t *testing.T) {
	past := now.Add(-time.Minute)
	sub := limits(10, 10)
	sub.ExpiresAt = &past

	if IsSubscriptionActive(sub, now) {
		t.Fatalf("expected inactive subscription")
	}

	for _, count := range []int64{0, 5, 10, 50} {
		if err := CanCreateProperty(sub, count, now); !errors.Is(err, ErrSubscriptionExpired) {
			t.Fatalf("property count %d: expected expired, got %v", count, err)
		}
		if err := CanCreateEmployee(sub, count, now); !errors.Is(err, ErrSubscriptionExpired) {
			t.Fatalf("employee count %d: expected expired, got %v", count, err)
		}
	}

	perr, _ := As(CanCreateProperty(sub, 0, now))
	if perr == nil || perr.ExpiresAt == nil || !perr.ExpiresAt.Equal(past) {
		t.Fatalf("expected expiry in error context, got %+v", perr)
	}
}

func TestQuotaClearingOrExtendingExpiryRestoresEvaluation(t *testing.T) {
	future := now.Add(24 * time.Hour)

	cases := []struct {
		name      string
		expiresAt *time.Time
	}{
		{"no expiry", nil},
		{"future expiry", &future},
		{"expires exactly now", &now},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sub := limits(1, 1)
			sub.ExpiresAt = tc.expiresAt

			if !IsSubscriptionActive(sub, now) {
				t.Fatalf("expected active subscription")
			}
			if err := CanCreateProperty(sub, 0, now); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := CanCreateProperty(sub, 1, now); !errors.Is(err, ErrQuotaExceeded) {
				t.Fatalf("expected quota exceeded, got %v", err)
			}
		})
	}
}
