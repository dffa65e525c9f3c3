package policy

import (
	"time"

	"github.com/cleantrack-dev/cleantrack/internal/models"
)

const (
	ResourceProperty = "property"
	ResourceEmployee = "employee"
)

// IsSubscriptionActive is true iff the subscription has no expiry or the expiry
// is not before now.
func IsSubscriptionActive(sub models.Subscription, now time.Time) bool {
	return sub.ExpiresAt == nil || !sub.ExpiresAt.Before(now)
}

// CanCreateProperty decides whether an owner holding current properties may
// create one more. The count must be read at decision time.
func CanCreateProperty(sub models.Subscription, current int64, now time.Time) error {
	return canCreate(sub, ResourceProperty, sub.PropertyLimit(), current, now)
}

// CanCreateEmployee is CanCreateProperty for employees created under the owner.
func CanCreateEmployee(sub models.Subscription, current int64, now time.Time) error {
	return canCreate(sub, ResourceEmployee, sub.EmployeeLimit(), current, now)
}

func canCreate(sub models.Subscription, resource string, limit int, current int64, now time.Time) error {
	if !IsSubscriptionActive(sub, now) {
		return SubscriptionExpired(sub.ExpiresAt)
	}

	if current >= int64(limit) {
		return QuotaExceeded(resource, limit)
	}

	return nil
}
