package models

import "time"

const (
	DefaultMaxProperties = 2
	DefaultMaxEmployees  = 1
)

// Subscription is embedded into owner rows. Nil limits fall back to the
// defaults so rows written before a column existed still behave.
type Subscription struct {
	ExpiresAt     *time.Time `json:"expires_at"`
	MaxProperties *int       `json:"max_properties"`
	MaxEmployees  *int       `json:"max_employees"`
}

func DefaultSubscription() Subscription {
	maxProperties := DefaultMaxProperties
	maxEmployees := DefaultMaxEmployees

	return Subscription{
		MaxProperties: &maxProperties,
		MaxEmployees:  &maxEmployees,
	}
}

func (s Subscription) PropertyLimit() int {
	if s.MaxProperties == nil {
		return DefaultMaxProperties
	}
	return *s.MaxProperties
}

func (s Subscription) EmployeeLimit() int {
	if s.MaxEmployees == nil {
		return DefaultMaxEmployees
	}
	return *s.MaxEmployees
}

// WithDefaults returns a copy with both limits filled in.
func (s Subscription) WithDefaults() Subscription {
	maxProperties := s.PropertyLimit()
	maxEmployees := s.EmployeeLimit()

	return Subscription{
		ExpiresAt:     s.ExpiresAt,
		MaxProperties: &maxProperties,
		MaxEmployees:  &maxEmployees,
	}
}

type User struct {
	BaseModel

	Name         string `gorm:"not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	CompanyName  *string
	Role         Role  `gorm:"type:varchar(16);not null;index"`
	OwnerID      *uint `gorm:"index"`

	Subscription Subscription `gorm:"embedded;embeddedPrefix:subscription_"`

	// Relationships. The owner_id columns of properties and
	// subscription_changes are keyed from this side.
	Owner               *User                `gorm:"foreignKey:OwnerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Properties          []Property           `gorm:"foreignKey:OwnerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	SubscriptionChanges []SubscriptionChange `gorm:"foreignKey:OwnerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (u User) IsOwnerOf(employee User) bool {
	return u.Role == RoleOwner && employee.Role == RoleEmployee &&
		employee.OwnerID != nil && *employee.OwnerID == u.ID
}
