package models

import (
	"gorm.io/datatypes"
)

// SubscriptionChange records one admin edit of an owner's subscription.
type SubscriptionChange struct {
	BaseModel

	OwnerID uint           `gorm:"not null;index"`
	AdminID uint           `gorm:"not null;index"`
	Before  datatypes.JSON `gorm:"type:jsonb"`
	After   datatypes.JSON `gorm:"type:jsonb"`
}
