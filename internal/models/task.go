package models

import (
	"time"
)

type Task struct {
	BaseModel

	Title         string     `gorm:"not null"`
	PropertyID    uint       `gorm:"not null;index"`
	CreatedByID   uint       `gorm:"not null;index"`
	CompletedByID *uint      `gorm:"index"`
	CompletedAt   *time.Time `gorm:"index"`

	// Relationships. CreatedByID and CompletedByID carry no foreign key so the
	// history outlives a deleted employee.
	Property Property `gorm:"foreignKey:PropertyID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
