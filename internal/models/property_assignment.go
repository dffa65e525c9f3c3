package models

import "time"

type PropertyAssignment struct {
	PropertyID uint `gorm:"primaryKey;autoIncrement:false"`
	EmployeeID uint `gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt  time.Time

	// Relationships
	Property Property `gorm:"foreignKey:PropertyID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Employee User     `gorm:"foreignKey:EmployeeID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
