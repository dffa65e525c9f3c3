package models

type PropertyStatus string

const (
	PropertyActive   PropertyStatus = "active"
	PropertyInactive PropertyStatus = "inactive"
)

func (s PropertyStatus) Valid() bool {
	return s == PropertyActive || s == PropertyInactive
}

type Property struct {
	BaseModel

	Name    string         `gorm:"not null"`
	OwnerID uint           `gorm:"not null;index"`
	Status  PropertyStatus `gorm:"type:varchar(16);not null;default:active"`

	// EmployeeIDs mirrors the property_assignments rows. Stores fill it on read.
	EmployeeIDs []uint `gorm:"-"`

	// Relationships
	Assignments []PropertyAssignment `gorm:"foreignKey:PropertyID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Tasks       []Task               `gorm:"foreignKey:PropertyID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (p Property) HasEmployee(userID uint) bool {
	for _, id := range p.EmployeeIDs {
		if id == userID {
			return true
		}
	}
	return false
}
