package store

import (
	"context"

	"github.com/cleantrack-dev/cleantrack/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *Store) CreateProperty(ctx context.Context, property *models.Property) error {
	if property.Status == "" {
		property.Status = models.PropertyActive
	}

	return translate(s.conn(ctx).Omit(clause.Associations).Create(property).Error, "property")
}

func (s *Store) GetProperty(ctx context.Context, id uint) (models.Property, error) {
	var property models.Property

	if err := s.conn(ctx).Where("id = ?", id).First(&property).Error; err != nil {
		return property, translate(err, "property")
	}

	properties := []models.Property{property}

	if err := s.loadEmployeeIDs(ctx, properties); err != nil {
		return property, err
	}

	return properties[0], nil
}

func (s *Store) ListPropertiesByOwner(ctx context.Context, ownerID uint) ([]models.Property, error) {
	var properties []models.Property

	err := s.conn(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC, id DESC").
		Find(&properties).Error

	if err != nil {
		return nil, translate(err, "property")
	}

	return properties, s.loadEmployeeIDs(ctx, properties)
}

func (s *Store) ListPropertiesByEmployee(ctx context.Context, employeeID uint) ([]models.Property, error) {
	var properties []models.Property

	assigned := s.conn(ctx).Model(&models.PropertyAssignment{}).
		Select("property_id").
		Where("employee_id = ?", employeeID)

	err := s.conn(ctx).
		Where("id IN (?)", assigned).
		Order("created_at DESC, id DESC").
		Find(&properties).Error

	if err != nil {
		return nil, translate(err, "property")
	}

	return properties, s.loadEmployeeIDs(ctx, properties)
}

func (s *Store) CountProperties(ctx context.Context, ownerID uint) (int64, error) {
	var count int64

	err := s.conn(ctx).Model(&models.Property{}).Where("owner_id = ?", ownerID).Count(&count).Error

	return count, translate(err, "property")
}

// SaveProperty persists name and status. When employeeIDs is non-nil the
// assignment set is replaced with it in the same transaction.
func (s *Store) SaveProperty(ctx context.Context, property models.Property, employeeIDs []uint) error {
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Property{}).
			Where("id = ?", property.ID).
			Updates(map[string]interface{}{
				"name":   property.Name,
				"status": property.Status,
			})

		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if employeeIDs == nil {
			return nil
		}

		if err := tx.Where("property_id = ?", property.ID).Delete(&models.PropertyAssignment{}).Error; err != nil {
			return err
		}

		return insertAssignments(tx, assignmentsOf(property.ID, employeeIDs))
	})

	return translate(err, "property")
}

// ReplaceAssignments makes propertyIDs the exact set of the owner's properties
// the employee is assigned to.
func (s *Store) ReplaceAssignments(ctx context.Context, ownerID, employeeID uint, propertyIDs []uint) error {
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		owned := tx.Model(&models.Property{}).Select("id").Where("owner_id = ?", ownerID)

		if err := tx.Where("employee_id = ? AND property_id IN (?)", employeeID, owned).
			Delete(&models.PropertyAssignment{}).Error; err != nil {
			return err
		}

		return insertAssignments(tx, assignmentsFor(employeeID, propertyIDs))
	})

	return translate(err, "property")
}

// DeleteProperty removes the property with its tasks and assignments.
func (s *Store) DeleteProperty(ctx context.Context, id uint) error {
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("property_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return err
		}

		if err := tx.Where("property_id = ?", id).Delete(&models.PropertyAssignment{}).Error; err != nil {
			return err
		}

		res := tx.Where("id = ?", id).Delete(&models.Property{})

		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return nil
	})

	return translate(err, "property")
}

func (s *Store) loadEmployeeIDs(ctx context.Context, properties []models.Property) error {
	if len(properties) == 0 {
		return nil
	}

	ids := make([]uint, 0, len(properties))
	index := make(map[uint]int, len(properties))

	for i := range properties {
		ids = append(ids, properties[i].ID)
		index[properties[i].ID] = i
		properties[i].EmployeeIDs = []uint{}
	}

	var rows []models.PropertyAssignment

	err := s.conn(ctx).
		Where("property_id IN ?", ids).
		Order("property_id ASC, employee_id ASC").
		Find(&rows).Error

	if err != nil {
		return translate(err, "property")
	}

	for _, row := range rows {
		i := index[row.PropertyID]
		properties[i].EmployeeIDs = append(properties[i].EmployeeIDs, row.EmployeeID)
	}

	return nil
}

func assignmentsFor(employeeID uint, propertyIDs []uint) []models.PropertyAssignment {
	rows := make([]models.PropertyAssignment, 0, len(propertyIDs))
	seen := make(map[uint]bool, len(propertyIDs))

	for _, id := range propertyIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		rows = append(rows, models.PropertyAssignment{PropertyID: id, EmployeeID: employeeID})
	}

	return rows
}

func assignmentsOf(propertyID uint, employeeIDs []uint) []models.PropertyAssignment {
	rows := make([]models.PropertyAssignment, 0, len(employeeIDs))
	seen := make(map[uint]bool, len(employeeIDs))

	for _, id := range employeeIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		rows = append(rows, models.PropertyAssignment{PropertyID: propertyID, EmployeeID: id})
	}

	return rows
}

func insertAssignments(tx *gorm.DB, rows []models.PropertyAssignment) error {
	if len(rows) == 0 {
		return nil
	}

	return tx.Omit("Property", "Employee").Create(&rows).Error
}
