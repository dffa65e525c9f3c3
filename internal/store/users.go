package store

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/cleantrack-dev/cleantrack/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *Store) GetUser(ctx context.Context, id uint) (models.User, error) {
	var user models.User

	err := s.conn(ctx).Where("id = ?", id).First(&user).Error

	return user, translate(err, "user")
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User

	err := s.conn(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error

	return user, translate(err, "user")
}

func (s *Store) FindEmployeesByName(ctx context.Context, name string) ([]models.User, error) {
	var users []models.User

	err := s.conn(ctx).
		Where("LOWER(name) = ? AND role = ?", strings.ToLower(strings.TrimSpace(name)), models.RoleEmployee).
		Order("id ASC").
		Find(&users).Error

	return users, translate(err, "user")
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	return translate(s.conn(ctx).Omit(clause.Associations).Create(user).Error, "email")
}

func (s *Store) ListOwners(ctx context.Context) ([]models.User, error) {
	var owners []models.User

	err := s.conn(ctx).
		Where("role = ?", models.RoleOwner).
		Order("created_at DESC, id DESC").
		Find(&owners).Error

	return owners, translate(err, "owner")
}

func (s *Store) ListEmployees(ctx context.Context, ownerID uint) ([]models.User, error) {
	var employees []models.User

	err := s.conn(ctx).
		Where("owner_id = ? AND role = ?", ownerID, models.RoleEmployee).
		Order("created_at ASC, id ASC").
		Find(&employees).Error

	return employees, translate(err, "employee")
}

func (s *Store) ListUsersByIDs(ctx context.Context, ids []uint) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}

	var users []models.User

	err := s.conn(ctx).Where("id IN ?", ids).Order("name ASC, id ASC").Find(&users).Error

	return users, translate(err, "user")
}

func (s *Store) CountEmployees(ctx context.Context, ownerID uint) (int64, error) {
	var count int64

	err := s.conn(ctx).Model(&models.User{}).
		Where("owner_id = ? AND role = ?", ownerID, models.RoleEmployee).
		Count(&count).Error

	return count, translate(err, "employee")
}

// DeleteEmployee removes the employee and every assignment that names them.
// Tasks they created or completed keep their references.
func (s *Store) DeleteEmployee(ctx context.Context, employeeID uint) error {
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("employee_id = ?", employeeID).Delete(&models.PropertyAssignment{}).Error; err != nil {
			return err
		}

		res := tx.Where("id = ? AND role = ?", employeeID, models.RoleEmployee).Delete(&models.User{})

		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return nil
	})

	return translate(err, "employee")
}

// UpdateSubscription writes the new subscription and its audit row together.
func (s *Store) UpdateSubscription(ctx context.Context, ownerID, adminID uint, before, after models.Subscription) (models.SubscriptionChange, error) {
	beforeJSON, err := json.Marshal(before)

	if err != nil {
		return models.SubscriptionChange{}, err
	}

	afterJSON, err := json.Marshal(after)

	if err != nil {
		return models.SubscriptionChange{}, err
	}

	change := models.SubscriptionChange{
		OwnerID: ownerID,
		AdminID: adminID,
		Before:  beforeJSON,
		After:   afterJSON,
	}

	err = s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ? AND role = ?", ownerID, models.RoleOwner).
			Updates(map[string]interface{}{
				"subscription_expires_at":     after.ExpiresAt,
				"subscription_max_properties": after.MaxProperties,
				"subscription_max_employees":  after.MaxEmployees,
			})

		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.Create(&change).Error
	})

	return change, translate(err, "owner")
}

func (s *Store) ListSubscriptionChanges(ctx context.Context, ownerID uint) ([]models.SubscriptionChange, error) {
	var changes []models.SubscriptionChange

	err := s.conn(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC, id DESC").
		Find(&changes).Error

	return changes, translate(err, "owner")
}
