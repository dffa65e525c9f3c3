package services

import (
	"context"
	"strings"

	"github.com/cleantrack-dev/cleantrack/internal/models"
	"github.com/cleantrack-dev/cleantrack/internal/policy"
	"github.com/cleantrack-dev/cleantrack/internal/types"
)

// PropertyUpdate is a partial edit. Nil fields are left unchanged; a non-nil
// EmployeeIDs replaces the assigned set, so an empty slice clears it.
type PropertyUpdate struct {
	Name        *string
	Status      *string
	EmployeeIDs *[]uint
}

func (s *Service) CreateProperty(ctx context.Context, actor Actor, name string) (types.PropertyResponse, error) {
	const op = "services.CreateProperty"
	log := s.log.WithField("operation", op)

	if err := requireRole(actor, models.RoleOwner); err != nil {
		return types.PropertyResponse{}, err
	}

	name = strings.TrimSpace(name)

	if name == "" {
		return types.PropertyResponse{}, policy.Validation("name", "name is required")
	}

	owner, err := s.owner(ctx, actor.ID)

	if err != nil {
		return types.PropertyResponse{}, err
	}

	current, err := s.repo.CountProperties(ctx, owner.ID)

	if err != nil {
		return types.PropertyResponse{}, err
	}

	if err := policy.CanCreateProperty(owner.Subscription, current, s.now()); err != nil {
		log.WithField("owner_id", owner.ID).Infof("property creation refused: %v", err)
		return types.PropertyResponse{}, err
	}

	property := models.Property{Name: name, OwnerID: owner.ID, Status: models.PropertyActive}

	if err := s.repo.CreateProperty(ctx, &property); err != nil {
		return types.PropertyResponse{}, err
	}

	log.WithField("property_id", property.ID).Info("property created")

	return types.NewPropertyResponse(property), nil
}

// ListProperties returns the caller's own properties with pending counts.
func (s *Service) ListProperties(ctx context.Context, actor Actor) ([]types.PropertyResponse, error) {
	if err := requireRole(actor, models.RoleOwner); err != nil {
		return nil, err
	}

	properties, err := s.repo.ListPropertiesByOwner(ctx, actor.ID)

	if err != nil {
		return nil, err
	}

	return s.withPendingCounts(ctx, properties)
}

// GetProperty returns one readable property with its assigned employees.
func (s *Service) GetProperty(ctx context.Context, actor Actor, propertyID uint) (types.PropertyResponse, error) {
	property, err := s.readableProperty(ctx, actor, propertyID)

	if err != nil {
		return types.PropertyResponse{}, err
	}

	return s.detailed(ctx, property)
}

func (s *Service) EditProperty(ctx context.Context, actor Actor, propertyID uint, in PropertyUpdate) (types.PropertyResponse, error) {
	const op = "services.EditProperty"
	log := s.log.WithField("operation", op)

	property, err := s.repo.GetProperty(ctx, propertyID)

	if err != nil {
		return types.PropertyResponse{}, err
	}

	if err := policy.CanManageProperty(property, actor.ID, actor.Role); err != nil {
		return types.PropertyResponse{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)

		if name == "" {
			return types.PropertyResponse{}, policy.Validation("name", "name must not be empty")
		}

		property.Name = name
	}

	if in.Status != nil {
		status := models.PropertyStatus(strings.ToLower(strings.TrimSpace(*in.Status)))

		if !status.Valid() {
			return types.PropertyResponse{}, policy.Validation("status", "status must be active or inactive")
		}

		property.Status = status
	}

	var employeeIDs []uint

	if in.EmployeeIDs != nil {
		employeeIDs = append([]uint{}, *in.EmployeeIDs...)

		if err := s.checkEmployeesOf(ctx, property.OwnerID, employeeIDs); err != nil {
			return types.PropertyResponse{}, err
		}
	}

	if err := s.repo.SaveProperty(ctx, property, employeeIDs); err != nil {
		return types.PropertyResponse{}, err
	}

	s.notify.PropertyChanged(property.ID)
	log.WithField("property_id", property.ID).Info("property updated")

	updated, err := s.repo.GetProperty(ctx, property.ID)

	if err != nil {
		return types.PropertyResponse{}, err
	}

	return s.detailed(ctx, updated)
}

// DeleteProperty removes the property with its tasks and assignments.
func (s *Service) DeleteProperty(ctx context.Context, actor Actor, propertyID uint) error {
	const op = "services.DeleteProperty"
	log := s.log.WithField("operation", op)

	property, err := s.repo.GetProperty(ctx, propertyID)

	if err != nil {
		return err
	}

	if err := policy.CanManageProperty(property, actor.ID, actor.Role); err != nil {
		return err
	}

	if err := s.repo.DeleteProperty(ctx, property.ID); err != nil {
		return err
	}

	s.notify.PropertyChanged(property.ID)
	log.WithField("property_id", property.ID).Info("property deleted")

	return nil
}

// CheckAccess answers whether the caller may read the property. Only a
// missing property is an error.
func (s *Service) CheckAccess(ctx context.Context, actor Actor, propertyID uint) (types.AccessResponse, error) {
	property, err := s.repo.GetProperty(ctx, propertyID)

	if err != nil {
		return types.AccessResponse{}, err
	}

	return types.AccessResponse{
		HasAccess: policy.HasAccess(property, actor.ID, actor.Role),
		Role:      actor.Role,
	}, nil
}

// PendingCounts counts pending tasks for the requested ids the caller can
// read. Unreadable or unknown ids are left out of the result.
func (s *Service) PendingCounts(ctx context.Context, actor Actor, propertyIDs []uint) (map[uint]int64, error) {
	readable, err := s.readableProperties(ctx, actor)

	if err != nil {
		return nil, err
	}

	allowed := make(map[uint]bool, len(readable))

	for _, p := range readable {
		allowed[p.ID] = true
	}

	ids := make([]uint, 0, len(propertyIDs))

	for _, id := range propertyIDs {
		if allowed[id] {
			ids = append(ids, id)
			delete(allowed, id)
		}
	}

	return s.repo.CountPendingTasks(ctx, ids)
}

func (s *Service) readableProperties(ctx context.Context, actor Actor) ([]models.Property, error) {
	switch actor.Role {
	case models.RoleOwner:
		return s.repo.ListPropertiesByOwner(ctx, actor.ID)
	case models.RoleEmployee:
		return s.repo.ListPropertiesByEmployee(ctx, actor.ID)
	default:
		return nil, policy.Forbidden("%s accounts have no properties", actor.Role)
	}
}

func (s *Service) checkEmployeesOf(ctx context.Context, ownerID uint, employeeIDs []uint) error {
	employees, err := s.repo.ListEmployees(ctx, ownerID)

	if err != nil {
		return err
	}

	mine := make(map[uint]bool, len(employees))

	for _, e := range employees {
		mine[e.ID] = true
	}

	for _, id := range employeeIDs {
		if !mine[id] {
			return policy.Validation("employee_ids", "employee %d does not belong to this property's owner", id)
		}
	}

	return nil
}

func (s *Service) withPendingCounts(ctx context.Context, properties []models.Property) ([]types.PropertyResponse, error) {
	ids := make([]uint, 0, len(properties))

	for _, p := range properties {
		ids = append(ids, p.ID)
	}

	counts, err := s.repo.CountPendingTasks(ctx, ids)

	if err != nil {
		return nil, err
	}

	return types.NewPropertyResponses(properties, counts), nil
}

func (s *Service) detailed(ctx context.Context, property models.Property) (types.PropertyResponse, error) {
	employees, err := s.repo.ListUsersByIDs(ctx, property.EmployeeIDs)

	if err != nil {
		return types.PropertyResponse{}, err
	}

	counts, err := s.repo.CountPendingTasks(ctx, []uint{property.ID})

	if err != nil {
		return types.PropertyResponse{}, err
	}

	resp := types.NewPropertyResponse(property)
	resp.Employees = types.NewUserResponses(employees, s.now())

	count := counts[property.ID]
	resp.PendingTaskCount = &count

	return resp, nil
}
