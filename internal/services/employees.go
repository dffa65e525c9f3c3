package services

import (
	"context"
	"time"

	"github.com/cleantrack-dev/cleantrack/internal/models"
	"github.com/cleantrack-dev/cleantrack/internal/policy"
	"github.com/cleantrack-dev/cleantrack/internal/types"
)

type EmployeeInput struct {
	Name     string
	Email    string
	Password string
}

// CreateEmployee adds an employee under the calling owner, subject to the
// owner's plan.
func (s *Service) CreateEmployee(ctx context.Context, actor Actor, in EmployeeInput) (types.UserResponse, error) {
	const op = "services.CreateEmployee"
	log := s.log.WithField("operation", op)

	if err := requireRole(actor, models.RoleOwner); err != nil {
		return types.UserResponse{}, err
	}

	name, email, err := validateIdentity(in.Name, in.Email, in.Password)

	if err != nil {
		return types.UserResponse{}, err
	}

	owner, err := s.owner(ctx, actor.ID)

	if err != nil {
		return types.UserResponse{}, err
	}

	current, err := s.repo.CountEmployees(ctx, owner.ID)

	if err != nil {
		return types.UserResponse{}, err
	}

	if err := policy.CanCreateEmployee(owner.Subscription, current, s.now()); err != nil {
		log.WithField("owner_id", owner.ID).Infof("employee creation refused: %v", err)
		return types.UserResponse{}, err
	}

	hash, err := s.hashPassword(in.Password)

	if err != nil {
		return types.UserResponse{}, err
	}

	employee := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleEmployee,
		OwnerID:      &owner.ID,
	}

	if err := s.repo.CreateUser(ctx, &employee); err != nil {
		return types.UserResponse{}, err
	}

	log.WithField("employee_id", employee.ID).Info("employee created")

	return types.NewUserResponse(employee, s.now()), nil
}

func (s *Service) ListEmployees(ctx context.Context, actor Actor) ([]types.UserResponse, error) {
	if err := requireRole(actor, models.RoleOwner); err != nil {
		return nil, err
	}

	employees, err := s.repo.ListEmployees(ctx, actor.ID)

	if err != nil {
		return nil, err
	}

	return types.NewUserResponses(employees, s.now()), nil
}

func (s *Service) GetEmployee(ctx context.Context, actor Actor, employeeID uint) (types.UserResponse, error) {
	if err := requireRole(actor, models.RoleOwner); err != nil {
		return types.UserResponse{}, err
	}

	employee, err := s.employeeOf(ctx, actor.ID, employeeID)

	if err != nil {
		return types.UserResponse{}, err
	}

	return types.NewUserResponse(employee, s.now()), nil
}

// DeleteEmployee removes the employee and every assignment naming them.
func (s *Service) DeleteEmployee(ctx context.Context, actor Actor, employeeID uint) error {
	const op = "services.DeleteEmployee"
	log := s.log.WithField("operation", op)

	if err := requireRole(actor, models.RoleOwner); err != nil {
		return err
	}

	if _, err := s.employeeOf(ctx, actor.ID, employeeID); err != nil {
		return err
	}

	assigned, err := s.repo.ListPropertiesByEmployee(ctx, employeeID)

	if err != nil {
		return err
	}

	if err := s.repo.DeleteEmployee(ctx, employeeID); err != nil {
		return err
	}

	for _, p := range assigned {
		s.notify.PropertyChanged(p.ID)
	}

	log.WithField("employee_id", employeeID).Info("employee deleted")

	return nil
}

// EmployeeAssignments returns every property of the owner plus the ids the
// employee is assigned to, for an assignment editor.
func (s *Service) EmployeeAssignments(ctx context.Context, actor Actor, employeeID uint) (types.EmployeeAssignmentsResponse, error) {
	if err := requireRole(actor, models.RoleOwner); err != nil {
		return types.EmployeeAssignmentsResponse{}, err
	}

	employee, err := s.employeeOf(ctx, actor.ID, employeeID)

	if err != nil {
		return types.EmployeeAssignmentsResponse{}, err
	}

	properties, err := s.repo.ListPropertiesByOwner(ctx, actor.ID)

	if err != nil {
		return types.EmployeeAssignmentsResponse{}, err
	}

	return assignmentsView(employee, properties, s.now()), nil
}

// AssignProperties replaces the employee's assignments with propertyIDs. Every
// id must be one of the owner's properties.
func (s *Service) AssignProperties(ctx context.Context, actor Actor, employeeID uint, propertyIDs []uint) (types.EmployeeAssignmentsResponse, error) {
	const op = "services.AssignProperties"
	log := s.log.WithField("operation", op)

	if err := requireRole(actor, models.RoleOwner); err != nil {
		return types.EmployeeAssignmentsResponse{}, err
	}

	employee, err := s.employeeOf(ctx, actor.ID, employeeID)

	if err != nil {
		return types.EmployeeAssignmentsResponse{}, err
	}

	properties, err := s.repo.ListPropertiesByOwner(ctx, actor.ID)

	if err != nil {
		return types.EmployeeAssignmentsResponse{}, err
	}

	owned := make(map[uint]bool, len(properties))
	touched := make(map[uint]bool)

	for _, p := range properties {
		owned[p.ID] = true

		if p.HasEmployee(employeeID) {
			touched[p.ID] = true
		}
	}

	for _, id := range propertyIDs {
		if !owned[id] {
			return types.EmployeeAssignmentsResponse{}, policy.Validation("property_ids", "property %d does not belong to you", id)
		}
		touched[id] = true
	}

	if err := s.repo.ReplaceAssignments(ctx, actor.ID, employeeID, propertyIDs); err != nil {
		return types.EmployeeAssignmentsResponse{}, err
	}

	for id := range touched {
		s.notify.PropertyChanged(id)
	}

	log.WithField("employee_id", employeeID).Infof("assigned %d properties", len(propertyIDs))

	properties, err = s.repo.ListPropertiesByOwner(ctx, actor.ID)

	if err != nil {
		return types.EmployeeAssignmentsResponse{}, err
	}

	return assignmentsView(employee, properties, s.now()), nil
}

func assignmentsView(employee models.User, properties []models.Property, now time.Time) types.EmployeeAssignmentsResponse {
	assigned := []uint{}

	for _, p := range properties {
		if p.HasEmployee(employee.ID) {
			assigned = append(assigned, p.ID)
		}
	}

	return types.EmployeeAssignmentsResponse{
		Employee:            types.NewUserResponse(employee, now),
		Properties:          types.NewPropertyResponses(properties, nil),
		AssignedPropertyIDs: assigned,
	}
}
