package services

import (
	"context"

	"github.com/cleantrack-dev/cleantrack/internal/models"
	"github.com/cleantrack-dev/cleantrack/internal/policy"
	"github.com/cleantrack-dev/cleantrack/internal/types"
)

// OwnerDashboard aggregates the owner's employees and properties. Pending
// counts for all properties come from one grouped query.
func (s *Service) OwnerDashboard(ctx context.Context, ownerID uint) (types.OwnerDashboardResponse, error) {
	owner, err := s.owner(ctx, ownerID)

	if err != nil {
		return types.OwnerDashboardResponse{}, err
	}

	if !policy.IsSubscriptionActive(owner.Subscription, s.now()) {
		return types.OwnerDashboardResponse{}, policy.SubscriptionExpired(owner.Subscription.ExpiresAt)
	}

	employees, err := s.repo.ListEmployees(ctx, owner.ID)

	if err != nil {
		return types.OwnerDashboardResponse{}, err
	}

	properties, err := s.repo.ListPropertiesByOwner(ctx, owner.ID)

	if err != nil {
		return types.OwnerDashboardResponse{}, err
	}

	withCounts, err := s.withPendingCounts(ctx, properties)

	if err != nil {
		return types.OwnerDashboardResponse{}, err
	}

	return types.OwnerDashboardResponse{
		Owner:      types.NewUserResponse(owner, s.now()),
		Employees:  types.NewUserResponses(employees, s.now()),
		Properties: withCounts,
	}, nil
}

// EmployeeDashboard shows the employee, their owner and the properties they
// are assigned to.
func (s *Service) EmployeeDashboard(ctx context.Context, employeeID uint) (types.EmployeeDashboardResponse, error) {
	employee, err := s.repo.GetUser(ctx, employeeID)

	if err != nil {
		return types.EmployeeDashboardResponse{}, renameNotFound(err, "employee")
	}

	if employee.Role != models.RoleEmployee || employee.OwnerID == nil {
		return types.EmployeeDashboardResponse{}, policy.NotFound("employee")
	}

	owner, err := s.owner(ctx, *employee.OwnerID)

	if err != nil {
		return types.EmployeeDashboardResponse{}, err
	}

	properties, err := s.repo.ListPropertiesByEmployee(ctx, employee.ID)

	if err != nil {
		return types.EmployeeDashboardResponse{}, err
	}

	withCounts, err := s.withPendingCounts(ctx, properties)

	if err != nil {
		return types.EmployeeDashboardResponse{}, err
	}

	return types.EmployeeDashboardResponse{
		Employee:   types.NewUserResponse(employee, s.now()),
		Owner:      types.NewOwnerSummary(owner),
		Properties: withCounts,
	}, nil
}
