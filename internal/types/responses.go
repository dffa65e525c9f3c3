package types

import (
	"encoding/json"
	"time"

	"github.com/cleantrack-dev/cleantrack/internal/models"
	"github.com/cleantrack-dev/cleantrack/internal/policy"
)

type SubscriptionResponse struct {
	ExpiresAt     *time.Time `json:"expires_at"`
	MaxProperties int        `json:"max_properties"`
	MaxEmployees  int        `json:"max_employees"`
	Active        bool       `json:"active"`
}

type UserResponse struct {
	ID           uint                  `json:"id"`
	Name         string                `json:"name"`
	Email        string                `json:"email"`
	Role         models.Role           `json:"role"`
	CompanyName  *string               `json:"company_name,omitempty"`
	OwnerID      *uint                 `json:"owner_id,omitempty"`
	Subscription *SubscriptionResponse `json:"subscription,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
}

// OwnerSummary is what an employee gets to see of their owner.
type OwnerSummary struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	CompanyName *string `json:"company_name,omitempty"`
}

type PropertyResponse struct {
	ID               uint                  `json:"id"`
	Name             string                `json:"name"`
	OwnerID          uint                  `json:"owner_id"`
	Status           models.PropertyStatus `json:"status"`
	EmployeeIDs      []uint                `json:"employee_ids"`
	Employees        []UserResponse        `json:"employees,omitempty"`
	PendingTaskCount *int64                `json:"pending_task_count,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

type TaskResponse struct {
	ID            uint             `json:"id"`
	Title         string           `json:"title"`
	PropertyID    uint             `json:"property_id"`
	Status        policy.TaskState `json:"status"`
	CreatedByID   uint             `json:"created_by"`
	CompletedByID *uint            `json:"completed_by"`
	CompletedAt   *time.Time       `json:"completed_at"`
	CreatedAt     time.Time        `json:"created_at"`
}

type SubscriptionChangeResponse struct {
	ID        uint                `json:"id"`
	OwnerID   uint                `json:"owner_id"`
	AdminID   uint                `json:"admin_id"`
	Before    models.Subscription `json:"before"`
	After     models.Subscription `json:"after"`
	CreatedAt time.Time           `json:"created_at"`
}

type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

type OwnerDashboardResponse struct {
	Owner      UserResponse       `json:"owner"`
	Employees  []UserResponse     `json:"employees"`
	Properties []PropertyResponse `json:"properties"`
}

type EmployeeDashboardResponse struct {
	Employee   UserResponse       `json:"employee"`
	Owner      OwnerSummary       `json:"owner"`
	Properties []PropertyResponse `json:"properties"`
}

// EmployeeAssignmentsResponse lists every property of the owner alongside
// the ids the employee is currently assigned to.
type EmployeeAssignmentsResponse struct {
	Employee            UserResponse       `json:"employee"`
	Properties          []PropertyResponse `json:"properties"`
	AssignedPropertyIDs []uint             `json:"assigned_property_ids"`
}

type AccessResponse struct {
	HasAccess bool        `json:"has_access"`
	Role      models.Role `json:"role"`
}

func NewUserResponse(user models.User, now time.Time) UserResponse {
	resp := UserResponse{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		Role:        user.Role,
		CompanyName: user.CompanyName,
		OwnerID:     user.OwnerID,
		CreatedAt:   user.CreatedAt,
	}

	if user.Role == models.RoleOwner {
		sub := NewSubscriptionResponse(user.Subscription, now)
		resp.Subscription = &sub
	}

	return resp
}

func NewUserResponses(users []models.User, now time.Time) []UserResponse {
	out := make([]UserResponse, 0, len(users))

	for _, u := range users {
		out = append(out, NewUserResponse(u, now))
	}

	return out
}

func NewSubscriptionResponse(sub models.Subscription, now time.Time) SubscriptionResponse {
	return SubscriptionResponse{
		ExpiresAt:     sub.ExpiresAt,
		MaxProperties: sub.PropertyLimit(),
		MaxEmployees:  sub.EmployeeLimit(),
		Active:        policy.IsSubscriptionActive(sub, now),
	}
}

func NewOwnerSummary(owner models.User) OwnerSummary {
	return OwnerSummary{ID: owner.ID, Name: owner.Name, CompanyName: owner.CompanyName}
}

func NewPropertyResponse(property models.Property) PropertyResponse {
	ids := property.EmployeeIDs

	if ids == nil {
		ids = []uint{}
	}

	return PropertyResponse{
		ID:          property.ID,
		Name:        property.Name,
		OwnerID:     property.OwnerID,
		Status:      property.Status,
		EmployeeIDs: ids,
		CreatedAt:   property.CreatedAt,
		UpdatedAt:   property.UpdatedAt,
	}
}

// NewPropertyResponses builds responses and attaches pending counts when
// counts is non-nil.
func NewPropertyResponses(properties []models.Property, counts map[uint]int64) []PropertyResponse {
	out := make([]PropertyResponse, 0, len(properties))

	for _, p := range properties {
		resp := NewPropertyResponse(p)

		if counts != nil {
			count := counts[p.ID]
			resp.PendingTaskCount = &count
		}

		out = append(out, resp)
	}

	return out
}

func NewTaskResponse(task models.Task) TaskResponse {
	return TaskResponse{
		ID:            task.ID,
		Title:         task.Title,
		PropertyID:    task.PropertyID,
		Status:        policy.StateOf(task),
		CreatedByID:   task.CreatedByID,
		CompletedByID: task.CompletedByID,
		CompletedAt:   task.CompletedAt,
		CreatedAt:     task.CreatedAt,
	}
}

func NewTaskResponses(tasks []models.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))

	for _, t := range tasks {
		out = append(out, NewTaskResponse(t))
	}

	return out
}

func NewSubscriptionChangeResponse(change models.SubscriptionChange) (SubscriptionChangeResponse, error) {
	resp := SubscriptionChangeResponse{
		ID:        change.ID,
		OwnerID:   change.OwnerID,
		AdminID:   change.AdminID,
		CreatedAt: change.CreatedAt,
	}

	if err := json.Unmarshal(change.Before, &resp.Before); err != nil {
		return resp, err
	}

	if err := json.Unmarshal(change.After, &resp.After); err != nil {
		return resp, err
	}

	return resp, nil
}
