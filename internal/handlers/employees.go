package handlers

import (
	"net/http"

	"github.com/cleantrack-dev/cleantrack/internal/services"
	"github.com/gin-gonic/gin"
)

type CreateEmployeeRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AssignPropertiesRequest struct {
	PropertyIDs []uint `json:"property_ids"`
}

func (h *Handler) CreateEmployee(ctx *gin.Context) {
	log := h.entry(ctx, "handlers.CreateEmployee")

	actor, ok := currentActor(ctx)

	if !ok {
		return
	}

	var body CreateEmployeeRequest

	if !bindJSON(ctx, log, &body) {
		return
	}

	employee, err := h.svc.CreateEmployee(ctx.Request.Context(), actor, services.EmployeeInput{
		Name:     body.Name,
		Email:    body.Email,
		Password: body.Password,
	})

	if err != nil {
		respondError(ctx, log, err)
		return
	}

	ctx.JSON(http.StatusCreated, employee)
}

func (h *Handler) ListEmployees(ctx *gin.Context) {
	log := h.entry(ctx, "handlers.ListEmployees")

	actor, ok := currentActor(ctx)

	if !ok {
		return
	}

	employees, err := h.svc.ListEmployees(ctx.Request.Context(), actor)

	if err != nil {
		respondError(ctx, log, err)
		return
	}

	ctx.JSON(http.StatusOK, employees)
}

func (h *Handler) GetEmployee(ctx *gin.Context) {
	log := h.entry(ctx, "handlers.GetEmployee")

	actor, ok := currentActor(ctx)

	if !ok {
		return
	}

	employeeID, ok := idParam(ctx, "employee_id")

	if !ok {
		return
	}

	employee, err := h.svc.GetEmployee(ctx.Request.Context(), actor, employeeID)

	if err != nil {
		respondError(ctx, log, err)
		return
	}

	ctx.JSON(http.StatusOK, employee)
}

func (h *Handler) DeleteEmployee(ctx *gin.Context) {
	log := h.entry(ctx, "handlers.DeleteEmployee")

	actor, ok := currentActor(ctx)

	if !ok {
		return
	}

	employeeID, ok := idParam(ctx, "employee_id")

	if !ok {
		return
	}

	if err := h.svc.DeleteEmployee(ctx.Request.Context(), actor, employeeID); err != nil {
		respondError(ctx, log, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Employee deleted successfully"})
}

func (h *Handler) EmployeeProperties(ctx *gin.Context) {
	log := h.entry(ctx, "handlers.EmployeeProperties")

	actor, ok := currentActor(ctx)

	if !ok {
		return
	}

	employeeID, ok := idParam(ctx, "employee_id")

	if !ok {
		return
	}

	view, err := h.svc.EmployeeAssignments(ctx.Request.Context(), actor, employeeID)

	if err != nil {
		respondError(ctx, log, err)
		return
	}

	ctx.JSON(http.StatusOK, view)
}

func (h *Handler) AssignProperties(ctx *gin.Context) {
	log := h.entry(ctx, "handlers.AssignProperties")

	actor, ok := currentActor(ctx)

	if !ok {
		return
	}

	employeeID, ok := idParam(ctx, "employee_id")

	if !ok {
		return
	}

	var body AssignPropertiesRequest

	if !bindJSON(ctx, log, &body) {
		return
	}

	view, err := h.svc.AssignProperties(ctx.Request.Context(), actor, employeeID, body.PropertyIDs)

	if err != nil {
		respondError(ctx, log, err)
		return
	}

	ctx.JSON(http.StatusOK, view)
}
