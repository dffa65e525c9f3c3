package handlers

import (
	"net/http"
	"strconv"

	"github.com/cleantrack-dev/cleantrack/internal/services"
	"github.com/gin-gonic/gin"
)

type CreatePropertyRequest struct {
	Name string `json:"name"`
}

// UpdatePropertyRequest is a partial edit; absent fields stay unchanged and
// employee_ids replaces the assigned set.
type UpdatePropertyRequest struct {
	Name        *string `json:"name"`
	Status      *string `json:"status"`
	EmployeeIDs *[]uint `json:"employee_ids"`
}

type PendingCountsRequest struct {
	PropertyIDs []uint `json:"property_ids"`
}

func (h *Handler) CreateProperty(ctx *gin.Context) {
	log := h.entry(ctx, "handlers.CreateProperty")

	actor, ok := currentActor(ctx)

	if !ok {
		return
	}

	var body CreatePropertyRequest

	if !bindJSON(ctx, log, &body) {
		return
	}

	property, err := h.svc.CreateProperty(ctx.Request.Context(), actor, body.Name)

	if err != nil {
		respondError(ctx, log, err)
		return
	}

	ctx.JSON(http.StatusCreated, property)
}

func (h *Handler) ListProperties(ctx *gin.Context) {
	log := h.entry(ctx, "handlers.ListProperties")

	actor, ok := currentActor(ctx)

	if !ok {
		return
	}

	properties, err := h.svc.ListProperties(ctx.Request.Context(), actor)

	if err != nil {
		respondError(ctx, log, err)
		return
	}

	ctx.JSON(http.StatusOK, properties)
}

func (h *Handler) GetProperty(ctx *gin.Context) {
	log := h.entry(ctx, "handlers.GetProperty")

	actor, ok := currentActor(ctx)

	if !ok {
		return
	}

	propertyID, ok := idParam(ctx, "property_id")

	if !ok {
		return
	}

	property, err := h.svc.GetProperty(ctx.Request.Context(), actor, propertyID)

	if err != nil {
		respondError(ctx, log, err)
		return
	}

	ctx.JSON(http.StatusOK, property)
}

func (h *Handler) UpdateProperty(ctx *gin.Context) {
	log := h.entry(ctx, "handlers.UpdateProperty")

	actor, ok := currentActor(ctx)

	if !ok {
		return
	}

	propertyID, ok := idParam(ctx, "property_id")

	if !ok {
		return
	}

	var body UpdatePropertyRequest

	if !bindJSON(ctx, log, &body) {
		return
	}

	if body.Name == nil && body.Status == nil && body.EmployeeIDs == nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No valid fields to update"})
		return
	}

	property, err := h.svc.EditProperty(ctx.Request.Context(), actor, propertyID, services.PropertyUpdate{
		Name:        body.Name,
		Status:      body.Status,
		EmployeeIDs: body.EmployeeIDs,
	})

	if err != nil {
		respondError(ctx, log, err)
		return
	}

	ctx.JSON(http.StatusOK, property)
}

func (h *Handler) DeleteProperty(ctx *gin.Context) {
	log := h.entry(ctx, "handlers.DeleteProperty")

	actor, ok := currentActor(ctx)

	if !ok {
		return
	}

	propertyID, ok := idParam(ctx, "property_id")

	if !ok {
		return
	}

	if err := h.svc.DeleteProperty(ctx.Request.Context(), actor, propertyID); err != nil {
		respondError(ctx, log, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Property deleted successfully"})
}

func (h *Handler) CheckAccess(ctx *gin.Context) {
	log := h.entry(ctx, "handlers.CheckAccess")

	actor, ok := currentActor(ctx)

	if !ok {
		return
	}

	propertyID, ok := idParam(ctx, "property_id")

	if !ok {
		return
	}

	access, err := h.svc.CheckAccess(ctx.Request.Context(), actor, propertyID)

	if err != nil {
		respondError(ctx, log, err)
		return
	}

	ctx.JSON(http.StatusOK, access)
}

// PendingCounts answers with a map of property id to pending task count.
func (h *Handler) PendingCounts(ctx *gin.Context) {
	log := h.entry(ctx, "handlers.PendingCounts")

	actor, ok := currentActor(ctx)

	if !ok {
		return
	}

	var body PendingCountsRequest

	if !bindJSON(ctx, log, &body) {
		return
	}

	counts, err := h.svc.PendingCounts(ctx.Request.Context(), actor, body.PropertyIDs)

	if err != nil {
		respondError(ctx, log, err)
		return
	}

	out := make(map[string]int64, len(counts))

	for id, n := range counts {
		out[strconv.FormatUint(uint64(id), 10)] = n
	}

	ctx.JSON(http.StatusOK, gin.H{"counts": out})
}
