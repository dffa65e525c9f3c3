package handlers

import (
	"net/http"

	"github.com/cleantrack-dev/cleantrack/internal/policy"
	"github.com/gin-gonic/gin"
)

type CreateTaskRequest struct {
	Title string `json:"title"`
}

// ListTasks reads status (pending|completed), start_date and end_date from
// the query string.
func (h *Handler) ListTasks(ctx *gin.Context) {
	log := h.entry(ctx, "handlers.ListTasks")

	actor, ok := currentActor(ctx)

	if !ok {
		return
	}

	propertyID, ok := idParam(ctx, "property_id")

	if !ok {
		return
	}

	filter, err := policy.ParseTaskFilter(ctx.Query("status"), ctx.Query("start_date"), ctx.Query("end_date"))

	if err != nil {
		respondError(ctx, log, err)
		return
	}

	tasks, err := h.svc.ListTasks(ctx.Request.Context(), actor, propertyID, filter)

	if err != nil {
		respondError(ctx, log, err)
		return
	}

	ctx.JSON(http.StatusOK, tasks)
}

func (h *Handler) CreateTask(ctx *gin.Context) {
	log := h.entry(ctx, "handlers.CreateTask")

	actor, ok := currentActor(ctx)

	if !ok {
		return
	}

	propertyID, ok := idParam(ctx, "property_id")

	if !ok {
		return
	}

	var body CreateTaskRequest

	if !bindJSON(ctx, log, &body) {
		return
	}

	task, err := h.svc.CreateTask(ctx.Request.Context(), actor, propertyID, body.Title)

	if err != nil {
		respondError(ctx, log, err)
		return
	}

	ctx.JSON(http.StatusCreated, task)
}

func (h *Handler) CompleteTask(ctx *gin.Context) {
	log := h.entry(ctx, "handlers.CompleteTask")

	actor, ok := currentActor(ctx)

	if !ok {
		return
	}

	taskID, ok := idParam(ctx, "task_id")

	if !ok {
		return
	}

	task, err := h.svc.CompleteTask(ctx.Request.Context(), actor, taskID)

	if err != nil {
		respondError(ctx, log, err)
		return
	}

	ctx.JSON(http.StatusOK, task)
}
