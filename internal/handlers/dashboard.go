package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) OwnerDashboard(ctx *gin.Context) {
	log := h.entry(ctx, "handlers.OwnerDashboard")

	actor, ok := currentActor(ctx)

	if !ok {
		return
	}

	dashboard, err := h.svc.OwnerDashboard(ctx.Request.Context(), actor.ID)

	if err != nil {
		respondError(ctx, log, err)
		return
	}

	ctx.JSON(http.StatusOK, dashboard)
}

func (h *Handler) EmployeeDashboard(ctx *gin.Context) {
	log := h.entry(ctx, "handlers.EmployeeDashboard")

	actor, ok := currentActor(ctx)

	if !ok {
		return
	}

	dashboard, err := h.svc.EmployeeDashboard(ctx.Request.Context(), actor.ID)

	if err != nil {
		respondError(ctx, log, err)
		return
	}

	ctx.JSON(http.StatusOK, dashboard)
}
