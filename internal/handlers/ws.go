package handlers

import (
	"github.com/gin-gonic/gin"
)

// WebSocket subscribes a reader of the property to its refresh events.
// Access is checked before the upgrade so failures are plain JSON errors.
func (h *Handler) WebSocket(ctx *gin.Context) {
	log := h.entry(ctx, "handlers.WebSocket")

	actor, ok := currentActor(ctx)

	if !ok {
		return
	}

	propertyID, ok := idParam(ctx, "property_id")

	if !ok {
		return
	}

	if _, err := h.svc.GetProperty(ctx.Request.Context(), actor, propertyID); err != nil {
		respondError(ctx, log, err)
		return
	}

	if err := h.hub.Serve(ctx.Writer, ctx.Request, propertyID); err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
	}
}
