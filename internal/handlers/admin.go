package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cleantrack-dev/cleantrack/internal/policy"
	"github.com/cleantrack-dev/cleantrack/internal/services"
	"github.com/gin-gonic/gin"
)

// optionalTime records whether expires_at was present at all, so that an
// explicit null (clear the expiry) differs from an absent field.
type optionalTime struct {
	set   bool
	value *time.Time
}

func (o *optionalTime) UnmarshalJSON(data []byte) error {
	o.set = true

	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.value = nil
		return nil
	}

	var raw string

	if err := json.Unmarshal(data, &raw); err != nil {
		return policy.Validation("expires_at", "expires_at must be a date string or null")
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			o.value = &t
			return nil
		}
	}

	return policy.Validation("expires_at", "expires_at must be RFC 3339 or YYYY-MM-DD")
}

type UpdateSubscriptionRequest struct {
	ExpiresAt     optionalTime `json:"expires_at"`
	MaxProperties *int         `json:"max_properties"`
	MaxEmployees  *int         `json:"max_employees"`
}

func (h *Handler) ListOwners(ctx *gin.Context) {
	log := h.entry(ctx, "handlers.ListOwners")

	actor, ok := currentActor(ctx)

	if !ok {
		return
	}

	owners, err := h.svc.ListOwners(ctx.Request.Context(), actor)

	if err != nil {
		respondError(ctx, log, err)
		return
	}

	ctx.JSON(http.StatusOK, owners)
}

func (h *Handler) UpdateSubscription(ctx *gin.Context) {
	log := h.entry(ctx, "handlers.UpdateSubscription")

	actor, ok := currentActor(ctx)

	if !ok {
		return
	}

	ownerID, ok := idParam(ctx, "owner_id")

	if !ok {
		return
	}

	var body UpdateSubscriptionRequest

	if !bindJSON(ctx, log, &body) {
		return
	}

	owner, err := h.svc.UpdateSubscription(ctx.Request.Context(), actor, ownerID, services.SubscriptionUpdate{
		ExpiresAt:     services.OptionalTime{Set: body.ExpiresAt.set, Value: body.ExpiresAt.value},
		MaxProperties: body.MaxProperties,
		MaxEmployees:  body.MaxEmployees,
	})

	if err != nil {
		respondError(ctx, log, err)
		return
	}

	ctx.JSON(http.StatusOK, owner)
}

func (h *Handler) SubscriptionHistory(ctx *gin.Context) {
	log := h.entry(ctx, "handlers.SubscriptionHistory")

	actor, ok := currentActor(ctx)

	if !ok {
		return
	}

	ownerID, ok := idParam(ctx, "owner_id")

	if !ok {
		return
	}

	history, err := h.svc.SubscriptionHistory(ctx.Request.Context(), actor, ownerID)

	if err != nil {
		respondError(ctx, log, err)
		return
	}

	ctx.JSON(http.StatusOK, history)
}
