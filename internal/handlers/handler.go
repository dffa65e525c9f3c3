package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cleantrack-dev/cleantrack/internal/middleware"
	"github.com/cleantrack-dev/cleantrack/internal/policy"
	"github.com/cleantrack-dev/cleantrack/internal/realtime"
	"github.com/cleantrack-dev/cleantrack/internal/services"
	"github.com/cleantrack-dev/cleantrack/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// CookieConfig shapes the token cookie set on login.
type CookieConfig struct {
	Domain string
	Secure bool
	MaxAge int
}

type Handler struct {
	svc    *services.Service
	hub    *realtime.Hub
	log    *logrus.Logger
	cookie CookieConfig
}

func New(svc *services.Service, hub *realtime.Hub, log *logrus.Logger, cookie CookieConfig) *Handler {
	return &Handler{svc: svc, hub: hub, log: log, cookie: cookie}
}

func (h *Handler) entry(ctx *gin.Context, op string) *logrus.Entry {
	return h.log.WithFields(logrus.Fields{
		"operation":  op,
		"request_id": ctx.GetString(middleware.RequestIDKey),
	})
}

// currentActor writes 401 and returns false when no user is attached.
func currentActor(ctx *gin.Context) (services.Actor, bool) {
	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return services.Actor{}, false
	}

	return services.Actor{ID: user.ID, Role: user.Role}, true
}

// idParam writes 400 and returns false when the parameter is not an id.
func idParam(ctx *gin.Context, name string) (uint, bool) {
	id, err := utils.ParseIDParam(ctx, name)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}

	return id, true
}

// bindJSON decodes the request body into dst. On failure it answers 400 naming
// the offending field and returns false.
func bindJSON(ctx *gin.Context, log *logrus.Entry, dst interface{}) bool {
	err := ctx.ShouldBindJSON(dst)

	if err == nil {
		return true
	}

	respondError(ctx, log, bodyError(err))
	return false
}

func bodyError(err error) error {
	if _, ok := policy.As(err); ok {
		return err
	}

	var typeErr *json.UnmarshalTypeError

	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return policy.Validation(typeErr.Field, "%s has the wrong type", typeErr.Field)
	}

	return policy.Validation("body", "request body must be a JSON object")
}
