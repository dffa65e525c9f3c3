package handlers

import (
	"errors"
	"net/http"

	"github.com/cleantrack-dev/cleantrack/internal/policy"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// respondError is the single translation from the error taxonomy to HTTP.
func respondError(ctx *gin.Context, log *logrus.Entry, err error) {
	perr, ok := policy.As(err)

	if !ok {
		log.WithError(err).Error("unexpected error")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	switch {
	case errors.Is(err, policy.ErrValidation):
		body := gin.H{"error": perr.Msg}

		if perr.Field != "" {
			body["field"] = perr.Field
		}

		status := http.StatusBadRequest

		if perr.Duplicate {
			status = http.StatusConflict
		}

		ctx.JSON(status, body)

	case errors.Is(err, policy.ErrUnauthenticated):
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})

	case errors.Is(err, policy.ErrNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": perr.Msg})

	case errors.Is(err, policy.ErrForbidden):
		ctx.JSON(http.StatusForbidden, gin.H{"error": perr.Msg})

	case errors.Is(err, policy.ErrQuotaExceeded):
		ctx.JSON(http.StatusForbidden, gin.H{
			"error":    perr.Msg,
			"resource": perr.Resource,
			"limit":    perr.Limit,
		})

	case errors.Is(err, policy.ErrSubscriptionExpired):
		ctx.JSON(http.StatusForbidden, gin.H{
			"error":      "SUBSCRIPTION_EXPIRED",
			"message":    "Your subscription has expired, " + perr.Msg,
			"expires_at": perr.ExpiresAt,
		})

	case errors.Is(err, policy.ErrAlreadyCompleted):
		ctx.JSON(http.StatusConflict, gin.H{"error": "Task is already completed"})

	default:
		log.WithError(err).Error("request failed")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
