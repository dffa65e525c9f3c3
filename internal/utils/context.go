package utils

import (
	"fmt"
	"strconv"

	"github.com/cleantrack-dev/cleantrack/internal/middleware"
	"github.com/cleantrack-dev/cleantrack/internal/types"
	"github.com/gin-gonic/gin"
)

func GetCurrentUser(ctx *gin.Context) (middleware.AuthenticatedUser, error) {
	user, exists := ctx.Get(types.ContextUserKey)

	if !exists {
		return middleware.AuthenticatedUser{}, fmt.Errorf("User not authenticated")
	}

	authenticatedUser, ok := user.(middleware.AuthenticatedUser)

	if !ok {
		return middleware.AuthenticatedUser{}, fmt.Errorf("Invalid user type in context")
	}

	return authenticatedUser, nil
}

// ParseIDParam reads a positive numeric path parameter.
func ParseIDParam(ctx *gin.Context, name string) (uint, error) {
	raw := ctx.Param(name)

	id, err := strconv.ParseUint(raw, 10, 64)

	if err != nil || id == 0 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}

	return uint(id), nil
}
