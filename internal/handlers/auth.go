package handlers

import (
	"net/http"
	"strings"

	"github.com/cleantrack-dev/cleantrack/internal/middleware"
	"github.com/cleantrack-dev/cleantrack/internal/services"
	"github.com/gin-gonic/gin"
)

type SignupRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	CompanyName string `json:"company_name"`
}

// LoginRequest takes email for every role, or name when login_type is
// "employee".
type LoginRequest struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	Password  string `json:"password"`
	LoginType string `json:"login_type"`
}

func (h *Handler) Signup(ctx *gin.Context) {
	log := h.entry(ctx, "handlers.Signup")

	var body SignupRequest

	if !bindJSON(ctx, log, &body) {
		return
	}

	resp, err := h.svc.Signup(ctx.Request.Context(), services.SignupInput{
		Name:        body.Name,
		Email:       body.Email,
		Password:    body.Password,
		CompanyName: body.CompanyName,
	})

	if err != nil {
		respondError(ctx, log, err)
		return
	}

	h.setTokenCookie(ctx, resp.Token, h.cookie.MaxAge)
	ctx.JSON(http.StatusCreated, resp)
}

func (h *Handler) Login(ctx *gin.Context) {
	log := h.entry(ctx, "handlers.Login")

	var body LoginRequest

	if !bindJSON(ctx, log, &body) {
		return
	}

	resp, err := h.svc.Login(ctx.Request.Context(), services.LoginInput{
		Email:      body.Email,
		Name:       body.Name,
		Password:   body.Password,
		AsEmployee: strings.EqualFold(body.LoginType, "employee"),
	})

	if err != nil {
		respondError(ctx, log, err)
		return
	}

	h.setTokenCookie(ctx, resp.Token, h.cookie.MaxAge)
	ctx.JSON(http.StatusOK, resp)
}

func (h *Handler) Logout(ctx *gin.Context) {
	h.setTokenCookie(ctx, "", -1)
	ctx.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (h *Handler) Me(ctx *gin.Context) {
	log := h.entry(ctx, "handlers.Me")

	actor, ok := currentActor(ctx)

	if !ok {
		return
	}

	user, err := h.svc.Me(ctx.Request.Context(), actor)

	if err != nil {
		respondError(ctx, log, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *Handler) setTokenCookie(ctx *gin.Context, value string, maxAge int) {
	sameSite := http.SameSiteLaxMode

	// Cross-site cookies are only accepted by browsers over TLS.
	if h.cookie.Secure {
		sameSite = http.SameSiteNoneMode
	}

	http.SetCookie(ctx.Writer, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    value,
		Path:     "/",
		Domain:   h.cookie.Domain,
		MaxAge:   maxAge,
		Secure:   h.cookie.Secure,
		HttpOnly: true,
		SameSite: sameSite,
	})
}
