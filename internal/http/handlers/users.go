package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/authcore/internal/config"
	"github.com/geocoder89/authcore/internal/domain/user"
	"github.com/geocoder89/authcore/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type UserService interface {
	CurrentUser(ctx context.Context, accessToken string) (user.Profile, error)
	UpdateCurrentUser(ctx context.Context, accessToken string, patch user.Patch) error
}

type UsersHandler struct {
	svc     UserService
	timeout time.Duration
}

func NewUsersHandler(svc UserService) *UsersHandler {
	return &UsersHandler{svc: svc, timeout: 3 * time.Second}
}

type UpdateMeRequest struct {
	NewName  *string `json:"new_name" binding:"omitempty,min=3,max=50"`
	NewEmail *string `json:"new_email" binding:"omitempty,email"`
}

func (h *UsersHandler) Me(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	p, err := h.svc.CurrentUser(cctx, middlewares.AccessTokenFrom(ctx))
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, p)
}

func (h *UsersHandler) UpdateMe(ctx *gin.Context) {
	var req UpdateMeRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	err := h.svc.UpdateCurrentUser(cctx, middlewares.AccessTokenFrom(ctx), user.Patch{
		Name:  req.NewName,
		Email: req.NewEmail,
	})
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "updated"})
}
