package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/geocoder89/authcore/internal/config"
	"github.com/geocoder89/authcore/internal/domain/user"
	"github.com/geocoder89/authcore/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type AdminService interface {
	ListUsersAsAdmin(ctx context.Context, accessToken string) ([]user.Listing, error)
	CreateRole(ctx context.Context, accessToken, name string) (user.Role, error)
	DeleteRole(ctx context.Context, accessToken string, roleID int64) error
	DeleteUser(ctx context.Context, accessToken string, userID int64) error
}

type AdminHandler struct {
	svc     AdminService
	timeout time.Duration
}

func NewAdminHandler(svc AdminService) *AdminHandler {
	return &AdminHandler{svc: svc, timeout: 5 * time.Second}
}

type CreateRoleRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

func (h *AdminHandler) ListUsers(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	users, err := h.svc.ListUsersAsAdmin(cctx, middlewares.AccessTokenFrom(ctx))
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, users)
}

func (h *AdminHandler) CreateRole(ctx *gin.Context) {
	var req CreateRoleRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	role, err := h.svc.CreateRole(cctx, middlewares.AccessTokenFrom(ctx), req.Name)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, role)
}

func (h *AdminHandler) DeleteRole(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	if err := h.svc.DeleteRole(cctx, middlewares.AccessTokenFrom(ctx), id); err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *AdminHandler) DeleteUser(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	if err := h.svc.DeleteUser(cctx, middlewares.AccessTokenFrom(ctx), id); err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func pathID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		RespondBadRequest(ctx, "Invalid id", gin.H{"id": ctx.Param("id")})
		return 0, false
	}
	return id, true
}
