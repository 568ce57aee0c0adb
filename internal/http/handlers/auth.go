package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/authcore/internal/apperr"
	"github.com/geocoder89/authcore/internal/auth"
	"github.com/geocoder89/authcore/internal/config"
	"github.com/geocoder89/authcore/internal/domain/user"
	"github.com/geocoder89/authcore/internal/http/middlewares"
	"github.com/geocoder89/authcore/internal/identity"
	"github.com/gin-gonic/gin"
)

const refreshCookieName = "refresh_token"

type AuthService interface {
	Register(ctx context.Context, in identity.RegisterInput) (user.Identity, error)
	Login(ctx context.Context, email, password string) (auth.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

type AuthHandler struct {
	svc        AuthService
	refreshTTL time.Duration
	timeout    time.Duration
}

func NewAuthHandler(svc AuthService, refreshTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		svc:        svc,
		refreshTTL: refreshTTL,
		timeout:    3 * time.Second,
	}
}

type RegisterRequest struct {
	Name            string `json:"name" binding:"required,min=3,max=50"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=5,max=50"`
	ConfirmPassword string `json:"confirm_password" binding:"required,eqfield=Password"`
}

// LoginForm follows the OAuth2 password grant field names. username holds
// the email address.
type LoginForm struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

type AccessTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	id, err := h.svc.Register(cctx, identity.RegisterInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, id)
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var form LoginForm

	if !BindForm(ctx, &form) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	pair, err := h.svc.Login(cctx, form.Username, form.Password)
	if err != nil {
		if apperr.KindOf(err) == apperr.ErrUnauthorized {
			RespondUnauthorized(ctx, "invalid_credentials", "Incorrect email or password")
			return
		}
		RespondAppError(ctx, err)
		return
	}

	h.setRefreshCookie(ctx, pair.RefreshToken)

	ctx.JSON(http.StatusOK, pair)
}

// Refresh reads the refresh token from its cookie, falling back to a bearer
// header for non-browser clients.
func (h *AuthHandler) Refresh(ctx *gin.Context) {
	raw, err := ctx.Cookie(refreshCookieName)

	if err != nil || raw == "" {
		raw, _ = middlewares.BearerToken(ctx.GetHeader("Authorization"))
	}

	if raw == "" {
		RespondUnauthorized(ctx, "no_refresh", "Missing refresh token")
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	access, err := h.svc.Refresh(cctx, raw)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, AccessTokenResponse{
		AccessToken: access,
		TokenType:   "Bearer",
	})
}

// Logout clears the refresh cookie. Tokens are stateless and stay valid
// until they expire.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	h.clearRefreshCookie(ctx)
	ctx.Status(http.StatusNoContent)
}

func (h *AuthHandler) setRefreshCookie(ctx *gin.Context, raw string) {
	ctx.SetSameSite(http.SameSiteStrictMode)

	ctx.SetCookie(
		refreshCookieName,
		raw,
		int(h.refreshTTL.Seconds()),
		"/auth",
		"",
		true,
		true, // HttpOnly.
	)
}

func (h *AuthHandler) clearRefreshCookie(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteStrictMode)
	ctx.SetCookie(
		refreshCookieName,
		"",
		-1,
		"/auth",
		"",
		true,
		true,
	)
}
