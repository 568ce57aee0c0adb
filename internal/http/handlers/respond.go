package handlers

import (
	"errors"
	"net/http"

	"github.com/geocoder89/authcore/internal/apperr"
	"github.com/geocoder89/authcore/internal/http/middlewares"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get(middlewares.CtxRequestID)

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.JSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondUnauthorized(ctx *gin.Context, code, message string) {
	ctx.Header("WWW-Authenticate", "Bearer")
	RespondError(ctx, http.StatusUnauthorized, code, message, nil)
}

func RespondForbidden(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusForbidden, "forbidden", message, nil)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondConflict(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusConflict, code, message, nil)
}

func RespondUnavailable(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusServiceUnavailable, "unavailable", message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

// RespondAppError maps an error from the identity service onto a status code.
// Fault details never reach the client; the service has already logged them.
func RespondAppError(ctx *gin.Context, err error) {
	switch apperr.KindOf(err) {
	case apperr.ErrInvalidArgument:
		RespondBadRequest(ctx, causeMessage(err, "Invalid request"), nil)
	case apperr.ErrUnauthorized:
		RespondUnauthorized(ctx, "unauthorized", "Could not validate credentials")
	case apperr.ErrForbidden:
		RespondForbidden(ctx, "Not enough permissions")
	case apperr.ErrNotFound:
		RespondNotFound(ctx, "Resource not found")
	case apperr.ErrConflict:
		RespondConflict(ctx, "conflict", "Resource already exists or is still in use")
	case apperr.ErrStorageUnavailable:
		RespondUnavailable(ctx, "Service temporarily unavailable")
	default:
		RespondInternal(ctx, "Something went wrong")
	}
}

// causeMessage returns the cause of a caller-facing error. Raw validator
// output is replaced by fallback.
func causeMessage(err error, fallback string) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return fallback
	}

	var ae *apperr.Error
	if errors.As(err, &ae) && ae.Err != nil {
		return ae.Err.Error()
	}
	return fallback
}
