package handler

import (
	"errors"
	"net/http"

	"milkeyway/internal/service"
	"milkeyway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// statusFor maps service sentinel errors to HTTP status codes. Anything
// unrecognized is an internal error; the raw message is still safe to return
// because services never wrap driver errors into user-facing sentinels.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrCodeNotFound),
		errors.Is(err, service.ErrFarmerNotFound),
		errors.Is(err, service.ErrProfileNotFound),
		errors.Is(err, service.ErrRequestNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrCategoryNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrAlreadyRegistered),
		errors.Is(err, service.ErrDuplicateRequest),
		errors.Is(err, service.ErrRequestClosed):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidLogin),
		errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrWrongRole),
		errors.Is(err, service.ErrNotYourRequest),
		errors.Is(err, service.ErrNotYourProduct):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInvalidCode),
		errors.Is(err, service.ErrCodeExpired),
		errors.Is(err, service.ErrAlreadyVerified),
		errors.Is(err, service.ErrNotVerified),
		errors.Is(err, service.ErrBadCoordinates),
		errors.Is(err, service.ErrInvalidCoordinates),
		errors.Is(err, service.ErrInvalidRadius),
		errors.Is(err, service.ErrFarmerNotApproved),
		errors.Is(err, service.ErrInvalidAction):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// parseUUIDParam reads a path parameter as a UUID. On failure it writes the
// 400 response itself so callers can just return.
func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid "+name+" parameter"))
		return uuid.Nil, err
	}
	return id, nil
}
