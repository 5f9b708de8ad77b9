package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ArielDRighi/TarotFlavia-sub004/internal/service/scheduling"
)

type apiError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) Error() string { return e.Message }

var (
	errUnauthorized = &apiError{Status: http.StatusUnauthorized, Code: "unauthorized", Message: "missing or invalid bearer token"}
	errForbidden    = &apiError{Status: http.StatusForbidden, Code: "forbidden", Message: "not allowed for this role"}
	errRateLimited  = &apiError{Status: http.StatusTooManyRequests, Code: "rate_limited", Message: "too many booking attempts, try again later"}
	errInternal     = &apiError{Status: http.StatusInternalServerError, Code: "internal_error", Message: "internal server error"}
	errTimeout      = &apiError{Status: http.StatusGatewayTimeout, Code: "timeout", Message: "request timed out"}
)

func badRequest(msg string) *apiError {
	return &apiError{Status: http.StatusBadRequest, Code: string(scheduling.KindInvalidInput), Message: msg}
}

var categoryStatus = map[scheduling.Category]int{
	scheduling.CategoryValidation: http.StatusBadRequest,
	scheduling.CategoryConflict:   http.StatusConflict,
	scheduling.CategoryNotFound:   http.StatusNotFound,
	scheduling.CategoryState:      http.StatusUnprocessableEntity,
}

// toAPIError maps engine errors onto HTTP. Anything that is not a business error is
// reported as 500 without detail.
func toAPIError(err error) *apiError {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae
	}
	var se *scheduling.Error
	if errors.As(err, &se) {
		return &apiError{Status: categoryStatus[se.Category()], Code: string(se.Kind), Message: se.Error()}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errTimeout
	}
	return errInternal
}

type errorEnvelope struct {
	Error *apiError `json:"error"`
}

func abortWithError(c *gin.Context, err error) {
	ae := toAPIError(err)
	if ae.Status >= http.StatusInternalServerError {
		// Picked up by the access log.
		_ = c.Error(err)
	}
	c.Header("Cache-Control", "no-store")
	c.AbortWithStatusJSON(ae.Status, errorEnvelope{Error: ae})
}

type dataEnvelope struct {
	Data any `json:"data"`
}

func respond(c *gin.Context, status int, data any) {
	c.Header("Cache-Control", "no-store")
	c.JSON(status, dataEnvelope{Data: data})
}
