package httpx

import (
	"errors"
	"net/http"

	"bizdash/internal/adapter"
	"bizdash/pkg/oauth2"

	"github.com/gin-gonic/gin"
)

type ErrorCode string

const (
	ErrorCodeValidation      ErrorCode = "VALIDATION"
	ErrorCodeUnauthenticated ErrorCode = "UNAUTHENTICATED"
	ErrorCodeConfiguration   ErrorCode = "CONFIGURATION"
	ErrorCodeAuthExpired     ErrorCode = "AUTH_EXPIRED"
	ErrorCodeNotConnected    ErrorCode = "NOT_CONNECTED"
	ErrorCodeProviderAPI     ErrorCode = "PROVIDER_API"
	ErrorCodeInternalFailure ErrorCode = "INTERNAL_FAILURE"
)

type AppError struct {
	Status  int
	Code    ErrorCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func Validation(message string) *AppError {
	return &AppError{Status: http.StatusBadRequest, Code: ErrorCodeValidation, Message: message}
}

// FromError maps domain sentinels onto HTTP semantics. Unknown errors become
// a 500 without leaking their text.
func FromError(err error) *AppError {
	var appErr *AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, oauth2.ErrAuthExpired):
		return &AppError{Status: http.StatusUnauthorized, Code: ErrorCodeAuthExpired, Message: "Authorization expired, please reconnect the integration", Err: err}
	case errors.Is(err, oauth2.ErrNotConnected):
		return &AppError{Status: http.StatusNotFound, Code: ErrorCodeNotConnected, Message: "Integration not connected", Err: err}
	case errors.Is(err, adapter.ErrInvalidArgument):
		return &AppError{Status: http.StatusBadRequest, Code: ErrorCodeValidation, Message: "Invalid request parameters", Err: err}
	case errors.Is(err, oauth2.ErrProviderAPI):
		return &AppError{Status: http.StatusBadGateway, Code: ErrorCodeProviderAPI, Message: "Provider API request failed", Err: err}
	case errors.Is(err, oauth2.ErrConfiguration):
		return &AppError{Status: http.StatusInternalServerError, Code: ErrorCodeConfiguration, Message: "Integration is not configured on the server", Err: err}
	default:
		return &AppError{Status: http.StatusInternalServerError, Code: ErrorCodeInternalFailure, Message: "Internal Server Error", Err: err}
	}
}

func SendError(c *gin.Context, err error) {
	appErr := FromError(err)
	body := gin.H{
		"error": appErr.Message,
		"code":  appErr.Code,
	}
	if appErr.Code == ErrorCodeNotConnected || appErr.Code == ErrorCodeAuthExpired {
		body["connected"] = false
	}
	c.AbortWithStatusJSON(appErr.Status, body)
}
