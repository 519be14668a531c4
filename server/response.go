package server

import (
	"net/http"
	"time"

	"github.com/Digital-Creators-Team/casino-engine/errors"
	"github.com/Digital-Creators-Team/casino-engine/middleware"
	"github.com/Digital-Creators-Team/casino-engine/types"
	"github.com/gin-gonic/gin"
)

const ErrUndefinedErrorCode = -99

// ErrorDetail is an alias for types.ErrorDetail
// @Description Error payload details
type ErrorDetail = types.ErrorDetail

// ErrorResponse is an alias for types.ErrorResponse
// @Description Standardized error response
type ErrorResponse = types.ErrorResponse

// SuccessResponse is a type alias for types.SuccessResponse[T]
// @Description Standardized success response
type SuccessResponse[T any] = types.SuccessResponse[T]

// BaseResponse is SuccessResponse[interface{}] for swagger annotations
// @Description Standard API response wrapper
type BaseResponse = SuccessResponse[interface{}]

// Success sends a success response
func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, SuccessResponse[interface{}]{StatusCode: statusCode, IsSuccess: true, Data: data})
}

// OK sends a 200 OK response
func OK(c *gin.Context, data interface{}) {
	Success(c, http.StatusOK, data)
}

// Error sends the error envelope. AppErrors report their own code and
// player-facing message; debug details stay in the logs.
func Error(c *gin.Context, statusCode int, err error) {
	detail := ErrorDetail{
		Timestamp:    time.Now().Format(time.RFC3339),
		Path:         c.Request.URL.Path,
		ErrorMessage: err.Error(),
		ErrorCode:    ErrUndefinedErrorCode,
		TraceID:      middleware.GetTraceID(c),
	}
	if appErr, ok := errors.As(err); ok {
		detail.ErrorMessage = appErr.Message
		detail.ErrorCode = appErr.Code
	}
	c.JSON(statusCode, ErrorResponse{StatusCode: statusCode, Error: detail})
}

// BadRequest sends a 400 Bad Request response
func BadRequest(c *gin.Context, err error) {
	Error(c, http.StatusBadRequest, err)
}

// Unauthorized sends a 401 Unauthorized response
func Unauthorized(c *gin.Context, err error) {
	Error(c, http.StatusUnauthorized, err)
}

// InternalError sends a 500 Internal Server Error response
func InternalError(c *gin.Context, err error) {
	Error(c, http.StatusInternalServerError, err)
}

// HandleAppError maps an AppError anywhere in err's chain to its HTTP status.
// Anything else is a 500 with a generic message.
func HandleAppError(c *gin.Context, err error) {
	if appErr, ok := errors.As(err); ok {
		if appErr.Code >= errors.ErrInternalServerError && appErr.Err != nil {
			_ = c.Error(appErr.Err)
		}
		Error(c, errors.HTTPStatusFromCode(appErr.Code), appErr)
		return
	}
	_ = c.Error(err)
	InternalError(c, errors.New(errors.ErrInternalServerError, "internal error"))
}
