// Package errors carries the numeric error codes the API reports and maps
// them to HTTP statuses.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Transport-level codes reuse the HTTP status numbers.
const (
	ErrInvalidRequest      = 400
	ErrUnauthorized        = 401
	ErrInternalServerError = 500
	ErrServiceUnavailable  = 503
)

// Engine codes (1000+)
const (
	ErrGameModuleNotFound = 1002
	ErrPlayerStateError   = 1003
	ErrRedisError         = 1007
	ErrConfigError        = 1008
	ErrGameLogicError     = 1009

	// ErrInvalidBet rejects a request before any money moves.
	ErrInvalidBet = 1010
	// ErrRoundInProgress is single-flight: the player already has a round open.
	ErrRoundInProgress = 1011
	// ErrStakeFailed means the stake transfer was refused; the round is idle again.
	ErrStakeFailed = 1012
	// ErrSettlementFailed means the round stands but the payout did not arrive.
	ErrSettlementFailed = 1013
	// ErrInvalidResult means the resolver produced nothing usable.
	ErrInvalidResult = 1014
	// ErrPaymentTimeout is a stake transfer that got no answer.
	ErrPaymentTimeout = 1015
	// ErrIllegalAction is an action the round's current state does not allow.
	ErrIllegalAction = 1016
)

var statusByCode = map[int]int{
	ErrInvalidRequest:      http.StatusBadRequest,
	ErrInvalidBet:          http.StatusBadRequest,
	ErrUnauthorized:        http.StatusUnauthorized,
	ErrStakeFailed:         http.StatusPaymentRequired,
	ErrGameModuleNotFound:  http.StatusNotFound,
	ErrRoundInProgress:     http.StatusConflict,
	ErrIllegalAction:       http.StatusConflict,
	ErrInvalidResult:       http.StatusUnprocessableEntity,
	ErrSettlementFailed:    http.StatusBadGateway,
	ErrServiceUnavailable:  http.StatusServiceUnavailable,
	ErrPaymentTimeout:      http.StatusGatewayTimeout,
	ErrInternalServerError: http.StatusInternalServerError,
}

// AppError represents a custom application error
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	// DebugMessage is logged, never shown to players.
	DebugMessage string `json:"debug_message,omitempty"`
	Err          error  `json:"-"`
}

func (e *AppError) Error() string {
	switch {
	case e.DebugMessage != "":
		return fmt.Sprintf("[%d] %s: %s", e.Code, e.Message, e.DebugMessage)
	case e.Err != nil:
		return fmt.Sprintf("[%d] %s [%v]", e.Code, e.Message, e.Err)
	default:
		return fmt.Sprintf("[%d] %s", e.Code, e.Message)
	}
}

func (e *AppError) Unwrap() error { return e.Err }

// New creates a new AppError
func New(code int, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// NewWithDebug creates a new AppError with a debug message
func NewWithDebug(code int, message, debugMessage string) *AppError {
	return &AppError{Code: code, Message: message, DebugMessage: debugMessage}
}

// Wrap wraps an existing error into an AppError
func Wrap(err error, code int, message string) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// As finds the first AppError in err's chain
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is reports whether err carries an AppError with the given code
func Is(err error, code int) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// GetCode returns the code in err's chain, 0 for nil and
// ErrInternalServerError for anything untyped.
func GetCode(err error) int {
	if err == nil {
		return 0
	}
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return ErrInternalServerError
}

// HTTPStatusFromCode maps error codes to HTTP status codes
func HTTPStatusFromCode(code int) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
