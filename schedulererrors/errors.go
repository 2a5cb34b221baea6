// Package schedulererrors provides the unified error taxonomy for the scheduler.
package schedulererrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a distinct failure kind surfaced to callers.
type Code string

const (
	// Authorization
	CodeUnauthorized Code = "UNAUTHORIZED"

	// Existence
	CodeJobDoesNotExist     Code = "JOB_DOES_NOT_EXIST"
	CodeJobAlreadyExists    Code = "JOB_ALREADY_EXISTS"
	CodeJobAlreadyFinished  Code = "JOB_ALREADY_FINISHED"
	CodeAccountDoesNotExist Code = "ACCOUNT_DOES_NOT_EXIST"
	CodeAccountAlreadyExist Code = "ACCOUNT_ALREADY_EXISTS"

	// State machine
	CodeJobNotActive            Code = "JOB_NOT_ACTIVE"
	CodeEvictionPeriodNotElapsed Code = "EVICTION_PERIOD_NOT_ELAPSED"

	// Validation
	CodeNameTooLong            Code = "NAME_TOO_LONG"
	CodeNameTooShort           Code = "NAME_TOO_SHORT"
	CodeRewardTooSmall         Code = "REWARD_TOO_SMALL"
	CodeMaxFeeUnderMinFee      Code = "MAX_FEE_UNDER_MIN_FEE"
	CodeMaxTimeUnderMinTime    Code = "MAX_TIME_UNDER_MIN_TIME"
	CodeRewardSmallerThanFee   Code = "REWARD_SMALLER_THAN_FEE"
	CodeCreationFeeTooHigh     Code = "CREATION_FEE_TOO_HIGH"
	CodeCancellationFeeTooHigh Code = "CANCELLATION_FEE_TOO_HIGH"

	// Resolver
	CodeInvalidVariableReference Code = "INVALID_VARIABLE_REFERENCE"
	CodeVariableKindMismatch     Code = "VARIABLE_KIND_MISMATCH"
	CodeInvalidCondition         Code = "INVALID_CONDITION"
	CodeQueryFailure             Code = "QUERY_FAILURE"

	// Account pool
	CodeAccountAlreadyOccupied Code = "ACCOUNT_ALREADY_OCCUPIED"
	CodeAccountAlreadyFree     Code = "ACCOUNT_ALREADY_FREE"

	// Internal
	CodeInternal Code = "INTERNAL"
)

// httpStatus maps each code to its boundary-adapter HTTP equivalent.
var httpStatus = map[Code]int{
	CodeUnauthorized:             http.StatusForbidden,
	CodeJobDoesNotExist:          http.StatusNotFound,
	CodeJobAlreadyExists:         http.StatusConflict,
	CodeJobAlreadyFinished:       http.StatusConflict,
	CodeAccountDoesNotExist:      http.StatusNotFound,
	CodeAccountAlreadyExist:      http.StatusConflict,
	CodeJobNotActive:             http.StatusConflict,
	CodeEvictionPeriodNotElapsed: http.StatusConflict,
	CodeNameTooLong:              http.StatusBadRequest,
	CodeNameTooShort:             http.StatusBadRequest,
	CodeRewardTooSmall:           http.StatusBadRequest,
	CodeMaxFeeUnderMinFee:        http.StatusBadRequest,
	CodeMaxTimeUnderMinTime:      http.StatusBadRequest,
	CodeRewardSmallerThanFee:     http.StatusBadRequest,
	CodeCreationFeeTooHigh:       http.StatusBadRequest,
	CodeCancellationFeeTooHigh:   http.StatusBadRequest,
	CodeInvalidVariableReference: http.StatusBadRequest,
	CodeVariableKindMismatch:     http.StatusBadRequest,
	CodeInvalidCondition:         http.StatusBadRequest,
	CodeQueryFailure:             http.StatusBadGateway,
	CodeAccountAlreadyOccupied:   http.StatusConflict,
	CodeAccountAlreadyFree:       http.StatusConflict,
	CodeInternal:                 http.StatusInternalServerError,
}

// Error is a structured scheduler error carrying a stable code, an
// HTTP-equivalent status, and optional structured details.
type Error struct {
	Code       Code           `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// WithDetails attaches a structured detail key/value and returns the receiver.
func (e *Error) WithDetails(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates an Error for code with its registered HTTP status.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message, HTTPStatus: statusFor(code)}
}

// Wrap creates an Error that wraps an underlying cause.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, HTTPStatus: statusFor(code), Err: err}
}

func statusFor(code Code) int {
	if s, ok := httpStatus[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// --- Authorization ---

func Unauthorized(message string) *Error { return New(CodeUnauthorized, message) }

// --- Existence ---

func JobDoesNotExist(id uint64) *Error {
	return New(CodeJobDoesNotExist, "job does not exist").WithDetails("job_id", id)
}

func JobAlreadyExists(id uint64) *Error {
	return New(CodeJobAlreadyExists, "job already exists").WithDetails("job_id", id)
}

func JobAlreadyFinished(id uint64) *Error {
	return New(CodeJobAlreadyFinished, "job already finished").WithDetails("job_id", id)
}

func AccountDoesNotExist(addr string) *Error {
	return New(CodeAccountDoesNotExist, "account does not exist").WithDetails("address", addr)
}

func AccountAlreadyExists(addr string) *Error {
	return New(CodeAccountAlreadyExist, "account already exists").WithDetails("address", addr)
}

// --- State machine ---

func JobNotActive(id uint64) *Error {
	return New(CodeJobNotActive, "job is not pending").WithDetails("job_id", id)
}

func EvictionPeriodNotElapsed(id uint64, elapsed, required int64) *Error {
	return New(CodeEvictionPeriodNotElapsed, "eviction grace period has not elapsed").
		WithDetails("job_id", id).
		WithDetails("elapsed_seconds", elapsed).
		WithDetails("required_seconds", required)
}

// --- Validation ---

func NameTooLong(maxLen int) *Error {
	return New(CodeNameTooLong, "name exceeds maximum length").WithDetails("max_length", maxLen)
}

func NameTooShort() *Error {
	return New(CodeNameTooShort, "name must not be empty")
}

func RewardTooSmall(minimum uint64) *Error {
	return New(CodeRewardTooSmall, "reward is below the minimum accepted reward").
		WithDetails("minimum_reward", minimum)
}

func MaxFeeUnderMinFee() *Error {
	return New(CodeMaxFeeUnderMinFee, "a_max must be >= a_min")
}

func MaxTimeUnderMinTime() *Error {
	return New(CodeMaxTimeUnderMinTime, "t_max must be >= t_min")
}

func RewardSmallerThanFee() *Error {
	return New(CodeRewardSmallerThanFee, "minimum_reward must be >= a_min")
}

func CreationFeeTooHigh() *Error {
	return New(CodeCreationFeeTooHigh, "creation_fee_percentage must be <= 100")
}

func CancellationFeeTooHigh() *Error {
	return New(CodeCancellationFeeTooHigh, "cancellation_fee_percentage must be <= 100")
}

// --- Resolver ---

func InvalidVariableReference(name string) *Error {
	return New(CodeInvalidVariableReference, "variable reference is forward, self, or undeclared").
		WithDetails("name", name)
}

func VariableKindMismatch(name string, kind string) *Error {
	return New(CodeVariableKindMismatch, "value does not parse under the variable's declared kind").
		WithDetails("name", name).
		WithDetails("kind", kind)
}

func InvalidCondition(reason string) *Error {
	return New(CodeInvalidCondition, "condition failed to resolve").WithDetails("reason", reason)
}

func QueryFailure(err error) *Error {
	return Wrap(CodeQueryFailure, "external query failed", err)
}

// --- Account pool ---

func AccountAlreadyOccupied(addr string) *Error {
	return New(CodeAccountAlreadyOccupied, "sub-account is already in use").WithDetails("address", addr)
}

func AccountAlreadyFree(addr string) *Error {
	return New(CodeAccountAlreadyFree, "sub-account is already free").WithDetails("address", addr)
}

// --- Internal ---

func Internal(message string, err error) *Error {
	return Wrap(CodeInternal, message, err)
}

// As extracts a *Error from err's chain, if present.
func As(err error) (*Error, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// HTTPStatusOf returns the HTTP-equivalent status for any error, defaulting
// to 500 when err does not carry a scheduler *Error.
func HTTPStatusOf(err error) int {
	if se, ok := As(err); ok {
		return se.HTTPStatus
	}
	return http.StatusInternalServerError
}

// CodeOf returns the Code carried by err, defaulting to CodeInternal when
// err does not carry a scheduler *Error.
func CodeOf(err error) Code {
	if se, ok := As(err); ok {
		return se.Code
	}
	return CodeInternal
}
