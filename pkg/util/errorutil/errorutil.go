package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Error codes rendered to API clients.
const (
	CodeUnauthenticated        = "UNAUTHENTICATED"
	CodeUnauthorized           = "UNAUTHORIZED"
	CodeNotFound               = "NOT_FOUND"
	CodeInvalidTransition      = "INVALID_TRANSITION"
	CodeInvalidInitialState    = "INVALID_INITIAL_STATE"
	CodeDuplicateActiveInquiry = "DUPLICATE_ACTIVE_INQUIRY"
	CodeRoomUnavailable        = "ROOM_UNAVAILABLE"
	CodeRoomFull               = "ROOM_FULL"
	CodeSignature              = "SIGNATURE_ERROR"
	CodeValidation             = "VALIDATION_FAILED"
	CodeConflict               = "CONFLICT"
	CodeUploadFailed           = "UPLOAD_FAILED"
	CodePaymentGateway         = "PAYMENT_GATEWAY_ERROR"
	CodeRateLimited            = "RATE_LIMITED"
	CodeInternal               = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthenticated(message string) error {
	return NewDomainError(CodeUnauthenticated, message, http.StatusUnauthorized, nil)
}

// NewUnauthorized reports an authenticated caller acting on something it does not own.
func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

// NewInvalidTransition carries both sides of a rejected status change.
func NewInvalidTransition(current, attempted string) error {
	return NewDomainError(CodeInvalidTransition,
		fmt.Sprintf("cannot move from %s to %s", current, attempted),
		http.StatusConflict,
		map[string]any{"current": current, "attempted": attempted})
}

func NewInvalidInitialState(status string) error {
	return NewDomainError(CodeInvalidInitialState,
		fmt.Sprintf("records must be created as pending, got %s", status),
		http.StatusUnprocessableEntity,
		map[string]any{"status": status})
}

func NewDuplicateActiveInquiry(roomID string) error {
	return NewDomainError(CodeDuplicateActiveInquiry,
		"an active inquiry for this room already exists",
		http.StatusConflict,
		map[string]any{"room_id": roomID})
}

func NewRoomUnavailable(roomID string, status string) error {
	return NewDomainError(CodeRoomUnavailable,
		"room is not accepting inquiries",
		http.StatusConflict,
		map[string]any{"room_id": roomID, "status": status})
}

func NewRoomFull(roomID string) error {
	return NewDomainError(CodeRoomFull, "room has no free slot", http.StatusConflict,
		map[string]any{"room_id": roomID})
}

func NewSignatureError(err error) error {
	return &DomainError{
		Code:       CodeSignature,
		Message:    "invalid event signature",
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
	}
}

func NewUploadError(err error) error {
	return &DomainError{
		Code:       CodeUploadFailed,
		Message:    "image upload failed",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

func NewPaymentGatewayError(err error) error {
	return &DomainError{
		Code:       CodePaymentGateway,
		Message:    "payment provider unavailable",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

func NewRateLimited() error {
	return NewDomainError(CodeRateLimited, "too many requests", http.StatusTooManyRequests, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err is a DomainError with the given code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return NewNotFound("resource", nil).(*DomainError)
	}
	return NewInternalError(err).(*DomainError)
}

func MapError(err error) error {
	return ToDomainError(err)
}
