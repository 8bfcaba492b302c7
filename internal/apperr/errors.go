package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindAuthProvider
	KindDuplicatePhone
	KindBackendWrite
	KindAIProvider
	KindDeviceCapability
	KindValidation
	KindNotFound
	KindInvalidTransition
	KindEmptyContent
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindAuthProvider:
		return "AuthProviderError"
	case KindDuplicatePhone:
		return "DuplicatePhone"
	case KindBackendWrite:
		return "BackendWriteError"
	case KindAIProvider:
		return "AIProviderError"
	case KindDeviceCapability:
		return "DeviceCapabilityDenied"
	case KindValidation:
		return "ValidationError"
	case KindNotFound:
		return "NotFound"
	case KindInvalidTransition:
		return "InvalidTransition"
	case KindEmptyContent:
		return "EmptyContent"
	case KindUnauthorized:
		return "Unauthorized"
	}
	return "InternalError"
}

// AppError carries a kind for routing, a locale key for the user-facing text
// and the underlying provider error for logs only.
type AppError struct {
	Kind    Kind
	Key     string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(kind Kind, key, message string) *AppError {
	return &AppError{Kind: kind, Key: key, Message: message}
}

func Wrap(kind Kind, key, message string, err error) *AppError {
	return &AppError{Kind: kind, Key: key, Message: message, Err: err}
}

// KindOf returns the kind of the first AppError in err's chain, or
// KindInternal.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// KeyOf is the locale key for err; unknown errors map to error_internal.
func KeyOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Key != "" {
		return appErr.Key
	}
	return "error_internal"
}

func HTTPStatus(kind Kind) int {
	switch kind {
	case KindAuthProvider, KindUnauthorized:
		return http.StatusUnauthorized
	case KindDuplicatePhone, KindInvalidTransition:
		return http.StatusConflict
	case KindValidation, KindEmptyContent, KindDeviceCapability:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindBackendWrite, KindAIProvider:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

var (
	ErrDuplicatePhone     = New(KindDuplicatePhone, "error_duplicate_phone", "Phone number already registered.")
	ErrInvalidCredentials = New(KindAuthProvider, "error_invalid_credentials", "Invalid email or password. Please try again or join us!")
	ErrEmptyContent       = New(KindEmptyContent, "error_empty_content", "at least one content field is required")
	ErrUnauthorized       = New(KindUnauthorized, "error_unauthorized", "User not authenticated")
)
