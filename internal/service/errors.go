package service

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes carried by DomainError
const (
	CodeNotFound            = "not_found"
	CodeValidation          = "validation_failed"
	CodeUpstreamUnavailable = "upstream_unavailable"
	CodeInternal            = "internal_error"
)

// DomainError is the error type every service returns to handlers.
type DomainError struct {
	Status  int
	Code    string
	Message string
	Details interface{}
	Err     error
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// ValidationDetails lists everything that made a write request unacceptable.
type ValidationDetails struct {
	InvalidPackageIDs []uint   `json:"invalid_package_ids,omitempty"`
	InvalidItemTypes  []string `json:"invalid_item_types,omitempty"`
	InvalidItemIDs    []string `json:"invalid_item_ids,omitempty"`
}

func (d ValidationDetails) empty() bool {
	return len(d.InvalidPackageIDs) == 0 && len(d.InvalidItemTypes) == 0 && len(d.InvalidItemIDs) == 0
}

func notFound(message string) *DomainError {
	return &DomainError{Status: http.StatusNotFound, Code: CodeNotFound, Message: message}
}

func validationFailed(message string, details interface{}) *DomainError {
	return &DomainError{Status: http.StatusUnprocessableEntity, Code: CodeValidation, Message: message, Details: details}
}

func upstreamUnavailable(err error) *DomainError {
	return &DomainError{Status: http.StatusBadGateway, Code: CodeUpstreamUnavailable, Message: "upstream hierarchy source unavailable", Err: err}
}

func internal(message string, err error) *DomainError {
	return &DomainError{Status: http.StatusInternalServerError, Code: CodeInternal, Message: message, Err: err}
}

// AsDomainError unwraps err into a DomainError, wrapping unknown errors as internal.
func AsDomainError(err error) *DomainError {
	var de *DomainError
	if errors.As(err, &de) {
		return de
	}
	return internal("unexpected error", err)
}
