/*
Package errs provides custom error types and application-level error code constants.

This file defines the CustomError struct, which implements the standard Go
error interface and carries a business code, a client-safe message, and the
HTTP status used when the error surfaces through the REST layer.
*/
package errs

import (
	"fmt"
	"net/http"
	"strings"

	"wirechat/internal/pkg/logx"
)

// CustomError is the error structure used throughout the application.
type CustomError struct {
	// Code is the business error code (see error_codes.go).
	Code int

	// Message is the client-safe error description. Diagnostic detail never
	// rides on this field.
	Message string

	// Status is the HTTP status code used when responding over REST.
	Status int
}

// Error implements the standard error interface.
func (e CustomError) Error() string {
	return fmt.Sprintf("Error Code %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// NewError constructs a *CustomError from a predefined error code. Optional
// details are printf-style arguments for templates containing placeholders.
// Unknown codes fall back to ErrUnknown.
func NewError(code int, details ...any) *CustomError {
	templateErr, ok := errorMap[code]

	if !ok {
		logx.Error(
			fmt.Errorf("attempted to create an error with an unknown code"),
			"Unknown error code requested",
			"requested_code", code,
		)

		unknownErr := errorMap[ErrUnknown]
		return &CustomError{
			Code:    unknownErr.Code,
			Message: unknownErr.Message,
			Status:  unknownErr.Status,
		}
	}

	customErr := templateErr

	if customErr.Status == 0 {
		customErr.Status = http.StatusOK
	}

	if code == ErrUnknown && len(details) > 0 {
		if originalErr, ok := details[0].(error); ok {
			logx.Error(originalErr, "Handling ErrUnknown with underlying error")
		}
	} else if len(details) > 0 {
		if strings.Contains(customErr.Message, "%") {
			customErr.Message = fmt.Sprintf(customErr.Message, details...)
		} else {
			logx.Warn("Details provided for error, but message template has no formatting placeholders. Details ignored.")
		}
	}

	return &customErr
}

// IsFatalToConnection reports whether the error must tear the websocket down.
// Only authentication failures are fatal; authorization, not-found and
// collaborator failures leave the connection open.
func IsFatalToConnection(err *CustomError) bool {
	if err == nil {
		return false
	}
	switch err.Code {
	case ErrUnauthorized, ErrUserNotFound, ErrSecretUnconfigured:
		return true
	}
	return false
}
