package errors

import (
	"errors"
)

// As is a wrapper around errors.As that works with our Error type
func As(err error, target **Error) bool {
	return errors.As(err, target)
}

// Is checks if an error matches a target error
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// GetCode extracts the error code from an error
func GetCode(err error) Code {
	if err == nil {
		return CodeOK
	}

	var customErr *Error
	if errors.As(err, &customErr) {
		return customErr.Code
	}

	return CodeInternal
}

// GetMeta extracts metadata from an error
func GetMeta(err error) map[string]interface{} {
	if err == nil {
		return nil
	}

	var customErr *Error
	if errors.As(err, &customErr) {
		return customErr.Meta
	}

	return nil
}

// GetMessage extracts the user-facing message from an error
func GetMessage(err error) string {
	if err == nil {
		return ""
	}

	var customErr *Error
	if errors.As(err, &customErr) {
		return customErr.Message
	}

	return err.Error()
}

// Type checking helpers

// IsNotFound checks for any of the not-found codes
func IsNotFound(err error) bool {
	switch GetCode(err) {
	case CodeNotFound, CodeEncounterNotFound, CodeParticipantNotFound:
		return true
	}
	return false
}

// IsInvalidArgument checks if an error is an invalid argument error
func IsInvalidArgument(err error) bool {
	return GetCode(err) == CodeInvalidArgument
}

// IsValidation checks for a field validation failure
func IsValidation(err error) bool {
	switch GetCode(err) {
	case CodeValidation, CodeReorderFailed, CodeInvalidArgument:
		return true
	}
	return false
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return GetCode(err) == CodeAlreadyExists
}

// IsPermissionDenied checks for either permission code
func IsPermissionDenied(err error) bool {
	switch GetCode(err) {
	case CodePermissionDenied, CodeInsufficientPerms:
		return true
	}
	return false
}

// IsCombatState checks for an illegal combat transition
func IsCombatState(err error) bool {
	return GetCode(err) == CodeCombatState
}

// IsInvalidFormat checks for a codec boundary failure
func IsInvalidFormat(err error) bool {
	return GetCode(err) == CodeInvalidFormat
}

// IsInternal checks if an error is an internal error
func IsInternal(err error) bool {
	return GetCode(err) == CodeInternal
}

// ValidationFields extracts the per-field messages from a validation error,
// or nil if the error carries none.
func ValidationFields(err error) map[string][]string {
	meta := GetMeta(err)
	if meta == nil {
		return nil
	}
	if fields, ok := meta["validation_errors"].(map[string][]string); ok {
		return fields
	}
	return nil
}
