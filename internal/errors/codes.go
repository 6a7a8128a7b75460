package errors

import "net/http"

// Code represents a machine-readable error code
type Code string

// Generic error codes
const (
	CodeOK               Code = "OK"
	CodeInvalidArgument  Code = "INVALID_ARGUMENT"
	CodeNotFound         Code = "NOT_FOUND"
	CodeAlreadyExists    Code = "ALREADY_EXISTS"
	CodePermissionDenied Code = "PERMISSION_DENIED"
	CodeInternal         Code = "INTERNAL"
	CodeUnavailable      Code = "UNAVAILABLE"
)

// Domain error codes surfaced at the API boundary
const (
	CodeEncounterNotFound   Code = "ENCOUNTER_NOT_FOUND"
	CodeParticipantNotFound Code = "PARTICIPANT_NOT_FOUND"
	CodeInsufficientPerms   Code = "INSUFFICIENT_PERMISSIONS"
	CodeValidation          Code = "ENCOUNTER_VALIDATION_ERROR"
	CodeReorderFailed       Code = "PARTICIPANT_REORDER_FAILED"
	CodeCombatState         Code = "COMBAT_STATE_ERROR"
	CodeInvalidFormat       Code = "INVALID_IMPORT_FORMAT"
	CodeStorage             Code = "STORAGE_ERROR"
)

// String returns the string representation of the code
func (c Code) String() string {
	return string(c)
}

// HTTPStatus returns the corresponding HTTP status code
func (c Code) HTTPStatus() int {
	switch c {
	case CodeOK:
		return http.StatusOK
	case CodeInvalidArgument, CodeValidation, CodeReorderFailed, CodeInvalidFormat:
		return http.StatusBadRequest
	case CodeNotFound, CodeEncounterNotFound, CodeParticipantNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists:
		return http.StatusConflict
	case CodePermissionDenied, CodeInsufficientPerms:
		return http.StatusForbidden
	case CodeCombatState:
		return http.StatusConflict
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	case CodeInternal, CodeStorage:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
