package errors

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ToGRPCError converts an error to a gRPC status error
func ToGRPCError(err error) error {
	if err == nil {
		return nil
	}

	// Already a gRPC status error
	if _, ok := status.FromError(err); ok {
		return err
	}

	var customErr *Error
	if As(err, &customErr) {
		return status.Error(customErr.Code.GRPCCode(), customErr.Message)
	}

	return status.Error(codes.Internal, err.Error())
}

// GRPCCode returns the corresponding gRPC code
func (c Code) GRPCCode() codes.Code {
	switch c {
	case CodeOK:
		return codes.OK
	case CodeInvalidArgument, CodeValidation, CodeReorderFailed, CodeInvalidFormat:
		return codes.InvalidArgument
	case CodeNotFound, CodeEncounterNotFound, CodeParticipantNotFound:
		return codes.NotFound
	case CodeAlreadyExists:
		return codes.AlreadyExists
	case CodePermissionDenied, CodeInsufficientPerms:
		return codes.PermissionDenied
	case CodeCombatState:
		return codes.FailedPrecondition
	case CodeUnavailable:
		return codes.Unavailable
	case CodeInternal, CodeStorage:
		return codes.Internal
	default:
		return codes.Internal
	}
}
