package grpcapi

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmerrifield20/anchorledger/internal/registry/model"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps a service error onto a gRPC status. ok is false for errors
// the caller cannot correct, which the server logs before returning
// codes.Internal.
func toStatus(err error) (st error, ok bool) {
	switch {
	case errors.Is(err, model.ErrInvalidHash):
		return status.Error(codes.InvalidArgument, err.Error()), true
	case errors.Is(err, model.ErrAlreadyAnchored):
		return status.Error(codes.AlreadyExists, err.Error()), true
	case errors.Is(err, model.ErrNotAnchored):
		return status.Error(codes.NotFound, err.Error()), true
	case errors.Is(err, model.ErrInvalidSubmitter):
		return status.Error(codes.Unauthenticated, err.Error()), true
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error()), true
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error()), true
	default:
		return status.Error(codes.Internal, "internal error"), false
	}
}

// mapRPC turns a gRPC status back into the registry's sentinel errors.
func mapRPC(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.InvalidArgument:
		if st.Message() == model.ErrInvalidHash.Error() {
			return model.ErrInvalidHash
		}
		return fmt.Errorf("%w: %s", model.ErrInvalidHash, st.Message())
	case codes.AlreadyExists:
		return model.ErrAlreadyAnchored
	case codes.NotFound:
		return model.ErrNotAnchored
	case codes.Unauthenticated:
		return fmt.Errorf("%w: %s", model.ErrInvalidSubmitter, st.Message())
	default:
		return err
	}
}
