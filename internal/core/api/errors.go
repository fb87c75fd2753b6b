package api

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/solatis/courier/internal/types"
)

// Auth errors are mapped in the auth interceptor.
// Per-item pipeline failures are reported in the response, not as status.
// Validation errors map to INVALID_ARGUMENT.
// Context timeouts map to DEADLINE_EXCEEDED.
// Identifier store failures map to UNAVAILABLE.
func statusFromError(err error) error {
	switch {
	case errors.Is(err, types.ErrMalformedPayload),
		errors.Is(err, types.ErrBatchTooLarge),
		errors.Is(err, types.ErrUnknownDirection):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Unavailable, err.Error())
	}
}
