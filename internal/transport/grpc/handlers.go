package grpc

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mvaleed/privatedetails/internal/domain"
)

// mapDomainError converts domain errors to gRPC status errors
func mapDomainError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, domain.ErrInvalidInput) {
		return invalidArgument(err)
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, domain.ErrNotReady):
		return status.Error(codes.Unavailable, err.Error())
	}

	return status.Error(codes.Internal, "internal server error")
}

// invalidArgument attaches the failing fields as a Struct detail keyed by field id.
func invalidArgument(err error) error {
	fields := map[string]any{}

	var validationErrs domain.ValidationErrors
	var validationErr domain.ValidationError
	if errors.As(err, &validationErrs) {
		for field, key := range validationErrs.Fields() {
			fields[field] = key
		}
	} else if errors.As(err, &validationErr) {
		fields[validationErr.Field] = validationErr.Message
	}

	st := status.New(codes.InvalidArgument, err.Error())
	detail, convErr := structpb.NewStruct(fields)
	if convErr != nil {
		return st.Err()
	}
	withDetails, detailErr := st.WithDetails(detail)
	if detailErr != nil {
		return st.Err()
	}
	return withDetails.Err()
}

// ValidationDetails extracts the field errors attached by the server, or nil.
func ValidationDetails(err error) map[string]string {
	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.InvalidArgument {
		return nil
	}
	for _, d := range st.Details() {
		s, ok := d.(*structpb.Struct)
		if !ok {
			continue
		}
		out := make(map[string]string, len(s.GetFields()))
		for field, v := range s.GetFields() {
			out[field] = v.GetStringValue()
		}
		return out
	}
	return nil
}
