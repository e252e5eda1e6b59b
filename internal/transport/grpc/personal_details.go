package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mvaleed/privatedetails/internal/domain"
	"github.com/mvaleed/privatedetails/internal/transport/request"
)

// PersonalDetailsServiceName is the fully qualified service name.
const PersonalDetailsServiceName = "personaldetails.v1.PersonalDetailsService"

const (
	methodGetPrivatePersonalDetails = "/" + PersonalDetailsServiceName + "/GetPrivatePersonalDetails"
	methodUpdateDateOfBirth         = "/" + PersonalDetailsServiceName + "/UpdateDateOfBirth"
	methodUpdateLegalName           = "/" + PersonalDetailsServiceName + "/UpdateLegalName"
)

// PersonalDetailsServer is the server API for the personal details service.
type PersonalDetailsServer interface {
	GetPrivatePersonalDetails(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	UpdateDateOfBirth(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateLegalName(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterPersonalDetailsServer registers srv on s.
func RegisterPersonalDetailsServer(s grpc.ServiceRegistrar, srv PersonalDetailsServer) {
	s.RegisterService(&PersonalDetailsServiceDesc, srv)
}

// PersonalDetailsServiceDesc describes the service for grpc.Server.
var PersonalDetailsServiceDesc = grpc.ServiceDesc{
	ServiceName: PersonalDetailsServiceName,
	HandlerType: (*PersonalDetailsServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetPrivatePersonalDetails",
			Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
				return unary(srv, ctx, dec, interceptor, methodGetPrivatePersonalDetails, new(emptypb.Empty),
					func(ctx context.Context, srv PersonalDetailsServer, in *emptypb.Empty) (*structpb.Struct, error) {
						return srv.GetPrivatePersonalDetails(ctx, in)
					})
			},
		},
		{
			MethodName: "UpdateDateOfBirth",
			Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
				return unary(srv, ctx, dec, interceptor, methodUpdateDateOfBirth, new(structpb.Struct),
					func(ctx context.Context, srv PersonalDetailsServer, in *structpb.Struct) (*structpb.Struct, error) {
						return srv.UpdateDateOfBirth(ctx, in)
					})
			},
		},
		{
			MethodName: "UpdateLegalName",
			Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
				return unary(srv, ctx, dec, interceptor, methodUpdateLegalName, new(structpb.Struct),
					func(ctx context.Context, srv PersonalDetailsServer, in *structpb.Struct) (*structpb.Struct, error) {
						return srv.UpdateLegalName(ctx, in)
					})
			},
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "personaldetails/v1/personal_details.proto",
}

// unary decodes the request and runs call through the interceptor chain.
func unary[In any](
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
	method string,
	in *In,
	call func(context.Context, PersonalDetailsServer, *In) (*structpb.Struct, error),
) (any, error) {
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return call(ctx, srv.(PersonalDetailsServer), in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
	handler := func(ctx context.Context, req any) (any, error) {
		return call(ctx, srv.(PersonalDetailsServer), req.(*In))
	}
	return interceptor(ctx, in, info, handler)
}

// PersonalDetailsClient calls the personal details service over conn.
type PersonalDetailsClient struct {
	cc grpc.ClientConnInterface
}

func NewPersonalDetailsClient(cc grpc.ClientConnInterface) *PersonalDetailsClient {
	return &PersonalDetailsClient{cc: cc}
}

func (c *PersonalDetailsClient) GetPrivatePersonalDetails(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodGetPrivatePersonalDetails, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *PersonalDetailsClient) UpdateDateOfBirth(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodUpdateDateOfBirth, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *PersonalDetailsClient) UpdateLegalName(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodUpdateLegalName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

type personalDetailsHandler struct {
	deps Dependencies
}

func newPersonalDetailsHandler(deps Dependencies) *personalDetailsHandler {
	return &personalDetailsHandler{deps: deps}
}

func (h *personalDetailsHandler) GetPrivatePersonalDetails(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "not authenticated")
	}

	details, err := h.deps.Details.GetPrivatePersonalDetails(ctx, claims.UserID)
	if err != nil {
		return nil, mapDomainError(err)
	}
	return detailsToStruct(details)
}

func (h *personalDetailsHandler) UpdateDateOfBirth(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "not authenticated")
	}

	var req request.DateOfBirth
	var err error
	if req.DOB, err = stringField(in, domain.FieldDateOfBirth); err != nil {
		return nil, mapDomainError(err)
	}
	if errs := h.deps.Inputs.Check(req); !errs.Valid() {
		return nil, mapDomainError(errs.Err())
	}

	details, err := h.deps.Sessions.SubmitDateOfBirth(ctx, claims.UserID, req.DOB)
	if err != nil {
		return nil, mapDomainError(err)
	}
	return detailsToStruct(details)
}

func (h *personalDetailsHandler) UpdateLegalName(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "not authenticated")
	}

	var req request.LegalName
	var err error
	if req.LegalFirstName, err = stringField(in, domain.FieldLegalFirstName); err != nil {
		return nil, mapDomainError(err)
	}
	if req.LegalLastName, err = stringField(in, domain.FieldLegalLastName); err != nil {
		return nil, mapDomainError(err)
	}
	if errs := h.deps.Inputs.Check(req); !errs.Valid() {
		return nil, mapDomainError(errs.Err())
	}

	details, err := h.deps.Sessions.SubmitLegalName(ctx, claims.UserID, req.LegalFirstName, req.LegalLastName)
	if err != nil {
		return nil, mapDomainError(err)
	}
	return detailsToStruct(details)
}

// stringField reads key from in. A missing key reads as empty; any other
// kind than string is rejected.
func stringField(in *structpb.Struct, key string) (string, error) {
	v, ok := in.GetFields()[key]
	if !ok {
		return "", nil
	}
	if _, isString := v.GetKind().(*structpb.Value_StringValue); !isString {
		return "", domain.ValidationError{Field: key, Message: "must be a string"}
	}
	return v.GetStringValue(), nil
}

func detailsToStruct(d *domain.PrivatePersonalDetails) (*structpb.Struct, error) {
	fields := map[string]any{
		"userId":                   d.UserID.String(),
		domain.FieldDateOfBirth:    d.DateOfBirth,
		domain.FieldLegalFirstName: d.LegalFirstName,
		domain.FieldLegalLastName:  d.LegalLastName,
		"version":                  d.Version,
	}
	if !d.UpdatedAt.IsZero() {
		fields["updatedAt"] = d.UpdatedAt.Format(time.RFC3339)
	}

	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Error(codes.Internal, "encode personal details")
	}
	return out, nil
}
