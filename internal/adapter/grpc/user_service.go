package grpc

import (
	"context"
	"math"
	"strconv"

	"user-api-service/internal/usecase/user"
	pkgerrors "user-api-service/pkg/errors"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "user.v1.UserService"

// UserService is the server API for user.v1.UserService.
type UserService interface {
	ListUsers(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	CreateUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetUser(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	UpdateUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteUser(context.Context, *wrapperspb.Int64Value) (*emptypb.Empty, error)
}

var _ UserService = (*UserServiceServer)(nil)

// UserServiceServer exposes the user usecase over gRPC. Messages are protobuf
// well-known types: users travel as Struct{id, name, email} and ids as
// Int64Value. Inside a Struct the id is a decimal string, since Struct
// numbers are doubles and cannot hold every int64.
type UserServiceServer struct {
	uc  user.UserUsecase
	log *zap.Logger
}

// NewUserServiceServer creates a new gRPC user service server
func NewUserServiceServer(uc user.UserUsecase, log *zap.Logger) *UserServiceServer {
	return &UserServiceServer{uc: uc, log: log}
}

// Register attaches the service to s.
func (s *UserServiceServer) Register(server grpc.ServiceRegistrar) {
	server.RegisterService(&serviceDesc, s)
}

// ListUsers handles gRPC ListUsers request
func (s *UserServiceServer) ListUsers(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	resp, err := s.uc.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	values := make([]*structpb.Value, len(resp.Users))
	for i := range resp.Users {
		values[i] = structpb.NewStructValue(toStruct(&resp.Users[i]))
	}
	return &structpb.ListValue{Values: values}, nil
}

// CreateUser handles gRPC CreateUser request. An id field is ignored.
func (s *UserServiceServer) CreateUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name, email, err := userFields(req)
	if err != nil {
		return nil, err
	}

	created, err := s.uc.CreateUser(ctx, user.CreateUserRequest{Name: name, Email: email})
	if err != nil {
		return nil, err
	}
	return toStruct(created), nil
}

// GetUser handles gRPC GetUser request
func (s *UserServiceServer) GetUser(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	u, err := s.uc.GetUser(ctx, user.GetUserRequest{ID: req.GetValue()})
	if err != nil {
		return nil, err
	}
	return toStruct(u), nil
}

// UpdateUser handles gRPC UpdateUser request
func (s *UserServiceServer) UpdateUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := userID(req)
	if err != nil {
		return nil, err
	}
	name, email, err := userFields(req)
	if err != nil {
		return nil, err
	}

	u, err := s.uc.UpdateUser(ctx, user.UpdateUserRequest{ID: id, Name: name, Email: email})
	if err != nil {
		return nil, err
	}
	return toStruct(u), nil
}

// DeleteUser handles gRPC DeleteUser request
func (s *UserServiceServer) DeleteUser(ctx context.Context, req *wrapperspb.Int64Value) (*emptypb.Empty, error) {
	if err := s.uc.DeleteUser(ctx, user.DeleteUserRequest{ID: req.GetValue()}); err != nil {
		return nil, err
	}
	return &emptypb.Empty{}, nil
}

func toStruct(u *user.User) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":    structpb.NewStringValue(strconv.FormatInt(u.ID, 10)),
		"name":  structpb.NewStringValue(u.Name),
		"email": structpb.NewStringValue(u.Email),
	}}
}

// userFields reads name and email. Absent fields are empty strings.
func userFields(req *structpb.Struct) (string, string, error) {
	name, err := stringField(req, "name")
	if err != nil {
		return "", "", err
	}
	email, err := stringField(req, "email")
	if err != nil {
		return "", "", err
	}
	return name, email, nil
}

func stringField(req *structpb.Struct, field string) (string, error) {
	v, ok := req.GetFields()[field]
	if !ok {
		return "", nil
	}
	if _, isString := v.GetKind().(*structpb.Value_StringValue); !isString {
		return "", pkgerrors.NewValidationError(field, "must be a string")
	}
	return v.GetStringValue(), nil
}

// maxExactID is the largest magnitude a double holds without rounding.
const maxExactID = 1 << 53

// userID reads the id as a decimal string, or as a number when it is an
// integer small enough to be exact.
func userID(req *structpb.Struct) (int64, error) {
	v, ok := req.GetFields()["id"]
	if !ok {
		return 0, pkgerrors.NewValidationError("id", "User ID is required")
	}

	switch kind := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		id, err := strconv.ParseInt(kind.StringValue, 10, 64)
		if err != nil {
			return 0, pkgerrors.NewValidationError("id", "User ID must be a valid number")
		}
		return id, nil
	case *structpb.Value_NumberValue:
		n := kind.NumberValue
		if n != math.Trunc(n) || math.Abs(n) > maxExactID {
			return 0, pkgerrors.NewValidationError("id", "User ID must be a valid number")
		}
		return int64(n), nil
	default:
		return 0, pkgerrors.NewValidationError("id", "User ID must be a valid number")
	}
}

// unary adapts a typed method to grpc.MethodHandler, running the server's
// interceptor chain around it.
func unary[Req proto.Message, Resp proto.Message](
	method string,
	newReq func() Req,
	call func(*UserServiceServer, context.Context, Req) (Resp, error),
) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := newReq()
		if err := dec(in); err != nil {
			return nil, err
		}
		s := srv.(*UserServiceServer)
		if interceptor == nil {
			return call(s, ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + ServiceName + "/" + method,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(s, ctx, req.(Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*UserService)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ListUsers",
			Handler:    unary("ListUsers", func() *emptypb.Empty { return new(emptypb.Empty) }, (*UserServiceServer).ListUsers),
		},
		{
			MethodName: "CreateUser",
			Handler:    unary("CreateUser", func() *structpb.Struct { return new(structpb.Struct) }, (*UserServiceServer).CreateUser),
		},
		{
			MethodName: "GetUser",
			Handler:    unary("GetUser", func() *wrapperspb.Int64Value { return new(wrapperspb.Int64Value) }, (*UserServiceServer).GetUser),
		},
		{
			MethodName: "UpdateUser",
			Handler:    unary("UpdateUser", func() *structpb.Struct { return new(structpb.Struct) }, (*UserServiceServer).UpdateUser),
		},
		{
			MethodName: "DeleteUser",
			Handler:    unary("DeleteUser", func() *wrapperspb.Int64Value { return new(wrapperspb.Int64Value) }, (*UserServiceServer).DeleteUser),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "user/v1/user.proto",
}
