// ABOUTME: gRPC service description and client for the record service
// ABOUTME: Messages are protobuf well-known types, so no generated code is needed

package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "hashstore.v1.RecordService"

// Full method names
const (
	MethodSave           = "/" + ServiceName + "/Save"
	MethodFindByID       = "/" + ServiceName + "/FindByID"
	MethodDeleteByID     = "/" + ServiceName + "/DeleteByID"
	MethodFindIDsByIndex = "/" + ServiceName + "/FindIDsByIndex"
)

// RecordServiceServer is the server API of the record service
type RecordServiceServer interface {
	// Save stores a record given as a flat struct of field name to value
	Save(context.Context, *structpb.Struct) (*structpb.Struct, error)
	FindByID(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	DeleteByID(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	// FindIDsByIndex takes {"field": ..., "value": ...}
	FindIDsByIndex(context.Context, *structpb.Struct) (*structpb.ListValue, error)
}

// RegisterRecordServiceServer registers srv with s
func RegisterRecordServiceServer(s grpc.ServiceRegistrar, srv RecordServiceServer) {
	s.RegisterService(&RecordServiceDesc, srv)
}

// RecordServiceDesc describes the record service to grpc
var RecordServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RecordServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Save", Handler: saveHandler},
		{MethodName: "FindByID", Handler: findByIDHandler},
		{MethodName: "DeleteByID", Handler: deleteByIDHandler},
		{MethodName: "FindIDsByIndex", Handler: findIDsByIndexHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "hashstore/v1/record_service.proto",
}

func saveHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RecordServiceServer).Save(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodSave}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RecordServiceServer).Save(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func findByIDHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RecordServiceServer).FindByID(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodFindByID}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RecordServiceServer).FindByID(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func deleteByIDHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RecordServiceServer).DeleteByID(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodDeleteByID}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RecordServiceServer).DeleteByID(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func findIDsByIndexHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RecordServiceServer).FindIDsByIndex(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodFindIDsByIndex}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RecordServiceServer).FindIDsByIndex(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// RecordClient calls the record service over a client connection
type RecordClient struct {
	cc grpc.ClientConnInterface
}

// NewRecordClient creates a client over cc
func NewRecordClient(cc grpc.ClientConnInterface) *RecordClient {
	return &RecordClient{cc: cc}
}

func (c *RecordClient) Save(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodSave, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RecordClient) FindByID(ctx context.Context, id string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodFindByID, wrapperspb.String(id), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RecordClient) DeleteByID(ctx context.Context, id string, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, MethodDeleteByID, wrapperspb.String(id), new(emptypb.Empty), opts...)
}

// FindIDsByIndex returns the identifiers indexed under field == val
func (c *RecordClient) FindIDsByIndex(ctx context.Context, field, val string, opts ...grpc.CallOption) ([]string, error) {
	in := &structpb.Struct{Fields: map[string]*structpb.Value{
		"field": structpb.NewStringValue(field),
		"value": structpb.NewStringValue(val),
	}}
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, MethodFindIDsByIndex, in, out, opts...); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(out.GetValues()))
	for _, v := range out.GetValues() {
		ids = append(ids, v.GetStringValue())
	}
	return ids, nil
}
