package grpcstore

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// The service is described by hand over protobuf well-known wrapper types,
// so no protoc step is needed.
//
//	service RecordStore {
//	  // Signed action envelope for an action address.
//	  rpc FetchRecord(google.protobuf.StringValue) returns (google.protobuf.BytesValue);
//	  // Encoded entry for an entry address.
//	  rpc FetchEntry(google.protobuf.StringValue) returns (google.protobuf.BytesValue);
//	}
const (
	serviceName       = "ledgerkit.v1.RecordStore"
	fetchRecordMethod = "/" + serviceName + "/FetchRecord"
	fetchEntryMethod  = "/" + serviceName + "/FetchEntry"
)

// RecordStoreServer is the server API for the RecordStore service.
type RecordStoreServer interface {
	FetchRecord(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
	FetchEntry(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
}

// UnimplementedRecordStoreServer can be embedded to have forward compatible implementations.
type UnimplementedRecordStoreServer struct{}

func (UnimplementedRecordStoreServer) FetchRecord(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method FetchRecord not implemented")
}
func (UnimplementedRecordStoreServer) FetchEntry(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method FetchEntry not implemented")
}

func RegisterRecordStoreServer(s grpc.ServiceRegistrar, srv RecordStoreServer) {
	s.RegisterService(&RecordStore_ServiceDesc, srv)
}

// RecordStoreClient is the client API for the RecordStore service.
type RecordStoreClient interface {
	FetchRecord(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	FetchEntry(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
}

type recordStoreClient struct{ cc grpc.ClientConnInterface }

func NewRecordStoreClient(cc grpc.ClientConnInterface) RecordStoreClient {
	return &recordStoreClient{cc: cc}
}

func (c *recordStoreClient) FetchRecord(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, fetchRecordMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *recordStoreClient) FetchEntry(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, fetchEntryMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func unaryHandler(method string, call func(RecordStoreServer, context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(wrapperspb.StringValue)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(RecordStoreServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(RecordStoreServer), ctx, req.(*wrapperspb.StringValue))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// RecordStore_ServiceDesc is the grpc.ServiceDesc for the RecordStore service.
var RecordStore_ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*RecordStoreServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "FetchRecord", Handler: unaryHandler(fetchRecordMethod, RecordStoreServer.FetchRecord)},
		{MethodName: "FetchEntry", Handler: unaryHandler(fetchEntryMethod, RecordStoreServer.FetchEntry)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "recordstore.proto",
}
