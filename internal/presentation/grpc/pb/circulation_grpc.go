// Package pb library.v1.CirculationService のgRPC定義
//
// メッセージはすべて google.protobuf.Struct で、フィールドは内部REST APIのJSONと同じ形。
package pb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// サービス名とメソッド名
const (
	CirculationServiceName = "library.v1.CirculationService"

	CirculationService_IssuedBooks_FullMethodName = "/library.v1.CirculationService/IssuedBooks"
	CirculationService_GetMember_FullMethodName   = "/library.v1.CirculationService/GetMember"
	CirculationService_ReturnBook_FullMethodName  = "/library.v1.CirculationService/ReturnBook"
)

// CirculationServiceClient 貸出管理サービスのクライアント
type CirculationServiceClient interface {
	IssuedBooks(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetMember(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ReturnBook(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type circulationServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewCirculationServiceClient 新しいクライアントを作成
func NewCirculationServiceClient(cc grpc.ClientConnInterface) CirculationServiceClient {
	return &circulationServiceClient{cc}
}

func (c *circulationServiceClient) IssuedBooks(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, CirculationService_IssuedBooks_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *circulationServiceClient) GetMember(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, CirculationService_GetMember_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *circulationServiceClient) ReturnBook(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, CirculationService_ReturnBook_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// CirculationServiceServer 貸出管理サービスのサーバー
type CirculationServiceServer interface {
	IssuedBooks(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetMember(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ReturnBook(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// UnimplementedCirculationServiceServer 未実装のメソッドはUnimplementedを返す
type UnimplementedCirculationServiceServer struct{}

func (UnimplementedCirculationServiceServer) IssuedBooks(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method IssuedBooks not implemented")
}

func (UnimplementedCirculationServiceServer) GetMember(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetMember not implemented")
}

func (UnimplementedCirculationServiceServer) ReturnBook(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ReturnBook not implemented")
}

// RegisterCirculationServiceServer サーバーを登録する
func RegisterCirculationServiceServer(s grpc.ServiceRegistrar, srv CirculationServiceServer) {
	s.RegisterService(&CirculationService_ServiceDesc, srv)
}

func _CirculationService_IssuedBooks_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CirculationServiceServer).IssuedBooks(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: CirculationService_IssuedBooks_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CirculationServiceServer).IssuedBooks(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _CirculationService_GetMember_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CirculationServiceServer).GetMember(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: CirculationService_GetMember_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CirculationServiceServer).GetMember(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _CirculationService_ReturnBook_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CirculationServiceServer).ReturnBook(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: CirculationService_ReturnBook_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CirculationServiceServer).ReturnBook(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// CirculationService_ServiceDesc library.v1.CirculationService のサービス定義
var CirculationService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: CirculationServiceName,
	HandlerType: (*CirculationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "IssuedBooks",
			Handler:    _CirculationService_IssuedBooks_Handler,
		},
		{
			MethodName: "GetMember",
			Handler:    _CirculationService_GetMember_Handler,
		},
		{
			MethodName: "ReturnBook",
			Handler:    _CirculationService_ReturnBook_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "library/v1/circulation.proto",
}
