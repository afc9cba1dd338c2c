package pi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "sunpi.pi.v1.PiService"

const getPiMethod = "/" + ServiceName + "/GetPi"

// PiServiceServer is the server API for PiService.
//
// GetPi takes the number of fractional digits and returns π as a decimal
// string. The messages are protobuf well-known wrappers, so the service needs
// no generated code.
type PiServiceServer interface {
	GetPi(context.Context, *wrapperspb.UInt32Value) (*wrapperspb.StringValue, error)
}

// PiServiceDesc describes PiService for grpc.Server registration.
var PiServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PiServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetPi", Handler: getPiHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "sunpi/pi/v1/pi.proto",
}

// RegisterPiServiceServer registers srv on s.
func RegisterPiServiceServer(s grpc.ServiceRegistrar, srv PiServiceServer) {
	s.RegisterService(&PiServiceDesc, srv)
}

func getPiHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.UInt32Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PiServiceServer).GetPi(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getPiMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PiServiceServer).GetPi(ctx, req.(*wrapperspb.UInt32Value))
	}
	return interceptor(ctx, in, info, handler)
}

// Client calls PiService over a gRPC connection.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// GetPi fetches π to digits fractional digits.
func (c *Client) GetPi(ctx context.Context, digits uint32, opts ...grpc.CallOption) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, getPiMethod, wrapperspb.UInt32(digits), out, opts...); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}
