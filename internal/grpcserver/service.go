package grpcserver

import (
	"context"

	"google.golang.org/grpc"
)

const serviceName = "cellhub.v1.Portal"

// PortalServer is the server API for the cellhub.v1.Portal service.
type PortalServer interface {
	ListCollectionRows(context.Context, *ListRowsRequest) (*ListCollectionRowsResponse, error)
	ListDatasetRows(context.Context, *ListRowsRequest) (*ListDatasetRowsResponse, error)
	ListCollectionDatasets(context.Context, *ListCollectionDatasetsRequest) (*ListDatasetRowsResponse, error)
}

var PortalServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*PortalServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListCollectionRows", Handler: listCollectionRowsHandler},
		{MethodName: "ListDatasetRows", Handler: listDatasetRowsHandler},
		{MethodName: "ListCollectionDatasets", Handler: listCollectionDatasetsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "cellhub/v1/portal",
}

func RegisterPortalServer(s grpc.ServiceRegistrar, srv PortalServer) {
	s.RegisterService(&PortalServiceDesc, srv)
}

func listCollectionRowsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListRowsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PortalServer).ListCollectionRows(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/ListCollectionRows"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(PortalServer).ListCollectionRows(ctx, req.(*ListRowsRequest))
	})
}

func listDatasetRowsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListRowsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PortalServer).ListDatasetRows(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/ListDatasetRows"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(PortalServer).ListDatasetRows(ctx, req.(*ListRowsRequest))
	})
}

func listCollectionDatasetsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListCollectionDatasetsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PortalServer).ListCollectionDatasets(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/ListCollectionDatasets"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(PortalServer).ListCollectionDatasets(ctx, req.(*ListCollectionDatasetsRequest))
	})
}

// PortalClient calls cellhub.v1.Portal with the JSON codec.
type PortalClient struct {
	cc grpc.ClientConnInterface
}

func NewPortalClient(cc grpc.ClientConnInterface) *PortalClient {
	return &PortalClient{cc: cc}
}

func (c *PortalClient) invoke(ctx context.Context, method string, in, out any, opts ...grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, "/"+serviceName+"/"+method, in, out, opts...)
}

func (c *PortalClient) ListCollectionRows(ctx context.Context, in *ListRowsRequest, opts ...grpc.CallOption) (*ListCollectionRowsResponse, error) {
	out := new(ListCollectionRowsResponse)
	if err := c.invoke(ctx, "ListCollectionRows", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *PortalClient) ListDatasetRows(ctx context.Context, in *ListRowsRequest, opts ...grpc.CallOption) (*ListDatasetRowsResponse, error) {
	out := new(ListDatasetRowsResponse)
	if err := c.invoke(ctx, "ListDatasetRows", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *PortalClient) ListCollectionDatasets(ctx context.Context, in *ListCollectionDatasetsRequest, opts ...grpc.CallOption) (*ListDatasetRowsResponse, error) {
	out := new(ListDatasetRowsResponse)
	if err := c.invoke(ctx, "ListCollectionDatasets", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
