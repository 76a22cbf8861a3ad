package rpc

import (
	"context"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

const (
	PluginMapKey   = "uploader"
	serviceName    = "fieldmap.uploader.v1.Uploader"
	cborCodecName  = "cbor"
	methodDescribe = "/" + serviceName + "/Describe"
	methodUpload   = "/" + serviceName + "/Upload"
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "FIELDMAP_UPLOADER",
	MagicCookieValue: "fieldmap",
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

// cborCodec carries photo bytes as CBOR byte strings instead of base64 text.
type cborCodec struct{}

func (cborCodec) Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

func (cborCodec) Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

func (cborCodec) Name() string {
	return cborCodecName
}

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("rpc: cbor encoder: " + err.Error())
	}
	decMode, err = cbor.DecOptions{DefaultMapType: reflect.TypeOf(map[string]any(nil))}.DecMode()
	if err != nil {
		panic("rpc: cbor decoder: " + err.Error())
	}
	encoding.RegisterCodec(cborCodec{})
}

type Empty struct{}

type Info struct {
	Name    string `cbor:"name"`
	Version string `cbor:"version"`
}

type UploadRequest struct {
	Name        string `cbor:"name"`
	Folder      string `cbor:"folder"`
	ContentType string `cbor:"content_type"`
	Data        []byte `cbor:"data"`
}

type UploadResponse struct {
	Location string `cbor:"location"`
}

type UploaderServer interface {
	Describe(ctx context.Context, in *Empty) (*Info, error)
	Upload(ctx context.Context, in *UploadRequest) (*UploadResponse, error)
}

type UploaderClient interface {
	Describe(ctx context.Context) (*Info, error)
	Upload(ctx context.Context, in *UploadRequest) (*UploadResponse, error)
}

type uploaderClient struct {
	conn *grpc.ClientConn
}

func NewUploaderClient(conn *grpc.ClientConn) UploaderClient {
	return &uploaderClient{conn: conn}
}

func (c *uploaderClient) Describe(ctx context.Context) (*Info, error) {
	out := &Info{}
	if err := c.conn.Invoke(ctx, methodDescribe, &Empty{}, out, grpc.CallContentSubtype(cborCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *uploaderClient) Upload(ctx context.Context, in *UploadRequest) (*UploadResponse, error) {
	out := &UploadResponse{}
	if err := c.conn.Invoke(ctx, methodUpload, in, out, grpc.CallContentSubtype(cborCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func RegisterUploaderServer(server grpc.ServiceRegistrar, impl UploaderServer) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*UploaderServer)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "Describe",
				Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
					in := &Empty{}
					if err := dec(in); err != nil {
						return nil, err
					}
					if interceptor == nil {
						return impl.Describe(ctx, in)
					}
					info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodDescribe}
					handler := func(ctx context.Context, req any) (any, error) {
						empty, ok := req.(*Empty)
						if !ok {
							return nil, fmt.Errorf("invalid request type")
						}
						return impl.Describe(ctx, empty)
					}
					return interceptor(ctx, in, info, handler)
				},
			},
			{
				MethodName: "Upload",
				Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
					in := &UploadRequest{}
					if err := dec(in); err != nil {
						return nil, err
					}
					if interceptor == nil {
						return impl.Upload(ctx, in)
					}
					info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodUpload}
					handler := func(ctx context.Context, req any) (any, error) {
						upload, ok := req.(*UploadRequest)
						if !ok {
							return nil, fmt.Errorf("invalid request type")
						}
						return impl.Upload(ctx, upload)
					}
					return interceptor(ctx, in, info, handler)
				},
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "fieldmap/uploader/v1",
	}, impl)
}

type GRPCPlugin struct {
	plugin.NetRPCUnsupportedPlugin
	Impl UploaderServer
}

func (p *GRPCPlugin) GRPCServer(_ *plugin.GRPCBroker, server *grpc.Server) error {
	RegisterUploaderServer(server, p.Impl)
	return nil
}

func (p *GRPCPlugin) GRPCClient(_ context.Context, _ *plugin.GRPCBroker, conn *grpc.ClientConn) (any, error) {
	return NewUploaderClient(conn), nil
}

func PluginMap(impl UploaderServer) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginMapKey: &GRPCPlugin{Impl: impl},
	}
}
