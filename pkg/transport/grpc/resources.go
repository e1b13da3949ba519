package grpc

import (
	"context"
	"encoding/json"
	"fmt"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/rhuss/agentgate/pkg/api"
	"github.com/rhuss/agentgate/pkg/transport"
)

// ResourcesServiceName is the full gRPC service name of the resource API.
const ResourcesServiceName = "agentgate.v1.Resources"

// ResourcesServer is the resource API over gRPC. Requests and responses are
// JSON-shaped documents carried as google.protobuf.Struct, mirroring the
// HTTP bodies. Every request except Me names its "kind"; Get, Update and
// Delete also name the "id".
type ResourcesServer interface {
	Create(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Get(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Update(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Delete(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	Search(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Me(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

func newStruct() *structpb.Struct { return new(structpb.Struct) }
func newEmpty() *emptypb.Empty    { return new(emptypb.Empty) }

var resourcesServiceDesc = gogrpc.ServiceDesc{
	ServiceName: ResourcesServiceName,
	HandlerType: (*ResourcesServer)(nil),
	Methods: []gogrpc.MethodDesc{
		unary("Create", newStruct, func(s ResourcesServer, ctx context.Context, in *structpb.Struct) (any, error) {
			return s.Create(ctx, in)
		}),
		unary("Get", newStruct, func(s ResourcesServer, ctx context.Context, in *structpb.Struct) (any, error) {
			return s.Get(ctx, in)
		}),
		unary("Update", newStruct, func(s ResourcesServer, ctx context.Context, in *structpb.Struct) (any, error) {
			return s.Update(ctx, in)
		}),
		unary("Delete", newStruct, func(s ResourcesServer, ctx context.Context, in *structpb.Struct) (any, error) {
			return s.Delete(ctx, in)
		}),
		unary("Search", newStruct, func(s ResourcesServer, ctx context.Context, in *structpb.Struct) (any, error) {
			return s.Search(ctx, in)
		}),
		unary("Me", newEmpty, func(s ResourcesServer, ctx context.Context, in *emptypb.Empty) (any, error) {
			return s.Me(ctx, in)
		}),
	},
}

// unary builds the method descriptor for one unary call, running the
// server's interceptor chain the way generated code does.
func unary[Req proto.Message](name string, newReq func() Req, call func(ResourcesServer, context.Context, Req) (any, error)) gogrpc.MethodDesc {
	fullMethod := "/" + ResourcesServiceName + "/" + name
	return gogrpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor gogrpc.UnaryServerInterceptor) (any, error) {
			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(ResourcesServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &gogrpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(Req))
			})
		},
	}
}

// RegisterResourcesServer registers impl on r.
func RegisterResourcesServer(r gogrpc.ServiceRegistrar, impl ResourcesServer) {
	r.RegisterService(&resourcesServiceDesc, impl)
}

// resourceCall is the decoded request document.
type resourceCall struct {
	Kind     api.Kind       `json:"kind"`
	ID       string         `json:"id,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Values   map[string]any `json:"values,omitempty"`
	Limit    int            `json:"limit,omitempty"`
	Offset   int            `json:"offset,omitempty"`
}

// resourceServer serves ResourcesServer from a transport.Service. The
// interceptors have already placed the caller identity in the context.
type resourceServer struct {
	service *transport.Service
}

// NewResourcesServer returns a ResourcesServer backed by svc.
func NewResourcesServer(svc *transport.Service) ResourcesServer {
	return &resourceServer{service: svc}
}

func (r *resourceServer) Create(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	call, err := decodeCall(in, false)
	if err != nil {
		return nil, err
	}
	res, err := r.service.Create(ctx, call.Kind, &api.CreateResourceRequest{
		ID:       call.ID,
		Metadata: call.Metadata,
		Values:   call.Values,
	})
	if err != nil {
		return nil, statusFromAPIError(err)
	}
	return toStruct(res)
}

func (r *resourceServer) Get(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	call, err := decodeCall(in, true)
	if err != nil {
		return nil, err
	}
	res, err := r.service.Get(ctx, call.Kind, call.ID)
	if err != nil {
		return nil, statusFromAPIError(err)
	}
	return toStruct(res)
}

func (r *resourceServer) Update(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	call, err := decodeCall(in, true)
	if err != nil {
		return nil, err
	}
	res, err := r.service.Update(ctx, call.Kind, call.ID, &api.UpdateResourceRequest{
		Metadata: call.Metadata,
		Values:   call.Values,
	})
	if err != nil {
		return nil, statusFromAPIError(err)
	}
	return toStruct(res)
}

func (r *resourceServer) Delete(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	call, err := decodeCall(in, true)
	if err != nil {
		return nil, err
	}
	if err := r.service.Delete(ctx, call.Kind, call.ID); err != nil {
		return nil, statusFromAPIError(err)
	}
	return &emptypb.Empty{}, nil
}

func (r *resourceServer) Search(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	call, err := decodeCall(in, false)
	if err != nil {
		return nil, err
	}
	list, err := r.service.Search(ctx, call.Kind, &api.SearchRequest{
		Metadata: call.Metadata,
		Limit:    call.Limit,
		Offset:   call.Offset,
	})
	if err != nil {
		return nil, statusFromAPIError(err)
	}
	return toStruct(list)
}

func (r *resourceServer) Me(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	me, err := r.service.Me(ctx)
	if err != nil {
		return nil, statusFromAPIError(err)
	}
	return toStruct(me)
}

// decodeCall converts the request document and checks kind and, when
// needID is set, the id.
func decodeCall(in *structpb.Struct, needID bool) (*resourceCall, error) {
	data, err := json.Marshal(in.AsMap())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid request document")
	}
	var call resourceCall
	if err := json.Unmarshal(data, &call); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid request document: %v", err)
	}
	if !call.Kind.Valid() {
		return nil, statusFromAPIError(api.NewNotFoundError(fmt.Sprintf("unknown resource kind %q", call.Kind)))
	}
	if needID && !api.ValidateResourceID(call.ID) {
		return nil, statusFromAPIError(api.NewInvalidRequestError("id", "malformed resource ID"))
	}
	return &call, nil
}

// toStruct encodes v through its JSON form so gRPC clients see the same
// documents as HTTP clients.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, "encoding response")
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, status.Error(codes.Internal, "encoding response")
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, "encoding response")
	}
	return out, nil
}

var apiErrorCodes = map[api.ErrorType]codes.Code{
	api.ErrorTypeInvalidRequest:  codes.InvalidArgument,
	api.ErrorTypeNotFound:        codes.NotFound,
	api.ErrorTypeConflict:        codes.AlreadyExists,
	api.ErrorTypeUnauthorized:    codes.Unauthenticated,
	api.ErrorTypeTooManyRequests: codes.ResourceExhausted,
}

// statusFromAPIError maps a resource error to a gRPC status carrying the
// same caller-safe message as the HTTP envelope.
func statusFromAPIError(err error) error {
	apiErr := transport.AsAPIError(err)
	code, ok := apiErrorCodes[apiErr.Type]
	if !ok {
		code = codes.Internal
	}
	return status.Error(code, apiErr.Message)
}
