package rpc

import (
	"context"
	"errors"
	"net"

	"github.com/dmitrijs2005/deviceid/internal/channel"
	"github.com/dmitrijs2005/deviceid/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type GRPCServer struct {
	address    string
	dispatcher *channel.Dispatcher
	logger     logging.Logger
	jwtSecret  []byte
}

// NewGRPCServer serves d on address. An empty secret disables token
// checks.
func NewGRPCServer(address string, l logging.Logger, d *channel.Dispatcher, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:    address,
		dispatcher: d,
		logger:     l.With("module", "grpc_server"),
		jwtSecret:  []byte(secretKey),
	}
}

// NewServer returns a grpc.Server with the service and interceptors
// registered.
func (s *GRPCServer) NewServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.accessTokenInterceptor))
	RegisterMethodChannelServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := s.NewServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address, "platform", s.dispatcher.Platform())

	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}

func (s *GRPCServer) Invoke(ctx context.Context, req *structpb.Struct) (*structpb.Value, error) {
	method := req.GetFields()["method"].GetStringValue()
	if method == "" {
		return nil, status.Error(codes.InvalidArgument, "method is required")
	}

	var args channel.Args
	if a := req.GetFields()["arguments"]; a != nil {
		if _, isNull := a.GetKind().(*structpb.Value_NullValue); !isNull {
			sv := a.GetStructValue()
			if sv == nil {
				return nil, status.Error(codes.InvalidArgument, "arguments must be an object")
			}
			args = sv.AsMap()
		}
	}

	if client, ok := ClientFromContext(ctx); ok {
		s.logger.Debug(ctx, "channel call", "method", method, "client", client)
	}

	result, err := s.dispatcher.Invoke(ctx, method, args)
	if err != nil {
		return nil, toStatus(err)
	}

	v, err := structpb.NewValue(result)
	if err != nil {
		s.logger.Error(ctx, "result not encodable", "method", method, "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}
	return v, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, channel.ErrWrongPlatform):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, channel.ErrNotImplemented):
		return status.Error(codes.Unimplemented, err.Error())
	case errors.Is(err, channel.ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
