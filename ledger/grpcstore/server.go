package grpcstore

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/ledgerkit/address"
	"xdao.co/ledgerkit/fault"
	"xdao.co/ledgerkit/ledger"
)

// Server exposes a ledger.Store over the RecordStore service. It only serves
// records that pass the store's own validation.
type Server struct {
	UnimplementedRecordStoreServer
	Store *ledger.Store
}

func (s *Server) FetchRecord(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	if s == nil || s.Store == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing store")
	}
	h, err := address.ParseAction(in.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if _, err := s.Store.FetchValidatedRecord(ctx, h); err != nil {
		return nil, mapErr(err)
	}
	b, err := s.Store.RawAction(ctx, h)
	if err != nil {
		return nil, mapErr(err)
	}
	return wrapperspb.Bytes(b), nil
}

func (s *Server) FetchEntry(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	if s == nil || s.Store == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing store")
	}
	h, err := address.ParseEntry(in.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	b, err := s.Store.RawEntry(ctx, h)
	if err != nil {
		return nil, mapErr(err)
	}
	if _, err := ledger.OpenEntry(h, b); err != nil {
		return nil, mapErr(err)
	}
	return wrapperspb.Bytes(b), nil
}

// LoggingInterceptor logs every call at Debug and every failed call at Warn.
func LoggingInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := handler(ctx, req)
		if err != nil {
			log.Warn("rpc failed", "method", info.FullMethod, "code", status.Code(err).String(), "err", err)
		} else {
			log.Debug("rpc", "method", info.FullMethod)
		}
		return resp, err
	}
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	case fault.IsKind(err, fault.RecordNotFound):
		return status.Error(codes.NotFound, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
