package grpcstore

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/ledgerkit/address"
	"xdao.co/ledgerkit/fault"
	"xdao.co/ledgerkit/ledger"
	"xdao.co/ledgerkit/record"
)

// Client fetches records from a RecordStore service. Everything it receives
// is validated again locally, so a misbehaving server can withhold records
// but cannot forge them.
type Client struct {
	cc     *grpc.ClientConn
	client RecordStoreClient

	// Timeout applies per RPC when non-zero.
	Timeout time.Duration
}

type DialOptions struct {
	// Timeout applies to the initial dial when non-zero.
	Timeout time.Duration

	// MaxMsgBytes sets both send/recv max sizes when non-zero.
	MaxMsgBytes int
}

func Dial(target string, opts DialOptions) (*Client, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if opts.MaxMsgBytes > 0 {
		dialOpts = append(dialOpts,
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(opts.MaxMsgBytes),
				grpc.MaxCallSendMsgSize(opts.MaxMsgBytes),
			),
		)
	}

	ctx := context.Background()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cc, err := grpc.DialContext(ctx, target, dialOpts...)
	if err != nil {
		return nil, err
	}
	return NewClient(cc), nil
}

// NewClient wraps an existing connection.
func NewClient(cc *grpc.ClientConn) *Client {
	return &Client{cc: cc, client: NewRecordStoreClient(cc)}
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

func (c *Client) FetchValidatedRecord(ctx context.Context, h address.ActionHash) (record.Record, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	reply, err := c.client.FetchRecord(ctx, wrapperspb.String(h.String()))
	if err != nil {
		return record.Record{}, mapRPC(ctx, err, "action", h.ContentHash)
	}
	return ledger.OpenRecord(ctx, h, reply.GetValue(), c)
}

func (c *Client) FetchEntry(ctx context.Context, h address.EntryHash) (record.Entry, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	reply, err := c.client.FetchEntry(ctx, wrapperspb.String(h.String()))
	if err != nil {
		return record.Entry{}, mapRPC(ctx, err, "entry", h.ContentHash)
	}
	return ledger.OpenEntry(h, reply.GetValue())
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.Timeout)
}

// mapRPC folds a failed call into the fault taxonomy. Anything that is not a
// bad address means the record could not be obtained, so it becomes
// fault.RecordNotFound with the transport or context error as its cause.
func mapRPC(ctx context.Context, err error, what string, h address.ContentHash) error {
	if cerr := ctx.Err(); cerr != nil {
		return fault.Wrap(fault.RecordNotFound, cerr, "%s %s", what, h)
	}
	st, ok := status.FromError(err)
	if !ok {
		return fault.Wrap(fault.RecordNotFound, err, "%s %s", what, h)
	}
	switch st.Code() {
	case codes.NotFound, codes.DataLoss:
		return fault.New(fault.RecordNotFound, "%s %s: %s", what, h, st.Message())
	case codes.InvalidArgument:
		return fault.New(fault.InvalidHashString, "%s %s: %s", what, h, st.Message())
	default:
		return fault.Wrap(fault.RecordNotFound, err, "%s %s: fetch via grpcstore", what, h)
	}
}
