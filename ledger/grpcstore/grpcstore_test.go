package grpcstore

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/ledgerkit/address"
	"xdao.co/ledgerkit/fault"
	"xdao.co/ledgerkit/ledger"
	"xdao.co/ledgerkit/record"
	"xdao.co/ledgerkit/sign"
	"xdao.co/ledgerkit/storage/localfs"
)

type note struct {
	Body string `json:"body"`
}

func serve(t *testing.T, srv RecordStoreServer) *Client {
	t.Helper()
	lis := bufconn.Listen(1024 * 1024)
	gs := grpc.NewServer(grpc.UnaryInterceptor(LoggingInterceptor(slog.Default())))
	RegisterRecordStoreServer(gs, srv)
	go func() {
		_ = gs.Serve(lis)
	}()
	t.Cleanup(gs.Stop)

	dialer := func(ctx context.Context, s string) (net.Conn, error) { return lis.Dial() }
	cc, err := grpc.DialContext(
		context.Background(),
		"bufnet",
		grpc.WithContextDialer(dialer),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cc.Close() })

	client := NewClient(cc)
	client.Timeout = 2 * time.Second
	return client
}

func seededStore(t *testing.T) (*ledger.Store, record.SignedAction) {
	t.Helper()
	cas, err := localfs.New(t.TempDir())
	require.NoError(t, err)
	store := ledger.NewStore(cas, ledger.Options{})
	signer, err := sign.NewEd25519(bytes.Repeat([]byte{3}, 32))
	require.NoError(t, err)
	agent := ledger.NewAgent(store, signer, ledger.AgentOptions{})
	ctx := context.Background()
	_, err = agent.Genesis(ctx, []byte("dna"), nil)
	require.NoError(t, err)
	created, err := agent.Create(ctx, record.EntryDef{EntryIndex: 0}, note{Body: "remote"})
	require.NoError(t, err)
	return store, created
}

func TestGRPCStore_LocalFS_RoundTrip(t *testing.T) {
	store, created := seededStore(t)
	client := serve(t, &Server{Store: store})
	ctx := context.Background()

	rec, err := client.FetchValidatedRecord(ctx, created.Hash)
	require.NoError(t, err)
	require.True(t, rec.Hash().Equal(created.Hash.ContentHash))
	require.NotNil(t, rec.Entry)
	got, err := record.DecodeContent[note](*rec.Entry)
	require.NoError(t, err)
	require.Equal(t, "remote", got.Body)

	_, err = client.FetchValidatedRecord(ctx, address.HashAction([]byte("absent")))
	require.True(t, fault.IsKind(err, fault.RecordNotFound), "got %v", err)

	_, err = client.FetchEntry(ctx, address.HashEntry([]byte("absent")))
	require.True(t, fault.IsKind(err, fault.RecordNotFound), "got %v", err)
}

// forgingServer answers every FetchRecord with the same envelope, whatever
// address was asked for.
type forgingServer struct {
	UnimplementedRecordStoreServer
	envelope []byte
}

func (f *forgingServer) FetchRecord(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	return wrapperspb.Bytes(f.envelope), nil
}

func TestGRPCStore_ClientRejectsForgedRecords(t *testing.T) {
	store, created := seededStore(t)
	envelope, err := store.RawAction(context.Background(), created.Hash)
	require.NoError(t, err)

	client := serve(t, &forgingServer{envelope: envelope})
	ctx := context.Background()

	_, err = client.FetchValidatedRecord(ctx, address.HashAction([]byte("something else")))
	require.True(t, fault.IsKind(err, fault.RecordNotFound), "got %v", err)

	// The right address still fails: the entry RPC is unimplemented.
	_, err = client.FetchValidatedRecord(ctx, created.Hash)
	require.True(t, fault.IsKind(err, fault.RecordNotFound), "got %v", err)
}

func TestGRPCStore_TransportFailuresAreRecordNotFound(t *testing.T) {
	client := serve(t, UnimplementedRecordStoreServer{})

	_, err := client.FetchEntry(context.Background(), address.HashEntry([]byte("e")))
	require.True(t, fault.IsKind(err, fault.RecordNotFound), "got %v", err)
	require.Equal(t, codes.Unimplemented, status.Code(errors.Unwrap(err)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.FetchValidatedRecord(ctx, address.HashAction([]byte("a")))
	require.True(t, fault.IsKind(err, fault.RecordNotFound), "got %v", err)
	require.ErrorIs(t, err, context.Canceled)
}
