package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"

	"xdao.co/ledgerkit/internal/config"
	"xdao.co/ledgerkit/ledger"
	"xdao.co/ledgerkit/ledger/grpcstore"
	"xdao.co/ledgerkit/storage/localfs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	fs := flag.NewFlagSet("ledgerd", flag.ExitOnError)
	fs.StringVar(&cfg.Listen, "listen", cfg.Listen, "listen address")
	fs.StringVar(&cfg.StoreDir, "store-dir", cfg.StoreDir, "local block store directory")
	fs.IntVar(&cfg.MaxMsgBytes, "max-msg-bytes", cfg.MaxMsgBytes, "largest message sent or received")
	_ = fs.Parse(os.Args[1:])

	log := cfg.Logger(os.Stderr).With("component", "ledgerd")
	if cfg.StoreDir == "" {
		fmt.Fprintln(os.Stderr, "missing --store-dir")
		os.Exit(2)
	}
	cas, err := localfs.OpenAll(cfg.StoreDirs()...)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	store := ledger.NewStore(cas, ledger.Options{Logger: log})

	lis, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer lis.Close()

	s := grpc.NewServer(
		grpc.UnaryInterceptor(grpcstore.LoggingInterceptor(log)),
		grpc.MaxRecvMsgSize(cfg.MaxMsgBytes),
		grpc.MaxSendMsgSize(cfg.MaxMsgBytes),
	)
	grpcstore.RegisterRecordStoreServer(s, &grpcstore.Server{Store: store})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		s.GracefulStop()
	}()

	fmt.Fprintf(os.Stderr, "ledgerd listening on %s (store=%s)\n", lis.Addr().String(), cfg.StoreDir)
	if err := s.Serve(lis); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
