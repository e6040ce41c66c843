package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"xdao.co/ledgerkit/address"
	"xdao.co/ledgerkit/internal/config"
	"xdao.co/ledgerkit/ledger"
	"xdao.co/ledgerkit/ledger/grpcstore"
	"xdao.co/ledgerkit/record"
	"xdao.co/ledgerkit/resolve"
	"xdao.co/ledgerkit/storage/localfs"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(errOut, "config: %v\n", err)
		return 2
	}

	switch args[0] {
	case "classify":
		return cmdClassify(args[1:], out, errOut)
	case "record":
		return cmdRecord(cfg, args[1:], out, errOut)
	case "creation":
		return cmdCreation(cfg, args[1:], out, errOut)
	case "entry":
		return cmdEntry(cfg, args[1:], out, errOut)
	case "trace":
		return cmdTrace(cfg, args[1:], out, errOut)
	case "commit":
		return cmdCommit(cfg, args[1:], out, errOut)
	case "key":
		return cmdKey(cfg, args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "ledgerkit: resolve and inspect ledger records")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  ledgerkit classify <hash>")
	fmt.Fprintln(w, "  ledgerkit record [--kind <ActionKind>] <action-hash>")
	fmt.Fprintln(w, "  ledgerkit creation <action-hash>")
	fmt.Fprintln(w, "  ledgerkit entry <action-or-entry-hash>")
	fmt.Fprintln(w, "  ledgerkit trace [--root] <action-hash>")
	fmt.Fprintln(w, "  ledgerkit commit create --agent <name> --zome <n> --index <n> --json <payload>")
	fmt.Fprintln(w, "  ledgerkit commit update --agent <name> --original <action-hash> --zome <n> --index <n> --json <payload>")
	fmt.Fprintln(w, "  ledgerkit commit delete --agent <name> --target <action-hash>")
	fmt.Fprintln(w, "  ledgerkit key init --name <name> [--alg ed25519|dilithium3] [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  ledgerkit key list")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Store selection (flags override LEDGERKIT_* environment):")
	fmt.Fprintln(w, "  --store-dir <dir>   local block store (LEDGERKIT_STORE_DIR)")
	fmt.Fprintln(w, "  --grpc <target>     remote RecordStore, read-only (LEDGERKIT_GRPC_TARGET)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - hashes use the base64url multibase text form ('u' prefix)")
	fmt.Fprintln(w, "  - commit runs genesis for an agent with no recorded chain head")
}

// storeFlags registers the store selection flags on fs, defaulting to cfg.
func storeFlags(fs *flag.FlagSet, cfg *config.Config) {
	fs.StringVar(&cfg.StoreDir, "store-dir", cfg.StoreDir, "Local block store directory")
	fs.StringVar(&cfg.GRPCTarget, "grpc", cfg.GRPCTarget, "Remote RecordStore target")
}

func openLocal(cfg config.Config, errOut io.Writer) (*ledger.Store, error) {
	if cfg.StoreDir == "" {
		return nil, fmt.Errorf("missing --store-dir")
	}
	cas, err := localfs.OpenAll(cfg.StoreDirs()...)
	if err != nil {
		return nil, err
	}
	return ledger.NewStore(cas, ledger.Options{Logger: cfg.Logger(errOut).With("component", "ledger")}), nil
}

func openResolver(cfg config.Config, errOut io.Writer) (*resolve.Resolver, func() error, error) {
	opts := resolve.Options{
		Logger:        cfg.Logger(errOut).With("component", "resolve"),
		MaxChainDepth: cfg.MaxChainDepth,
	}
	if cfg.GRPCTarget != "" {
		client, err := grpcstore.Dial(cfg.GRPCTarget, grpcstore.DialOptions{
			Timeout:     cfg.DialTimeout,
			MaxMsgBytes: cfg.MaxMsgBytes,
		})
		if err != nil {
			return nil, nil, err
		}
		client.Timeout = cfg.RPCTimeout
		return resolve.New(client, opts), client.Close, nil
	}
	store, err := openLocal(cfg, errOut)
	if err != nil {
		return nil, nil, err
	}
	return resolve.New(store, opts), func() error { return nil }, nil
}

// parseOne parses fs and returns its single positional argument.
func parseOne(fs *flag.FlagSet, args []string, usage string, errOut io.Writer) (string, bool) {
	if err := fs.Parse(args); err != nil {
		return "", false
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: "+usage)
		return "", false
	}
	return fs.Arg(0), true
}

func cmdClassify(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("classify", flag.ContinueOnError)
	fs.SetOutput(errOut)
	s, ok := parseOne(fs, args, "ledgerkit classify <hash>", errOut)
	if !ok {
		return 2
	}
	h, err := address.Parse(s)
	if err != nil {
		fmt.Fprintf(errOut, "classify: %v\n", err)
		return 1
	}
	fmt.Fprintln(out, h.Kind())
	return 0
}

func cmdRecord(cfg config.Config, args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("record", flag.ContinueOnError)
	fs.SetOutput(errOut)
	storeFlags(fs, &cfg)
	var kind string
	fs.StringVar(&kind, "kind", "", "Expected action kind (e.g. Create, Update)")
	s, ok := parseOne(fs, args, "ledgerkit record [--kind <ActionKind>] <action-hash>", errOut)
	if !ok {
		return 2
	}
	h, err := address.ParseAction(s)
	if err != nil {
		fmt.Fprintf(errOut, "record: %v\n", err)
		return 2
	}
	r, closeFn, err := openResolver(cfg, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "record: %v\n", err)
		return 1
	}
	defer closeFn()

	ctx := context.Background()
	var rec record.Record
	if kind != "" {
		k, perr := record.ParseActionKind(kind)
		if perr != nil {
			fmt.Fprintf(errOut, "invalid --kind: %v\n", perr)
			return 2
		}
		rec, err = r.FetchAsserted(ctx, h, k)
	} else {
		rec, err = r.Record(ctx, h)
	}
	if err != nil {
		fmt.Fprintf(errOut, "record: %v\n", err)
		return 1
	}
	return writeJSON(out, errOut, newRecordView(rec))
}

func cmdCreation(cfg config.Config, args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("creation", flag.ContinueOnError)
	fs.SetOutput(errOut)
	storeFlags(fs, &cfg)
	s, ok := parseOne(fs, args, "ledgerkit creation <action-hash>", errOut)
	if !ok {
		return 2
	}
	h, err := address.ParseAction(s)
	if err != nil {
		fmt.Fprintf(errOut, "creation: %v\n", err)
		return 2
	}
	r, closeFn, err := openResolver(cfg, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "creation: %v\n", err)
		return 1
	}
	defer closeFn()

	c, err := r.FetchEntryCreationAction(context.Background(), h)
	if err != nil {
		fmt.Fprintf(errOut, "creation: %v\n", err)
		return 1
	}
	return writeJSON(out, errOut, creationView{
		Kind:                  c.Kind.String(),
		Author:                c.Author.String(),
		ActionSeq:             c.ActionSeq,
		EntryType:             c.EntryType.String(),
		EntryHash:             c.EntryHash,
		OriginalActionAddress: c.OriginalActionAddress,
	})
}

func cmdEntry(cfg config.Config, args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("entry", flag.ContinueOnError)
	fs.SetOutput(errOut)
	storeFlags(fs, &cfg)
	s, ok := parseOne(fs, args, "ledgerkit entry <action-or-entry-hash>", errOut)
	if !ok {
		return 2
	}
	h, err := address.Parse(s)
	if err != nil {
		fmt.Fprintf(errOut, "entry: %v\n", err)
		return 2
	}
	r, closeFn, err := openResolver(cfg, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "entry: %v\n", err)
		return 1
	}
	defer closeFn()

	e, err := r.EntryOf(context.Background(), h)
	if err != nil {
		fmt.Fprintf(errOut, "entry: %v\n", err)
		return 1
	}
	return writeJSON(out, errOut, newEntryView(e))
}

func cmdTrace(cfg config.Config, args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("trace", flag.ContinueOnError)
	fs.SetOutput(errOut)
	storeFlags(fs, &cfg)
	var rootOnly bool
	fs.BoolVar(&rootOnly, "root", false, "Print only the originating Create")
	fs.IntVar(&cfg.MaxChainDepth, "max-depth", cfg.MaxChainDepth, "Longest chain to walk")
	s, ok := parseOne(fs, args, "ledgerkit trace [--root] <action-hash>", errOut)
	if !ok {
		return 2
	}
	h, err := address.ParseAction(s)
	if err != nil {
		fmt.Fprintf(errOut, "trace: %v\n", err)
		return 2
	}
	r, closeFn, err := openResolver(cfg, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "trace: %v\n", err)
		return 1
	}
	defer closeFn()

	ctx := context.Background()
	if rootOnly {
		step, err := r.TraceOriginRoot(ctx, h)
		if err != nil {
			fmt.Fprintf(errOut, "trace: %v\n", err)
			return 1
		}
		fmt.Fprintf(out, "%s\t%s\n", step.Hash, step.Action.Kind())
		return 0
	}
	history, err := r.TraceOrigin(ctx, h)
	if err != nil {
		fmt.Fprintf(errOut, "trace: %v\n", err)
		return 1
	}
	for _, step := range history {
		fmt.Fprintf(out, "%s\t%s\n", step.Hash, step.Action.Kind())
	}
	return 0
}

type recordView struct {
	Hash   address.ActionHash `json:"hash"`
	Kind   string             `json:"kind"`
	Action record.Action      `json:"action"`
	Entry  *entryView         `json:"entry,omitempty"`
}

type entryView struct {
	Kind    string `json:"kind"`
	Content any    `json:"content"`
}

type creationView struct {
	Kind                  string              `json:"kind"`
	Author                string              `json:"author"`
	ActionSeq             uint32              `json:"action_seq"`
	EntryType             string              `json:"entry_type"`
	EntryHash             address.EntryHash   `json:"entry_hash"`
	OriginalActionAddress *address.ActionHash `json:"original_action_address,omitempty"`
}

func newRecordView(rec record.Record) recordView {
	v := recordView{Hash: rec.Hash(), Kind: rec.Action().Kind().String(), Action: rec.Action()}
	if rec.Entry != nil {
		e := newEntryView(*rec.Entry)
		v.Entry = &e
	}
	return v
}

func newEntryView(e record.Entry) entryView {
	v := entryView{Kind: e.Kind.String(), Content: e.Content}
	if content, err := record.DecodeContentAny(e); err == nil {
		v.Content = content
	}
	return v
}

func writeJSON(out io.Writer, errOut io.Writer, v any) int {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(errOut, "encode output: %v\n", err)
		return 1
	}
	return 0
}
