package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"

	"xdao.co/ledgerkit/address"
	"xdao.co/ledgerkit/internal/config"
	"xdao.co/ledgerkit/keys"
	"xdao.co/ledgerkit/ledger"
	"xdao.co/ledgerkit/record"
)

func cmdCommit(cfg config.Config, args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: ledgerkit commit <create|update|delete> ...")
		return 2
	}
	op := args[0]
	switch op {
	case "create", "update", "delete":
	default:
		fmt.Fprintf(errOut, "unknown commit subcommand: %s\n", op)
		return 2
	}

	fs := flag.NewFlagSet("commit "+op, flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.StringVar(&cfg.StoreDir, "store-dir", cfg.StoreDir, "Local block store directory")
	fs.StringVar(&cfg.KeyDir, "key-dir", cfg.KeyDir, "Agent key directory")
	var (
		agentName string
		zome      uint
		index     uint
		payload   string
		original  string
		target    string
	)
	fs.StringVar(&agentName, "agent", "", "Agent key name")
	if op != "delete" {
		fs.UintVar(&zome, "zome", 0, "Zome index of the entry type")
		fs.UintVar(&index, "index", 0, "Entry index of the entry type within the zome")
		fs.StringVar(&payload, "json", "", "Entry content as JSON")
	}
	if op == "update" {
		fs.StringVar(&original, "original", "", "Action being revised")
	}
	if op == "delete" {
		fs.StringVar(&target, "target", "", "Creation action being deleted")
	}
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}
	if agentName == "" {
		fmt.Fprintln(errOut, "missing --agent")
		return 2
	}
	if zome > 255 || index > 255 {
		fmt.Fprintln(errOut, "--zome and --index must be below 256")
		return 2
	}
	def := record.EntryDef{ZomeIndex: uint8(zome), EntryIndex: uint8(index)}

	var content any
	if op != "delete" {
		if payload == "" {
			fmt.Fprintln(errOut, "missing --json")
			return 2
		}
		var err error
		if content, err = parseJSONPayload(payload); err != nil {
			fmt.Fprintf(errOut, "invalid --json: %v\n", err)
			return 2
		}
	}
	var ref address.ActionHash
	switch op {
	case "update", "delete":
		s := original
		if op == "delete" {
			s = target
		}
		var err error
		if ref, err = address.ParseAction(s); err != nil {
			fmt.Fprintf(errOut, "invalid action reference: %v\n", err)
			return 2
		}
	}

	store, err := openLocal(cfg, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "commit: %v\n", err)
		return 1
	}
	ks, err := keys.Open(cfg.KeyDir)
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	ctx := context.Background()
	agent, err := loadAgent(ctx, store, ks, agentName)
	if err != nil {
		fmt.Fprintf(errOut, "commit: %v\n", err)
		return 1
	}

	var signed record.SignedAction
	switch op {
	case "create":
		signed, err = agent.Create(ctx, def, content)
	case "update":
		signed, err = agent.Update(ctx, ref, def, content)
	case "delete":
		signed, err = agent.Delete(ctx, ref)
	}
	if err != nil {
		fmt.Fprintf(errOut, "commit %s: %v\n", op, err)
		return 1
	}
	if err := ks.SetHead(agentName, signed.Hash); err != nil {
		fmt.Fprintf(errOut, "record head: %v\n", err)
		return 1
	}
	fmt.Fprintln(out, signed.Hash)
	return 0
}

// loadAgent opens the named agent's chain, writing its genesis actions when
// no head has been recorded yet.
func loadAgent(ctx context.Context, store *ledger.Store, ks *keys.Store, name string) (*ledger.Agent, error) {
	signer, err := ks.Signer(name)
	if err != nil {
		return nil, err
	}
	agent := ledger.NewAgent(store, signer, ledger.AgentOptions{})
	head, err := ks.Head(name)
	switch {
	case errors.Is(err, keys.ErrNoHead):
		h, gerr := agent.Genesis(ctx, []byte("ledgerkit"), nil)
		if gerr != nil {
			return nil, gerr
		}
		if err := ks.SetHead(name, h); err != nil {
			return nil, err
		}
		return agent, nil
	case err != nil:
		return nil, err
	}
	if err := agent.Resume(ctx, head); err != nil {
		return nil, err
	}
	return agent, nil
}

// parseJSONPayload decodes JSON keeping integers integral, so that they are
// stored as CBOR integers rather than floats.
func parseJSONPayload(s string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after JSON value")
	}
	return normalizeNumbers(v), nil
}

func normalizeNumbers(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		f, _ := x.Float64()
		return f
	case map[string]any:
		for k, e := range x {
			x[k] = normalizeNumbers(e)
		}
		return x
	case []any:
		for i, e := range x {
			x[i] = normalizeNumbers(e)
		}
		return x
	default:
		return v
	}
}
