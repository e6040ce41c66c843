package main

import (
	"crypto/rand"
	"flag"
	"fmt"
	"io"

	"xdao.co/ledgerkit/internal/config"
	"xdao.co/ledgerkit/keys"
	"xdao.co/ledgerkit/sign"
)

func cmdKey(cfg config.Config, args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printKeyUsage(errOut)
		return 2
	}
	switch args[0] {
	case "init":
		return cmdKeyInit(cfg, args[1:], out, errOut)
	case "list":
		return cmdKeyList(cfg, args[1:], out, errOut)
	case "help", "-h", "--help":
		printKeyUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown key subcommand: %s\n\n", args[0])
		printKeyUsage(errOut)
		return 2
	}
}

func printKeyUsage(w io.Writer) {
	fmt.Fprintln(w, "ledgerkit key: local agent keys")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  ledgerkit key init --name <name> [--alg ed25519|dilithium3] [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  ledgerkit key list")
}

func cmdKeyInit(cfg config.Config, args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key init", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var name, alg, seedHex string
	var force bool
	fs.StringVar(&cfg.KeyDir, "key-dir", cfg.KeyDir, "Agent key directory")
	fs.StringVar(&name, "name", "", "Agent key name")
	fs.StringVar(&alg, "alg", sign.AlgEd25519, "Signature algorithm")
	fs.StringVar(&seedHex, "seed-hex", "", "Optional seed as 64 hex chars (for reproducible demos)")
	fs.BoolVar(&force, "force", false, "Overwrite an existing key and forget its chain head")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
		return 2
	}
	if err := keys.CheckKeyName(name); err != nil {
		fmt.Fprintf(errOut, "invalid --name: %v\n", err)
		return 2
	}

	var seed []byte
	if seedHex != "" {
		var err error
		if seed, err = keys.ParseSeedHex(seedHex); err != nil {
			fmt.Fprintf(errOut, "invalid --seed-hex: %v\n", err)
			return 2
		}
	} else {
		seed = make([]byte, keys.SeedSize)
		if _, err := rand.Read(seed); err != nil {
			fmt.Fprintf(errOut, "rand: %v\n", err)
			return 1
		}
	}

	ks, err := keys.Open(cfg.KeyDir)
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	key, path, err := ks.Init(name, alg, seed, force)
	if err != nil {
		fmt.Fprintf(errOut, "write key: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Created agent key: %s\n", key)
	fmt.Fprintf(out, "Stored at: %s\n", path)
	return 0
}

func cmdKeyList(cfg config.Config, args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key list", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.StringVar(&cfg.KeyDir, "key-dir", cfg.KeyDir, "Agent key directory")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	ks, err := keys.Open(cfg.KeyDir)
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	entries, err := ks.List()
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	for _, e := range entries {
		head := "-"
		if e.Head != nil {
			head = e.Head.String()
		}
		fmt.Fprintf(out, "%s\t%s\t%s\n", e.Name, e.Key, head)
	}
	return 0
}
