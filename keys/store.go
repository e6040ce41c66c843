// Package keys is a local-first store for agent signing keys and the head of
// each agent's source chain.
//
// Layout under the store directory:
//
//	<name>/agent.key   "<alg>:<seed hex>" (0600)
//	<name>/head        text address of the last committed action
package keys

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"xdao.co/ledgerkit/address"
	"xdao.co/ledgerkit/sign"
)

const SeedSize = 32

var ErrNoHead = errors.New("keys: agent has no chain head")

type Store struct {
	Directory string
}

type Entry struct {
	Name string
	Key  sign.AgentKey
	Head *address.ActionHash
}

func DefaultDirectory() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".ledgerkit", "keys"), nil
}

// Open returns a store rooted at directory, or at DefaultDirectory when
// directory is empty.
func Open(directory string) (*Store, error) {
	if directory == "" {
		var err error
		directory, err = DefaultDirectory()
		if err != nil {
			return nil, err
		}
	}
	return &Store{Directory: directory}, nil
}

func (s *Store) keyPath(name string) string  { return filepath.Join(s.Directory, name, "agent.key") }
func (s *Store) headPath(name string) string { return filepath.Join(s.Directory, name, "head") }

func CheckKeyName(name string) error {
	if name == "" {
		return errors.New("name cannot be empty")
	}
	for _, char := range name {
		if (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '-' || char == '_' {
			continue
		}
		return fmt.Errorf("invalid character %q in name", char)
	}
	return nil
}

func ParseSeedHex(seedHex string) ([]byte, error) {
	seedHex = strings.TrimSpace(seedHex)
	seedHex = strings.TrimPrefix(seedHex, "0x")
	data, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, err
	}
	if len(data) != SeedSize {
		return nil, fmt.Errorf("expected seed length of %d bytes, got %d", SeedSize, len(data))
	}
	return data, nil
}

// Init stores a new agent key and returns its public form.
func (s *Store) Init(name, alg string, seed []byte, overwrite bool) (sign.AgentKey, string, error) {
	if err := CheckKeyName(name); err != nil {
		return sign.AgentKey{}, "", err
	}
	signer, err := sign.New(alg, seed)
	if err != nil {
		return sign.AgentKey{}, "", err
	}
	path := s.keyPath(name)
	if err := writeFile(path, alg+":"+hex.EncodeToString(seed)+"\n", overwrite); err != nil {
		return sign.AgentKey{}, "", err
	}
	if overwrite {
		_ = os.Remove(s.headPath(name))
	}
	return signer.Key(), path, nil
}

// Signer loads the signer stored under name.
func (s *Store) Signer(name string) (sign.Signer, error) {
	if err := CheckKeyName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.keyPath(name))
	if err != nil {
		return nil, err
	}
	alg, seedHex, ok := strings.Cut(strings.TrimSpace(string(data)), ":")
	if !ok {
		return nil, fmt.Errorf("keys: malformed key file for %q", name)
	}
	seed, err := ParseSeedHex(seedHex)
	if err != nil {
		return nil, err
	}
	return sign.New(alg, seed)
}

// Head returns the recorded chain head for name, or ErrNoHead.
func (s *Store) Head(name string) (address.ActionHash, error) {
	data, err := os.ReadFile(s.headPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return address.ActionHash{}, ErrNoHead
		}
		return address.ActionHash{}, err
	}
	return address.ParseAction(strings.TrimSpace(string(data)))
}

// SetHead records h as the chain head for name.
func (s *Store) SetHead(name string, h address.ActionHash) error {
	if err := CheckKeyName(name); err != nil {
		return err
	}
	return writeFile(s.headPath(name), h.String()+"\n", true)
}

func (s *Store) List() ([]Entry, error) {
	dirs, err := os.ReadDir(s.Directory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, d := range dirs {
		if d.IsDir() && CheckKeyName(d.Name()) == nil {
			names = append(names, d.Name())
		}
	}
	sort.Strings(names)

	var out []Entry
	for _, name := range names {
		signer, err := s.Signer(name)
		if err != nil {
			continue
		}
		e := Entry{Name: name, Key: signer.Key()}
		if h, err := s.Head(name); err == nil {
			e.Head = &h
		}
		out = append(out, e)
	}
	return out, nil
}

func writeFile(path, content string, overwrite bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	flags := os.O_WRONLY | os.O_CREATE
	if overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}
	file, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()
	if _, err := file.WriteString(content); err != nil {
		return err
	}
	return file.Close()
}
