package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := run(args, &out, &errOut)
	return out.String(), errOut.String(), code
}

func setupEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LEDGERKIT_STORE_DIR", t.TempDir())
	t.Setenv("LEDGERKIT_KEY_DIR", t.TempDir())
}

func TestUsage(t *testing.T) {
	_, errOut, code := runCLI(t)
	require.Equal(t, 2, code)
	require.Contains(t, errOut, "Usage:")

	_, _, code = runCLI(t, "bogus")
	require.Equal(t, 2, code)
}

func TestCommitTraceAndInspect(t *testing.T) {
	setupEnv(t)

	out, errOut, code := runCLI(t, "key", "init", "--name", "alice", "--seed-hex", strings.Repeat("11", 32))
	require.Equal(t, 0, code, errOut)
	require.Contains(t, out, "ed25519:")

	out, errOut, code = runCLI(t, "commit", "create", "--agent", "alice", "--zome", "0", "--index", "1", "--json", `{"message":"v1","published_at":1}`)
	require.Equal(t, 0, code, errOut)
	created := strings.TrimSpace(out)

	out, errOut, code = runCLI(t, "commit", "update", "--agent", "alice", "--original", created, "--zome", "0", "--index", "1", "--json", `{"message":"v2","published_at":2}`)
	require.Equal(t, 0, code, errOut)
	updated := strings.TrimSpace(out)

	out, _, code = runCLI(t, "classify", updated)
	require.Equal(t, 0, code)
	require.Equal(t, "action", strings.TrimSpace(out))

	out, errOut, code = runCLI(t, "trace", updated)
	require.Equal(t, 0, code, errOut)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, updated+"\tUpdate", lines[0])
	require.Equal(t, created+"\tCreate", lines[1])

	out, _, code = runCLI(t, "trace", "--root", updated)
	require.Equal(t, 0, code)
	require.Equal(t, created+"\tCreate", strings.TrimSpace(out))

	out, errOut, code = runCLI(t, "entry", updated)
	require.Equal(t, 0, code, errOut)
	var entry struct {
		Kind    string         `json:"kind"`
		Content map[string]any `json:"content"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &entry))
	require.Equal(t, "App", entry.Kind)
	require.Equal(t, "v2", entry.Content["message"])

	out, errOut, code = runCLI(t, "record", "--kind", "Update", updated)
	require.Equal(t, 0, code, errOut)
	require.Contains(t, out, `"kind": "Update"`)

	_, errOut, code = runCLI(t, "record", "--kind", "Create", updated)
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "ActionTypeMismatch")

	out, errOut, code = runCLI(t, "creation", updated)
	require.Equal(t, 0, code, errOut)
	require.Contains(t, out, created)

	out, errOut, code = runCLI(t, "commit", "delete", "--agent", "alice", "--target", updated)
	require.Equal(t, 0, code, errOut)
	deleted := strings.TrimSpace(out)

	_, errOut, code = runCLI(t, "trace", deleted)
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "WrongActionKindInChain")

	_, errOut, code = runCLI(t, "creation", deleted)
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "NotACreationAction")

	out, _, code = runCLI(t, "key", "list")
	require.Equal(t, 0, code)
	require.Contains(t, out, deleted)
}

func TestClassifyInvalid(t *testing.T) {
	_, errOut, code := runCLI(t, "classify", "not-a-hash")
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "InvalidHashString")
}

func TestParseJSONPayloadKeepsIntegers(t *testing.T) {
	v, err := parseJSONPayload(`{"n":3,"f":1.5,"xs":[1,2]}`)
	require.NoError(t, err)
	m := v.(map[string]any)
	require.Equal(t, int64(3), m["n"])
	require.Equal(t, 1.5, m["f"])
	require.Equal(t, []any{int64(1), int64(2)}, m["xs"])

	_, err = parseJSONPayload(`{} {}`)
	require.Error(t, err)
}
