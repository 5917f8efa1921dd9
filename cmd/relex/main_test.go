package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	relexerrors "github.com/standardbeagle/relex/internal/errors"
	"github.com/standardbeagle/relex/internal/version"
)

// run executes the CLI in-process with an isolated home and config dir
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	if dir == "" {
		dir = t.TempDir()
	}
	var out bytes.Buffer
	err := newApp(&out).Run(append([]string{"relex", "--config", dir}, args...))
	return out.String(), err
}

func TestTokensCommand(t *testing.T) {
	out, err := run(t, "", "tokens", "--text", "a <= b")
	require.NoError(t, err)
	assert.Contains(t, out, `"<="`)
	assert.Contains(t, out, "LTEQ")
	assert.Contains(t, out, "IDENTIFIER")
}

func TestTokensCommandFromFileAsJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input.txt")
	require.NoError(t, os.WriteFile(path, []byte("one two"), 0o644))

	out, err := run(t, "", "-l", "words", "tokens", "--json", path)
	require.NoError(t, err)

	var views []struct {
		Kind string `json:"kind"`
		Text string `json:"text"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, 3)
	assert.Equal(t, "WORD", views[0].Kind)
	assert.Equal(t, " ", views[1].Text)
}

func TestTokensCommandNeedsInput(t *testing.T) {
	_, err := run(t, "", "tokens")
	require.Error(t, err)
}

func TestLanguageFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".relex.toml"), []byte("language = \"runs\"\n"), 0o644))

	out, err := run(t, dir, "tokens", "--text", "aab")
	require.NoError(t, err)
	assert.Contains(t, out, "RUN")
	assert.Contains(t, out, `"aa"`)
}

func TestUnknownLanguage(t *testing.T) {
	_, err := run(t, "", "-l", "dmeo", "tokens", "--text", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did you mean demo")
}

func TestEditCommand(t *testing.T) {
	out, err := run(t, "", "-l", "runs", "edit", "--text", "ab", "--op", "i:1:a", "--op", "r:0:1")
	require.NoError(t, err)
	assert.Contains(t, out, "op 0: relex from token 0 (offset 0): -2 +2 tokens")
	assert.Contains(t, out, "op 1:")
	assert.Contains(t, out, `"a"`)
	assert.Contains(t, out, `"b"`)
}

func TestEditCommandJSON(t *testing.T) {
	out, err := run(t, "", "edit", "--json", "--text", "a < b", "--op", "i:3:=", "--op", `s:x\ny`)
	require.NoError(t, err)

	var result struct {
		Text  string            `json:"text"`
		Edits []json.RawMessage `json:"edits"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "x\ny", result.Text)
	assert.NotEmpty(t, result.Edits)
}

func TestEditCommandRejectsBadEdits(t *testing.T) {
	_, err := run(t, "", "edit", "--text", "ab", "--op", "r:1:5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op 0")
	assert.Contains(t, err.Error(), "contract violation")

	_, err = run(t, "", "edit", "--text", "ab", "--op", "x:1")
	require.Error(t, err)
}

func TestFuzzCommand(t *testing.T) {
	out, err := run(t, "", "fuzz", "--seed", "5", "--seeds", "2", "--rounds", "2", "--ops", "10", "--workers", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "seed 5: 20 ops")
	assert.Contains(t, out, "seed 6: 20 ops")
	assert.Contains(t, out, "2 seeds passed")
}

func TestFuzzCommandRejectsBadOverrides(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"negative seeds", []string{"--seeds=-1"}},
		{"negative rounds", []string{"--rounds=-2"}},
		{"zero ops", []string{"--ops=0"}},
		{"negative workers", []string{"--workers=-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, "", append([]string{"fuzz"}, tt.args...)...)
			require.Error(t, err)
			var cfgErr *relexerrors.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, "random", cfgErr.Field)
		})
	}
}

func TestLanguagesCommand(t *testing.T) {
	out, err := run(t, "", "languages")
	require.NoError(t, err)
	assert.Contains(t, out, "* demo")
	assert.Contains(t, out, "  runs")
	assert.Contains(t, out, "WORD SPACE SYMBOL")
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, version.FullInfo())
}

func TestInvalidConfigIsRejected(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".relex.toml"), []byte("[random]\nops_per_round = 0\n"), 0o644))
	_, err := run(t, dir, "languages")
	require.Error(t, err)
}

func TestParseOp(t *testing.T) {
	tests := []struct {
		in   string
		want editOp
		ok   bool
	}{
		{"i:3:=", editOp{kind: 'i', offset: 3, text: "="}, true},
		{`i:0:a\tb`, editOp{kind: 'i', offset: 0, text: "a\tb"}, true},
		{"i:2:a:b", editOp{kind: 'i', offset: 2, text: "a:b"}, true},
		{"r:4:2", editOp{kind: 'r', offset: 4, length: 2}, true},
		{"s:new:text", editOp{kind: 's', text: "new:text"}, true},
		{"r:4", editOp{}, false},
		{"r:x:1", editOp{}, false},
		{"r:1:y", editOp{}, false},
		{"q:1:1", editOp{}, false},
		{"insert", editOp{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseOp(tt.in)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
