// -- cmd/cmd_test.go --
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/keyflow/internal/config"
)

// executeCommand runs a fresh root command with the given args and returns
// its combined output.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

// writeTempFile creates a file with the given content inside a test-scoped dir.
func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestVersionCommand(t *testing.T) {
	out, err := executeCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, Version)
}

func TestTypeCommand(t *testing.T) {
	t.Run("fails on missing input file", func(t *testing.T) {
		_, err := executeCommand(t,
			"type", "-i", filepath.Join(t.TempDir(), "does-not-exist.txt"),
			"--backend", "capture", "--countdown", "0")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot read input file")
	})

	t.Run("fails on empty input file", func(t *testing.T) {
		path := writeTempFile(t, "empty.txt", "   \n\t\n")
		_, err := executeCommand(t,
			"type", "-i", path,
			"--backend", "capture", "--countdown", "0")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "is empty")
	})

	t.Run("types into the capture backend", func(t *testing.T) {
		path := writeTempFile(t, "input.txt", "hi.")
		_, err := executeCommand(t,
			"type", "-i", path,
			"--backend", "capture", "--countdown", "0",
			"--min-delay", "1", "--max-delay", "2", "--seed", "3")
		require.NoError(t, err)
	})

	t.Run("countdown is written before typing", func(t *testing.T) {
		path := writeTempFile(t, "input.txt", "x")
		out, err := executeCommand(t,
			"type", "-i", path,
			"--backend", "capture", "--countdown", "1",
			"--min-delay", "1", "--max-delay", "2")
		require.NoError(t, err)
		assert.Contains(t, out, "Typing starts in 1 seconds")
	})

	t.Run("rejects unknown backend", func(t *testing.T) {
		path := writeTempFile(t, "input.txt", "x")
		_, err := executeCommand(t,
			"type", "-i", path, "--backend", "teleport", "--countdown", "0")
		require.Error(t, err)
	})
}

func TestReadInputFile(t *testing.T) {
	t.Run("returns contents verbatim", func(t *testing.T) {
		path := writeTempFile(t, "in.txt", "hello\nworld\n")
		text, err := readInputFile(path)
		require.NoError(t, err)
		assert.Equal(t, "hello\nworld\n", text)
	})

	t.Run("whitespace-only counts as empty", func(t *testing.T) {
		path := writeTempFile(t, "in.txt", " \n ")
		_, err := readInputFile(path)
		require.Error(t, err)
	})
}

func TestBuildEngineOptions(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Typing.Profile = "slow-tired"
	cfg.Typing.Layout = "qwertz"
	cfg.Typing.MinDelayMs = 200
	cfg.Typing.MaxDelayMs = 100 // inverted on purpose
	cfg.Typing.Seed = 42
	cfg.Imperfections.CorrectionProbability = 30

	opts := buildEngineOptions(cfg)
	assert.Equal(t, "slow-tired", opts.Profile.Name)
	assert.Equal(t, "qwertz", opts.Layout.Name())
	// Inverted bounds are normalized by swapping, never rejected.
	assert.Equal(t, 100, opts.Delays.MinMs)
	assert.Equal(t, 200, opts.Delays.MaxMs)
	assert.Equal(t, int64(42), opts.Seed)
	assert.Equal(t, 30, opts.Imperfections.CorrectionProbability)
}
