package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nosqlite/internal/field"
)

// runCLI executes the root command with args and returns stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func testDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.db")
}

func mustRef(t *testing.T, p string) field.Ref {
	t.Helper()
	r, err := field.Path(p)
	require.NoError(t, err)
	return r
}

func mustColumn(t *testing.T, name string) field.Ref {
	t.Helper()
	r, err := field.Column(name)
	require.NoError(t, err)
	return r
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "nosqlite", cmd.Use)
	assert.Contains(t, cmd.Long, "NOSQLITE_")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"insert"}, {"get"}, {"find"}, {"edit"}, {"patch"}, {"delete"},
		{"index", "create"}, {"index", "drop"}, {"index", "list"},
	}

	for _, path := range commands {
		t.Run(path[len(path)-1], func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, path[len(path)-1], subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	for name, def := range map[string]string{
		"format":   "text",
		"db":       "nosqlite.db",
		"table":    "docs",
		"driver":   "sqlite3",
		"key-type": "int",
		"config":   "",
		"metrics":  "",
	} {
		flag := cmd.PersistentFlags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Equal(t, def, flag.DefValue, name)
	}
}

func TestEditCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	editCmd, _, err := cmd.Find([]string{"edit"})
	require.NoError(t, err)

	opFlag := editCmd.Flags().Lookup("op")
	require.NotNil(t, opFlag)
	assert.Equal(t, "set", opFlag.DefValue)

	pathFlag := editCmd.Flags().Lookup("path")
	require.NotNil(t, pathFlag)
	assert.Equal(t, "p", pathFlag.Shorthand)
}

func TestFindCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	findCmd, _, err := cmd.Find([]string{"find"})
	require.NoError(t, err)

	assert.Equal(t, "-1", findCmd.Flags().Lookup("limit").DefValue)
	assert.Equal(t, "q", findCmd.Flags().Lookup("query").Shorthand)
}

func TestRoot_InvalidFormat(t *testing.T) {
	_, err := runCLI(t, "--db", testDB(t), "--format", "xml", "find")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid format")
}

func TestRoot_InvalidKeyType(t *testing.T) {
	_, err := runCLI(t, "--db", testDB(t), "--key-type", "uuid", "find")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRoot_EnvOverrides(t *testing.T) {
	t.Setenv("NOSQLITE_FORMAT", "json")
	t.Setenv("NOSQLITE_KEY_TYPE", "text")
	t.Setenv("NOSQLITE_DB", testDB(t))

	out, err := runCLI(t, "insert", `{"name":"ann"}`)
	require.NoError(t, err)
	assert.Contains(t, out, `"status":"ok"`)
	assert.Regexp(t, `"key":"[0-9a-f-]{36}"`, out)
}

func TestRoot_FlagBeatsEnv(t *testing.T) {
	t.Setenv("NOSQLITE_FORMAT", "json")

	out, err := runCLI(t, "--db", testDB(t), "--format", "text", "insert", `{"name":"ann"}`)
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)
}

func TestRoot_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "nosqlite.yaml")
	db := filepath.Join(dir, "cfg.db")
	require.NoError(t, os.WriteFile(cfg, []byte("format: json\ntable: people\ndb: "+db+"\n"), 0o644))

	_, err := runCLI(t, "--config", cfg, "insert", `{"name":"ann"}`)
	require.NoError(t, err)

	out, err := runCLI(t, "--db", db, "--table", "people", "get", "1")
	require.NoError(t, err)
	assert.Equal(t, `{"name":"ann"}`+"\n", out)
}

func TestRoot_MissingConfigFile(t *testing.T) {
	_, err := runCLI(t, "--config", filepath.Join(t.TempDir(), "nope.yaml"), "find")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
