package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureOutput redirects command output for the duration of the test
func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = old })
	return &buf
}

func TestNewRootCommand(t *testing.T) {
	root := NewRootCommand()

	assert.Equal(t, "menuguard-admin", root.Name)
	assert.NotNil(t, root.Flags)

	expected := []string{"migrate", "seed", "check", "menus", "purge-logs"}
	for _, name := range expected {
		cmd, ok := root.Subcommands[name]
		require.True(t, ok, "expected subcommand %s", name)
		assert.Equal(t, name, cmd.Name)
		assert.NotNil(t, cmd.Run)
		assert.NotNil(t, cmd.Flags)
		assert.NotEmpty(t, cmd.Description)
	}
	assert.Len(t, root.Subcommands, len(expected))
}

func TestCommandUsage(t *testing.T) {
	out := captureOutput(t)

	require.NoError(t, NewRootCommand().ExecuteArgs(nil))

	output := out.String()
	assert.Contains(t, output, "Usage: menuguard-admin <command> [args]")
	assert.Contains(t, output, "Commands:")

	// names are listed alphabetically
	var order []string
	for _, line := range strings.Split(output, "\n") {
		if strings.HasPrefix(line, "  ") {
			order = append(order, strings.Fields(line)[0])
		}
	}
	assert.Equal(t, []string{"check", "menus", "migrate", "purge-logs", "seed"}, order)
}

func TestCommandExecute_Help(t *testing.T) {
	for _, arg := range []string{"-h", "--help"} {
		out := captureOutput(t)
		require.NoError(t, NewRootCommand().ExecuteArgs([]string{arg}))
		assert.Contains(t, out.String(), "Usage:")
	}
}

func TestCommandExecute_Unknown(t *testing.T) {
	err := NewRootCommand().ExecuteArgs([]string{"frobnicate"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command: frobnicate")
}

func TestCommandExecute_Dispatch(t *testing.T) {
	var got []string
	root := &Command{
		Name: "test",
		Subcommands: map[string]*Command{
			"echo": {Name: "echo", Run: func(args []string) error {
				got = args
				return nil
			}},
		},
	}

	require.NoError(t, root.ExecuteArgs([]string{"echo", "a", "b"}))
	assert.Equal(t, []string{"a", "b"}, got)
}
