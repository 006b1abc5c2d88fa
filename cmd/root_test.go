package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"run", "eval", "results", "replay", "serve"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "agent-eval", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRunCommand_Flags(t *testing.T) {
	for _, name := range []string{"max-steps", "trajectory", "mock"} {
		require.NotNil(t, runCmd.Flags().Lookup(name), "run command should have --%s flag", name)
	}
}

func TestEvalCommand_Flags(t *testing.T) {
	for _, name := range []string{"suite", "concurrency", "attempts", "scorer", "agent", "mock"} {
		require.NotNil(t, evalCmd.Flags().Lookup(name), "eval command should have --%s flag", name)
	}
}

func TestResultsCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range resultsCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"list", "show", "summary"} {
		assert.True(t, names[name], "expected results subcommand %q", name)
	}
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag)
	assert.Equal(t, "0", flag.DefValue)
}
