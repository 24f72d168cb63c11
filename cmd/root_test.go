package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCommand(t *testing.T) {
	root := NewRootCommand()

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["run"])
	assert.True(t, names["watch"])
	assert.True(t, names["artifacts"])

	flag := root.PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
	assert.Equal(t, "c", flag.Shorthand)
}

func TestRunCommandArgValidation(t *testing.T) {
	root := NewRootCommand()
	root.SetArgs([]string{"run", "https://example.com"})

	// Missing objective argument must fail before any setup work.
	err := root.Execute()
	require.Error(t, err)
}
