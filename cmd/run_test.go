// cmd/run_test.go
package cmd

import (
	"bytes"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
)

func suspendedResult() *schemas.RunResult {
	return &schemas.RunResult{
		RunID:  "run-1",
		Status: schemas.RunSuspended,
		StepID: schemas.StepActionPlanning,
		SuspendPayload: schemas.PlanningSuspend{
			PageAnalysis:     "login page",
			AvailableActions: []string{"Sign in", "Register"},
		},
	}
}

func newPromptCmd(in string) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader(in))
	cmd.SetOut(&bytes.Buffer{})
	return cmd
}

func TestPromptForAction(t *testing.T) {
	t.Run("reads action and details", func(t *testing.T) {
		cmd := newPromptCmd("Sign in\nuse the test account\n")
		resume, err := promptForAction(cmd, suspendedResult(), false)
		require.NoError(t, err)
		assert.Equal(t, "Sign in", resume.SelectedAction)
		assert.Equal(t, "use the test account", resume.ActionDetails)
	})

	t.Run("tolerates EOF on the optional details line", func(t *testing.T) {
		cmd := newPromptCmd("Sign in\npartial details")
		resume, err := promptForAction(cmd, suspendedResult(), false)
		require.NoError(t, err)
		assert.Equal(t, "Sign in", resume.SelectedAction)
		assert.Equal(t, "partial details", resume.ActionDetails)
	})

	t.Run("surfaces a read failure on the details line", func(t *testing.T) {
		cmd := &cobra.Command{}
		cmd.SetIn(iotest.TimeoutReader(strings.NewReader("Sign in\n")))
		cmd.SetOut(&bytes.Buffer{})

		_, err := promptForAction(cmd, suspendedResult(), false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read details")
	})

	t.Run("auto mode takes the first available action", func(t *testing.T) {
		cmd := newPromptCmd("")
		resume, err := promptForAction(cmd, suspendedResult(), true)
		require.NoError(t, err)
		assert.Equal(t, "Sign in", resume.SelectedAction)
	})

	t.Run("auto mode fails without available actions", func(t *testing.T) {
		res := suspendedResult()
		res.SuspendPayload = schemas.PlanningSuspend{PageAnalysis: "blank"}
		_, err := promptForAction(newPromptCmd(""), res, true)
		require.Error(t, err)
	})
}
