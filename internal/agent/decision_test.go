package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDecision(t *testing.T) {
	t.Run("proceeds with explicit action and details", func(t *testing.T) {
		reply := `The login form is the obvious path forward.
DECISION: PROCEED_AUTO
ACTION: Click the "Sign in" button
DETAILS: Use the credentials form at the top of the page`

		d := ParseDecision(reply)
		assert.True(t, d.Proceed)
		assert.Equal(t, `Click the "Sign in" button`, d.Action)
		assert.Equal(t, "Use the credentials form at the top of the page", d.Details)
	})

	t.Run("proceeds with defaults when fields are missing", func(t *testing.T) {
		d := ParseDecision("DECISION: PROCEED_AUTO")
		assert.True(t, d.Proceed)
		assert.Equal(t, "Continue with next step", d.Action)
		assert.Equal(t, "Proceeding with obvious next step", d.Details)
	})

	t.Run("pauses when the model asks for input", func(t *testing.T) {
		reply := `DECISION: NEED_USER_INPUT
REASON: Multiple checkout options and no obvious preference`

		d := ParseDecision(reply)
		assert.False(t, d.Proceed)
		assert.Equal(t, "Multiple checkout options and no obvious preference", d.Reason)
	})

	t.Run("pauses when no decision line is present", func(t *testing.T) {
		d := ParseDecision("I think we should probably click something, maybe PROCEED_AUTO?")
		assert.False(t, d.Proceed)
	})

	t.Run("decision casing is tolerated", func(t *testing.T) {
		d := ParseDecision("decision: proceed_auto")
		assert.True(t, d.Proceed)
	})
}
