// File: internal/agent/decision.go
package agent

import "strings"

// Decision is the parsed outcome of the planning step's LLM reply. Proceed
// is set only when the model unambiguously committed to acting on its own;
// anything else pauses the run for user input.
type Decision struct {
	Proceed bool
	Action  string
	Details string
	Reason  string
}

const (
	defaultAction  = "Continue with next step"
	defaultDetails = "Proceeding with obvious next step"
)

// ParseDecision scans the reply line protocol:
//
//	DECISION: PROCEED_AUTO | NEED_USER_INPUT
//	ACTION: <what to do>
//	DETAILS: <how to do it>
//	REASON: <why input is needed>
//
// A missing or malformed DECISION line is treated as a request for user
// input. Field lines are optional; PROCEED_AUTO falls back to defaults.
func ParseDecision(reply string) Decision {
	d := Decision{}

	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case matchField(line, "DECISION:") != "":
			d.Proceed = strings.EqualFold(matchField(line, "DECISION:"), "PROCEED_AUTO")
		case matchField(line, "ACTION:") != "":
			d.Action = matchField(line, "ACTION:")
		case matchField(line, "DETAILS:") != "":
			d.Details = matchField(line, "DETAILS:")
		case matchField(line, "REASON:") != "":
			d.Reason = matchField(line, "REASON:")
		}
	}

	if d.Proceed {
		if d.Action == "" {
			d.Action = defaultAction
		}
		if d.Details == "" {
			d.Details = defaultDetails
		}
	}
	return d
}

func matchField(line, prefix string) string {
	if !strings.HasPrefix(strings.ToUpper(line), prefix) {
		return ""
	}
	return strings.TrimSpace(line[len(prefix):])
}
