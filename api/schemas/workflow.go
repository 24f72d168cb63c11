package schemas

// RunStatus describes the lifecycle state of a workflow run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSuspended RunStatus = "suspended"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Terminal reports whether the status can never change again.
func (s RunStatus) Terminal() bool {
	return s == RunCompleted || s == RunFailed
}

// Step identifiers for the fixed web-automation pipeline.
const (
	StepNavigation      = "navigation"
	StepActionPlanning  = "action-planning"
	StepActionExecution = "action-execution"
	StepCompletion      = "completion"
)

// NavigationInput is the input contract of the navigation step and,
// transitively, of the whole workflow.
type NavigationInput struct {
	URL       string `json:"url"`
	Objective string `json:"objective"`
}

// NavigationOutput carries the agent's initial page analysis.
type NavigationOutput struct {
	URL              string   `json:"url"`
	Objective        string   `json:"objective"`
	PageAnalysis     string   `json:"pageAnalysis"`
	AvailableActions []string `json:"availableActions"`
}

// PlanningOutput is emitted by the action-planning step, either directly
// (autonomous decision) or after a resume with user input.
type PlanningOutput struct {
	URL            string `json:"url"`
	Objective      string `json:"objective"`
	SelectedAction string `json:"selectedAction"`
	ActionDetails  string `json:"actionDetails"`
}

// PlanningSuspend is the payload handed to the caller when the planning
// step pauses for user input.
type PlanningSuspend struct {
	PageAnalysis     string   `json:"pageAnalysis"`
	AvailableActions []string `json:"availableActions"`
}

// PlanningResume is the caller-supplied payload that re-enters a
// suspended planning step.
type PlanningResume struct {
	SelectedAction string `json:"selectedAction"`
	ActionDetails  string `json:"actionDetails"`
}

// ExecutionOutput reports the result of performing the selected action.
type ExecutionOutput struct {
	ActionResult   string `json:"actionResult"`
	PageState      string `json:"pageState"`
	NextStepNeeded bool   `json:"nextStepNeeded"`
}

// CompletionOutput is the final output of the pipeline.
type CompletionOutput struct {
	IsComplete  bool     `json:"isComplete"`
	Summary     string   `json:"summary"`
	NextActions []string `json:"nextActions,omitempty"`
}

// ErrorDescriptor is the caller-facing shape of a run failure.
type ErrorDescriptor struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RunResult is returned by Engine.Start and Engine.Resume. Exactly one of
// SuspendPayload, Output, or Err is meaningful, selected by Status.
type RunResult struct {
	RunID          string           `json:"runId"`
	Status         RunStatus        `json:"status"`
	StepID         string           `json:"stepId"`
	SuspendPayload any              `json:"suspendPayload,omitempty"`
	Output         any              `json:"output,omitempty"`
	Err            *ErrorDescriptor `json:"error,omitempty"`
}
