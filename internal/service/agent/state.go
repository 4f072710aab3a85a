package agent

import "github.com/recall-agent/recall/internal/core"

// State is one node of the reason-act loop.
type State int

const (
	// StateThink asks the model for the next step.
	StateThink State = iota
	// StateUseTool executes the tool calls the model requested.
	StateUseTool
	// StateRespond ends the turn with the model's answer.
	StateRespond
)

func (s State) String() string {
	switch s {
	case StateThink:
		return "think"
	case StateUseTool:
		return "use_tool"
	case StateRespond:
		return "respond"
	default:
		return "unknown"
	}
}

// Transition decides the next state from the newest message alone.
// Anything that is not an assistant reply needs another model step; an
// assistant reply ends the turn unless it asked for tools.
func Transition(latest core.Message) State {
	if latest.Role != core.RoleAssistant {
		return StateThink
	}
	if len(latest.ToolCalls) == 0 {
		return StateRespond
	}
	return StateUseTool
}
