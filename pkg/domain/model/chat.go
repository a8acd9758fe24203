package model

import "github.com/secmon-lab/folio/pkg/domain/types"

// ActionTypeNavigate is the only action type the agent emits
const ActionTypeNavigate = "NAVIGATE"

// Action is a client-side effect returned with a chat response
type Action struct {
	Type    string
	Payload types.Section
}

// NewNavigateAction creates a NAVIGATE action for section
func NewNavigateAction(section types.Section) *Action {
	return &Action{Type: ActionTypeNavigate, Payload: section}
}

// ChatResult is the outcome of one chat request
type ChatResult struct {
	Response string
	Action   *Action
}
