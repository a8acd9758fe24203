package model

import (
	"strings"

	"github.com/secmon-lab/folio/pkg/domain/types"
)

// AgentState is the per-request state of the agent loop. It is created for
// one chat request and never shared between requests.
type AgentState struct {
	Messages          []*Message
	NavigationPayload *types.Section
}

// NewAgentState seeds the state with the system directive and the user message
func NewAgentState(directive, userMessage string) *AgentState {
	return &AgentState{
		Messages: []*Message{
			NewUserMessage(directive),
			NewUserMessage(userMessage),
		},
	}
}

// Append adds messages to the end of the transcript
func (s *AgentState) Append(msgs ...*Message) {
	s.Messages = append(s.Messages, msgs...)
}

// SetNavigation records section as the navigation payload unless one was
// already recorded. It reports whether the payload was set.
func (s *AgentState) SetNavigation(section types.Section) bool {
	if s.NavigationPayload != nil || !section.IsValid() {
		return false
	}
	s.NavigationPayload = &section
	return true
}

// BestEffortAnswer returns the content of the latest assistant message with
// non-empty text, or "" when the model never produced any text.
func (s *AgentState) BestEffortAnswer() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		m := s.Messages[i]
		if m.Role == types.RoleAssistant && strings.TrimSpace(m.Content) != "" {
			return m.Content
		}
	}
	return ""
}
