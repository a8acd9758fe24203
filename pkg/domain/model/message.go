package model

import "github.com/secmon-lab/folio/pkg/domain/types"

// ToolCall is a request emitted by the model to run one named tool
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// Message is one turn of the conversation fed to or produced by the model.
// Tool result messages carry the ID and name of the call they answer.
type Message struct {
	Role       types.Role
	Content    string
	ToolCalls  []*ToolCall
	ToolCallID string
	ToolName   string
}

// HasToolCalls reports whether the message requests any tool execution
func (m *Message) HasToolCalls() bool {
	return m != nil && len(m.ToolCalls) > 0
}

// NewUserMessage creates a user message
func NewUserMessage(content string) *Message {
	return &Message{Role: types.RoleUser, Content: content}
}

// NewToolResultMessage creates the message answering call
func NewToolResultMessage(call *ToolCall, content string) *Message {
	return &Message{
		Role:       types.RoleTool,
		Content:    content,
		ToolCallID: call.ID,
		ToolName:   call.Name,
	}
}
