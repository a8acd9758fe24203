package usecase

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/folio/pkg/agent/navigation"
	"github.com/secmon-lab/folio/pkg/agent/tool"
	"github.com/secmon-lab/folio/pkg/agent/tool/portfolio"
	"github.com/secmon-lab/folio/pkg/domain/interfaces"
	"github.com/secmon-lab/folio/pkg/domain/model"
	"github.com/secmon-lab/folio/pkg/domain/types"
	"github.com/secmon-lab/folio/pkg/service/guardrail"
	"github.com/secmon-lab/folio/pkg/utils/logging"
	"github.com/secmon-lab/folio/pkg/utils/metrics"
)

//go:embed prompt/chat_system.md
var chatSystemPromptTmpl string

var chatSystemPrompt = template.Must(template.New("chat_system").Parse(chatSystemPromptTmpl))

const (
	// DefaultMaxRounds bounds model invocations per chat request
	DefaultMaxRounds = 5

	// FallbackAnswer is returned when the model never produced any text
	FallbackAnswer = "I'm not sure how to respond to that."
)

// ChatUseCase answers one visitor message with the portfolio agent
type ChatUseCase struct {
	llmClient    gollem.LLMClient
	tools        *portfolio.Registry
	guardrail    *guardrail.Guardrail
	metrics      *metrics.Metrics
	maxRounds    int
	systemPrompt string
}

type chatPromptData struct {
	OwnerName    string
	RetrieveTool string
	NavigateTool string
	Sections     []types.Section
}

func buildChatSystemPrompt(ownerName string) string {
	data := chatPromptData{
		OwnerName:    ownerName,
		RetrieveTool: portfolio.RetrieveToolName,
		NavigateTool: portfolio.NavigateToolName,
		Sections:     types.AllSections(),
	}

	var buf bytes.Buffer
	if err := chatSystemPrompt.Execute(&buf, data); err != nil {
		return "You are a portfolio assistant. Only answer questions about this portfolio."
	}
	return buf.String()
}

// NewChatUseCase creates a ChatUseCase. retriever backs the retrieval tool.
func NewChatUseCase(llmClient gollem.LLMClient, retriever interfaces.ContextRetriever, cfg *ChatConfig) *ChatUseCase {
	if cfg == nil {
		cfg = &ChatConfig{}
	}

	maxRounds := cfg.MaxRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}

	return &ChatUseCase{
		llmClient:    llmClient,
		tools:        portfolio.New(retriever),
		guardrail:    guardrail.New(guardrail.WithExtraPhrases(cfg.DenyPhrases...)),
		metrics:      cfg.Metrics,
		maxRounds:    maxRounds,
		systemPrompt: buildChatSystemPrompt(cfg.OwnerName),
	}
}

// ChatConfig tunes the agent
type ChatConfig struct {
	OwnerName   string
	MaxRounds   int
	DenyPhrases []string
	Metrics     *metrics.Metrics
}

// ChatCapabilities describes what the agent has bound: tool names in
// registration order and the size of the off-topic deny list
type ChatCapabilities struct {
	Tools       []string
	DenyPhrases int
}

// Capabilities reports the tools and guardrail the agent runs with
func (uc *ChatUseCase) Capabilities() ChatCapabilities {
	specs := uc.tools.Specs()
	names := make([]string, len(specs))
	for i, spec := range specs {
		names[i] = spec.Name
	}
	return ChatCapabilities{
		Tools:       names,
		DenyPhrases: len(uc.guardrail.Phrases()),
	}
}

// SystemPrompt returns the rendered directive given to the model
func (uc *ChatUseCase) SystemPrompt() string {
	return uc.systemPrompt
}

// Chat answers message. Blank input returns ErrEmptyInput; off-topic input
// gets the refusal without any model call. Only a failing model returns
// ErrModelUnavailable; every other condition yields a result.
func (uc *ChatUseCase) Chat(ctx context.Context, message string) (*model.ChatResult, error) {
	logger := logging.From(ctx)

	text := strings.TrimSpace(message)
	if text == "" {
		uc.metrics.ObserveChat(metrics.OutcomeEmpty)
		return nil, goerr.Wrap(ErrEmptyInput, "chat message is blank")
	}

	if uc.guardrail.IsOffTopic(text) {
		uc.metrics.ObserveChat(metrics.OutcomeRefused)
		logger.Info("Off-topic message refused", "length", len(text))
		return &model.ChatResult{Response: guardrail.RefusalMessage}, nil
	}

	result, limited, err := uc.runAgent(ctx, text)
	if err != nil {
		uc.metrics.ObserveChat(metrics.OutcomeError)
		return nil, err
	}

	if limited {
		uc.metrics.ObserveChat(metrics.OutcomeRoundLimit)
	} else {
		uc.metrics.ObserveChat(metrics.OutcomeAnswered)
	}
	return result, nil
}

// runAgent drives the AGENT/TOOLS loop until the model answers without tool
// calls or the round limit is hit. The second return value reports the
// latter.
func (uc *ChatUseCase) runAgent(ctx context.Context, text string) (*model.ChatResult, bool, error) {
	if uc.llmClient == nil {
		return nil, false, goerr.Wrap(ErrModelUnavailable, "LLM client is not configured")
	}

	logger := logging.From(ctx)
	state := model.NewAgentState(uc.systemPrompt, text)

	session, err := uc.llmClient.NewSession(ctx,
		gollem.WithSessionSystemPrompt(uc.systemPrompt),
		gollem.WithSessionTools(uc.tools.Tools()...),
	)
	if err != nil {
		return nil, false, goerr.Wrap(ErrModelUnavailable, "failed to create LLM session", goerr.V("error", err.Error()))
	}

	ctx = tool.WithProgress(ctx, func(ctx context.Context, toolName, message string) {
		logging.From(ctx).Debug("Tool progress", "tool", toolName, "message", message)
	})

	// The session keeps its own history, so each invocation only sends what
	// is new since the previous one.
	input := []gollem.Input{gollem.Text(text)}

	for round := 1; ; round++ {
		resp, err := session.Generate(ctx, input)
		uc.metrics.ObserveModelCall()
		if err != nil {
			return nil, false, goerr.Wrap(ErrModelUnavailable, "failed to generate content",
				goerr.V("round", round),
				goerr.V("error", err.Error()),
			)
		}
		if resp == nil {
			return nil, false, goerr.Wrap(ErrModelUnavailable, "model returned no response", goerr.V("round", round))
		}

		msg := toAssistantMessage(resp)
		state.Append(msg)

		if section, ok := navigation.Resolve(msg); ok && state.SetNavigation(section) {
			logger.Debug("Navigation intent resolved", "section", section, "round", round)
		}

		if !msg.HasToolCalls() {
			answer := msg.Content
			if strings.TrimSpace(answer) == "" {
				answer = fallbackAnswer(state)
			}
			return newChatResult(answer, state), false, nil
		}

		if round >= uc.maxRounds {
			logger.Warn("Agent round limit reached",
				"max_rounds", uc.maxRounds,
				"pending_tool_calls", len(msg.ToolCalls),
			)
			return newChatResult(fallbackAnswer(state), state), true, nil
		}

		input = uc.runTools(ctx, state, msg.ToolCalls)
	}
}

// runTools executes calls in order and appends one result message per call.
// A failing tool becomes an error string for the model; it never aborts the
// turn.
func (uc *ChatUseCase) runTools(ctx context.Context, state *model.AgentState, calls []*model.ToolCall) []gollem.Input {
	logger := logging.From(ctx)
	results := make([]gollem.Input, 0, len(calls))

	for _, call := range calls {
		content, err := uc.executeTool(ctx, call)
		uc.metrics.ObserveToolCall(call.Name, err != nil)
		if err != nil {
			logger.Warn("Tool execution failed",
				"tool", call.Name,
				"call_id", call.ID,
				"error", err.Error(),
			)
			content = "Error: " + err.Error()
		}

		state.Append(model.NewToolResultMessage(call, content))
		results = append(results, gollem.FunctionResponse{
			ID:   call.ID,
			Name: call.Name,
			Data: map[string]any{"result": content},
		})
	}

	return results
}

func (uc *ChatUseCase) executeTool(ctx context.Context, call *model.ToolCall) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = goerr.New(fmt.Sprintf("tool panicked: %v", r), goerr.V("tool", call.Name))
		}
	}()

	return uc.tools.Execute(ctx, call.Name, call.Arguments)
}

func toAssistantMessage(resp *gollem.Response) *model.Message {
	msg := &model.Message{
		Role:    types.RoleAssistant,
		Content: strings.Join(resp.Texts, "\n"),
	}

	for _, fc := range resp.FunctionCalls {
		if fc == nil {
			continue
		}
		id := fc.ID
		if id == "" {
			id = "call_" + uuid.NewString()
		}
		msg.ToolCalls = append(msg.ToolCalls, &model.ToolCall{
			ID:        id,
			Name:      fc.Name,
			Arguments: fc.Arguments,
		})
	}

	return msg
}

func fallbackAnswer(state *model.AgentState) string {
	if answer := state.BestEffortAnswer(); answer != "" {
		return answer
	}
	return FallbackAnswer
}

func newChatResult(answer string, state *model.AgentState) *model.ChatResult {
	result := &model.ChatResult{Response: answer}
	if state.NavigationPayload != nil {
		result.Action = model.NewNavigateAction(*state.NavigationPayload)
	}
	return result
}
