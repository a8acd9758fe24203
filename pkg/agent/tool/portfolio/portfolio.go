package portfolio

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/folio/pkg/agent/tool"
	"github.com/secmon-lab/folio/pkg/domain/interfaces"
	"github.com/secmon-lab/folio/pkg/domain/types"
	"github.com/secmon-lab/folio/pkg/service/index"
)

const (
	RetrieveToolName = "retrieve_portfolio_context"
	NavigateToolName = "navigate_to_section"

	// RetrieveK is the number of units the retrieve tool asks the index for
	RetrieveK = 3
)

var (
	ErrUnknownTool     = goerr.New("unknown tool")
	ErrInvalidArgument = goerr.New("invalid tool argument")
)

// Name identifies one tool of the closed portfolio tool set
type Name string

const (
	NameRetrieve Name = RetrieveToolName
	NameNavigate Name = NavigateToolName
)

// NavigationAck is the result string of navigate_to_section
func NavigationAck(section types.Section) string {
	return fmt.Sprintf("Successfully initiated navigation to the %s page.", section)
}

// Registry holds the tools bound into the model's tool-selection context
type Registry struct {
	retriever interfaces.ContextRetriever
}

// New builds the registry. retriever backs retrieve_portfolio_context.
func New(retriever interfaces.ContextRetriever) *Registry {
	return &Registry{retriever: retriever}
}

// Tools returns the tools as gollem tools for session binding
func (r *Registry) Tools() []gollem.Tool {
	return []gollem.Tool{
		&retrieveTool{registry: r},
		&navigateTool{registry: r},
	}
}

// Specs returns the tool specs in registration order
func (r *Registry) Specs() []gollem.ToolSpec {
	tools := r.Tools()
	specs := make([]gollem.ToolSpec, len(tools))
	for i, t := range tools {
		specs[i] = t.Spec()
	}
	return specs
}

// Execute runs the named tool and returns its result text. An unknown name
// returns ErrUnknownTool.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	switch Name(name) {
	case NameRetrieve:
		return r.retrieve(ctx, args)
	case NameNavigate:
		return r.navigate(ctx, args)
	default:
		return "", goerr.Wrap(ErrUnknownTool, "tool is not registered", goerr.V("name", name))
	}
}

func (r *Registry) retrieve(ctx context.Context, args map[string]any) (string, error) {
	query, _ := args["query"].(string)
	if strings.TrimSpace(query) == "" {
		return "", goerr.Wrap(ErrInvalidArgument, "query is required")
	}
	if r.retriever == nil {
		return index.MessageUnavailable, nil
	}

	tool.Progress(ctx, RetrieveToolName, fmt.Sprintf("Searching portfolio: %s", query))

	result, err := r.retriever.Query(ctx, query, RetrieveK)
	if err != nil {
		return "", goerr.Wrap(err, "failed to query portfolio index", goerr.V("query", query))
	}
	return result, nil
}

func (r *Registry) navigate(ctx context.Context, args map[string]any) (string, error) {
	raw, _ := args["section"].(string)
	section, err := types.ParseSection(raw)
	if err != nil {
		return "", goerr.Wrap(ErrInvalidArgument, err.Error(), goerr.V("section", raw))
	}

	tool.Progress(ctx, NavigateToolName, fmt.Sprintf("Navigating to %s", section))

	return NavigationAck(section), nil
}

type retrieveTool struct {
	registry *Registry
}

func (t *retrieveTool) Spec() gollem.ToolSpec {
	return gollem.ToolSpec{
		Name:        RetrieveToolName,
		Description: "Search the portfolio's documents, projects and blog posts for information relevant to the query",
		Parameters: map[string]*gollem.Parameter{
			"query": {
				Type:        gollem.TypeString,
				Description: "What to look up in the portfolio",
				Required:    true,
			},
		},
	}
}

func (t *retrieveTool) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	result, err := t.registry.Execute(ctx, RetrieveToolName, args)
	if err != nil {
		return nil, err
	}
	return map[string]any{"result": result}, nil
}

type navigateTool struct {
	registry *Registry
}

func (t *navigateTool) Spec() gollem.ToolSpec {
	sections := types.AllSections()
	enum := make([]string, len(sections))
	for i, s := range sections {
		enum[i] = s.String()
	}

	return gollem.ToolSpec{
		Name:        NavigateToolName,
		Description: "Navigate the visitor's browser to a section of the portfolio site",
		Parameters: map[string]*gollem.Parameter{
			"section": {
				Type:        gollem.TypeString,
				Description: "Section to open",
				Required:    true,
				Enum:        enum,
			},
		},
	}
}

func (t *navigateTool) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	result, err := t.registry.Execute(ctx, NavigateToolName, args)
	if err != nil {
		return nil, err
	}
	return map[string]any{"result": result}, nil
}
