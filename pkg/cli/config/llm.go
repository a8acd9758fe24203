package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/m-mizutani/gollem/llm/openai"
	"github.com/secmon-lab/folio/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// LLM providers
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// LLM holds configuration for the language model used for chat and
// embeddings. Temperature is always 0.
type LLM struct {
	provider       string
	openAIAPIKey   string `masq:"secret"`
	openAIModel    string
	embeddingModel string
	geminiProject  string
	geminiLocation string
	geminiModel    string
}

// Flags returns CLI flags for LLM configuration
func (l *LLM) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "llm-provider",
			Usage:       "LLM provider (openai, gemini)",
			Value:       ProviderOpenAI,
			Category:    "LLM",
			Sources:     cli.EnvVars("FOLIO_LLM_PROVIDER"),
			Destination: &l.provider,
		},
		&cli.StringFlag{
			Name:        "openai-api-key",
			Usage:       "OpenAI API key",
			Category:    "LLM",
			Sources:     cli.EnvVars("FOLIO_OPENAI_API_KEY", "OPENAI_API_KEY"),
			Destination: &l.openAIAPIKey,
		},
		&cli.StringFlag{
			Name:        "openai-model",
			Usage:       "OpenAI chat model",
			Value:       "gpt-4o",
			Category:    "LLM",
			Sources:     cli.EnvVars("FOLIO_OPENAI_MODEL"),
			Destination: &l.openAIModel,
		},
		&cli.StringFlag{
			Name:        "openai-embedding-model",
			Usage:       "OpenAI embedding model",
			Value:       "text-embedding-3-small",
			Category:    "LLM",
			Sources:     cli.EnvVars("FOLIO_OPENAI_EMBEDDING_MODEL"),
			Destination: &l.embeddingModel,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini API",
			Category:    "LLM",
			Sources:     cli.EnvVars("FOLIO_GEMINI_PROJECT"),
			Destination: &l.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini API",
			Value:       "us-central1",
			Category:    "LLM",
			Sources:     cli.EnvVars("FOLIO_GEMINI_LOCATION"),
			Destination: &l.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Gemini chat model (provider default when empty)",
			Category:    "LLM",
			Sources:     cli.EnvVars("FOLIO_GEMINI_MODEL"),
			Destination: &l.geminiModel,
		},
	}
}

// LogAttrs returns log attributes for the LLM configuration
func (l *LLM) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("provider", l.provider),
		slog.String("openai_model", l.openAIModel),
		slog.String("embedding_model", l.embeddingModel),
		slog.String("gemini_project", l.geminiProject),
		slog.String("gemini_location", l.geminiLocation),
		slog.Bool("openai_api_key_set", l.openAIAPIKey != ""),
	}
}

// Configure creates the LLM client. It returns nil when the selected
// provider has no credentials; chat then fails with a model error and the
// index cannot be built.
func (l *LLM) Configure(ctx context.Context) (gollem.LLMClient, error) {
	switch l.provider {
	case ProviderOpenAI, "":
		if l.openAIAPIKey == "" {
			logging.Default().LogAttrs(ctx, slog.LevelWarn, "OpenAI API key not set, retrieval and chat are unavailable", l.LogAttrs()...)
			return nil, nil
		}
		client, err := openai.New(ctx, l.openAIAPIKey,
			openai.WithModel(l.openAIModel),
			openai.WithEmbeddingModel(l.embeddingModel),
			openai.WithTemperature(0),
		)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create OpenAI client")
		}
		return client, nil

	case ProviderGemini:
		if l.geminiProject == "" {
			logging.Default().LogAttrs(ctx, slog.LevelWarn, "Gemini project not set, retrieval and chat are unavailable", l.LogAttrs()...)
			return nil, nil
		}
		opts := []gemini.Option{gemini.WithTemperature(0)}
		if l.geminiModel != "" {
			opts = append(opts, gemini.WithModel(l.geminiModel))
		}
		client, err := gemini.New(ctx, l.geminiProject, l.geminiLocation, opts...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create Gemini client")
		}
		return client, nil

	default:
		return nil, goerr.Wrap(ErrInvalidConfig, "unknown LLM provider", goerr.V("provider", l.provider))
	}
}
