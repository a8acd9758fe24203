package usecase

import (
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/folio/pkg/domain/interfaces"
	"github.com/secmon-lab/folio/pkg/service/index"
	"github.com/secmon-lab/folio/pkg/utils/metrics"
)

type UseCases struct {
	repo      interfaces.ContentRepository
	llmClient gollem.LLMClient
	index     *index.Index
	chatCfg   ChatConfig

	Chat    *ChatUseCase
	Index   *IndexUseCase
	Content *ContentUseCase
}

type Option func(*UseCases)

// WithLLMClient sets the model used by the chat agent
func WithLLMClient(client gollem.LLMClient) Option {
	return func(uc *UseCases) {
		uc.llmClient = client
	}
}

// WithIndex sets the retrieval index used by the agent and rebuilt by the
// index use case
func WithIndex(idx *index.Index) Option {
	return func(uc *UseCases) {
		uc.index = idx
	}
}

func WithOwnerName(name string) Option {
	return func(uc *UseCases) {
		uc.chatCfg.OwnerName = name
	}
}

func WithMaxRounds(n int) Option {
	return func(uc *UseCases) {
		uc.chatCfg.MaxRounds = n
	}
}

func WithDenyPhrases(phrases ...string) Option {
	return func(uc *UseCases) {
		uc.chatCfg.DenyPhrases = append(uc.chatCfg.DenyPhrases, phrases...)
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(uc *UseCases) {
		uc.chatCfg.Metrics = m
	}
}

func New(repo interfaces.ContentRepository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo: repo,
	}

	for _, opt := range opts {
		opt(uc)
	}

	var retriever interfaces.ContextRetriever
	var unitIndex UnitIndex
	if uc.index != nil {
		retriever = uc.index
		unitIndex = uc.index
	}

	cfg := uc.chatCfg
	uc.Chat = NewChatUseCase(uc.llmClient, retriever, &cfg)
	uc.Index = NewIndexUseCase(NewContentAggregator(repo), unitIndex)
	uc.Content = NewContentUseCase(repo)

	return uc
}
