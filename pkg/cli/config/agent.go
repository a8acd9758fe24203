package config

import (
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/folio/pkg/service/index"
	"github.com/secmon-lab/folio/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// Agent holds configuration of the chat agent and its retrieval index
type Agent struct {
	ownerName     string
	maxRounds     int
	denyPhrases   []string
	dimension     int
	queryCacheTTL time.Duration
}

func (a *Agent) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "owner-name",
			Usage:       "Name of the portfolio owner the assistant speaks for",
			Value:       "the portfolio owner",
			Category:    "Agent",
			Sources:     cli.EnvVars("FOLIO_OWNER_NAME"),
			Destination: &a.ownerName,
		},
		&cli.IntFlag{
			Name:        "max-rounds",
			Usage:       "Maximum model calls per chat request",
			Value:       usecase.DefaultMaxRounds,
			Category:    "Agent",
			Sources:     cli.EnvVars("FOLIO_MAX_ROUNDS"),
			Destination: &a.maxRounds,
		},
		&cli.StringSliceFlag{
			Name:        "deny-phrase",
			Usage:       "Additional off-topic phrase refused without calling the model (repeatable)",
			Category:    "Agent",
			Sources:     cli.EnvVars("FOLIO_DENY_PHRASES"),
			Destination: &a.denyPhrases,
		},
		&cli.IntFlag{
			Name:        "embedding-dimension",
			Usage:       "Embedding vector dimension",
			Value:       index.DefaultDimension,
			Category:    "Agent",
			Sources:     cli.EnvVars("FOLIO_EMBEDDING_DIMENSION"),
			Destination: &a.dimension,
		},
		&cli.DurationFlag{
			Name:        "query-cache-ttl",
			Usage:       "TTL of cached query embeddings (0 disables the cache)",
			Value:       10 * time.Minute,
			Category:    "Agent",
			Sources:     cli.EnvVars("FOLIO_QUERY_CACHE_TTL"),
			Destination: &a.queryCacheTTL,
		},
	}
}

func (a Agent) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("owner_name", a.ownerName),
		slog.Int("max_rounds", a.maxRounds),
		slog.Int("deny_phrases", len(a.denyPhrases)),
		slog.Int("embedding_dimension", a.dimension),
		slog.Duration("query_cache_ttl", a.queryCacheTTL),
	)
}

// Validate checks numeric options
func (a *Agent) Validate() error {
	if a.maxRounds < 1 {
		return goerr.Wrap(ErrInvalidConfig, "max-rounds must be positive", goerr.V("max_rounds", a.maxRounds))
	}
	if a.dimension < 1 {
		return goerr.Wrap(ErrInvalidConfig, "embedding-dimension must be positive", goerr.V("dimension", a.dimension))
	}
	if a.queryCacheTTL < 0 {
		return goerr.Wrap(ErrInvalidConfig, "query-cache-ttl must not be negative", goerr.V("ttl", a.queryCacheTTL))
	}
	return nil
}

// IndexOptions returns options for index.New
func (a *Agent) IndexOptions() []index.Option {
	return []index.Option{
		index.WithDimension(a.dimension),
		index.WithQueryCacheTTL(a.queryCacheTTL),
	}
}

// UseCaseOptions returns options for usecase.New
func (a *Agent) UseCaseOptions() []usecase.Option {
	return []usecase.Option{
		usecase.WithOwnerName(a.ownerName),
		usecase.WithMaxRounds(a.maxRounds),
		usecase.WithDenyPhrases(a.denyPhrases...),
	}
}
