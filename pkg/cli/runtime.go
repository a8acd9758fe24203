package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/folio/pkg/cli/config"
	"github.com/secmon-lab/folio/pkg/service/index"
	"github.com/secmon-lab/folio/pkg/usecase"
	"github.com/secmon-lab/folio/pkg/utils/logging"
	"github.com/secmon-lab/folio/pkg/utils/metrics"
	"github.com/urfave/cli/v3"
)

// runtimeConfig groups the configuration shared by commands that need the
// content store, the model and the retrieval index
type runtimeConfig struct {
	repo  config.Repository
	llm   config.LLM
	agent config.Agent
}

func (r *runtimeConfig) Flags() []cli.Flag {
	var flags []cli.Flag
	flags = append(flags, r.repo.Flags()...)
	flags = append(flags, r.llm.Flags()...)
	flags = append(flags, r.agent.Flags()...)
	return flags
}

type runtime struct {
	store *config.Store
	index *index.Index
	uc    *usecase.UseCases
}

func (r *runtime) Close() {
	if err := r.store.Close(); err != nil {
		logging.Default().Error("failed to close repository", "error", err.Error())
	}
}

// setup opens the content store, creates the model client and index, and
// runs the first index build. A missing model leaves the index unset; chat
// then fails with a model error.
func (r *runtimeConfig) setup(ctx context.Context, m *metrics.Metrics) (*runtime, error) {
	if err := r.agent.Validate(); err != nil {
		return nil, err
	}

	store, err := r.repo.Configure(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize repository")
	}
	rt := &runtime{store: store}

	llmClient, err := r.llm.Configure(ctx)
	if err != nil {
		rt.Close()
		return nil, goerr.Wrap(err, "failed to configure LLM")
	}

	ucOpts := r.agent.UseCaseOptions()
	if m != nil {
		ucOpts = append(ucOpts, usecase.WithMetrics(m))
	}

	if llmClient != nil {
		idxOpts := r.agent.IndexOptions()
		if m != nil {
			idxOpts = append(idxOpts, index.WithMetrics(m))
		}
		idx, err := index.New(llmClient, idxOpts...)
		if err != nil {
			rt.Close()
			return nil, goerr.Wrap(err, "failed to create retrieval index")
		}
		rt.index = idx
		ucOpts = append(ucOpts, usecase.WithLLMClient(llmClient), usecase.WithIndex(idx))
	}

	rt.uc = usecase.New(store, ucOpts...)
	caps := rt.uc.Chat.Capabilities()
	logging.Default().Info("Chat agent configured", "tools", caps.Tools, "deny_phrases", caps.DenyPhrases)

	if rt.index != nil {
		report, err := rt.uc.Index.Rebuild(ctx)
		if err != nil {
			// retrieval reports the index as unavailable until a later rebuild succeeds
			logging.Default().Error("initial index build failed", "error", err)
		} else {
			logging.Default().Info("Retrieval index built", "units", report.Units, "duration", report.Duration)
		}
	}

	return rt, nil
}
