package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/folio/pkg/domain/model"
	"github.com/secmon-lab/folio/pkg/utils/async"
	"github.com/secmon-lab/folio/pkg/utils/logging"
)

// UnitIndex is the write side of the retrieval index
type UnitIndex interface {
	Rebuild(ctx context.Context, units []*model.RetrievableUnit) error
}

// IndexUseCase keeps the retrieval index in sync with the content store
type IndexUseCase struct {
	aggregator *ContentAggregator
	index      UnitIndex

	// rebuildMu covers aggregate and install together, so the snapshot
	// installed last is built from the content read last
	rebuildMu sync.Mutex

	requestMu sync.Mutex
	running   bool
	pending   bool
}

func NewIndexUseCase(aggregator *ContentAggregator, index UnitIndex) *IndexUseCase {
	return &IndexUseCase{
		aggregator: aggregator,
		index:      index,
	}
}

// RebuildReport summarizes one rebuild
type RebuildReport struct {
	Units    int
	Duration time.Duration
}

// Rebuild aggregates the current content and installs a new snapshot. When
// aggregation or indexing fails the previous snapshot stays installed and
// the error is returned. Concurrent calls run one at a time.
func (uc *IndexUseCase) Rebuild(ctx context.Context) (*RebuildReport, error) {
	if uc.index == nil || uc.aggregator == nil {
		return nil, ErrIndexNotConfigured
	}

	uc.rebuildMu.Lock()
	defer uc.rebuildMu.Unlock()

	start := time.Now()
	units, err := uc.aggregator.Aggregate(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to aggregate content, keeping previous index")
	}

	if err := uc.index.Rebuild(ctx, units); err != nil {
		return nil, goerr.Wrap(err, "failed to rebuild index", goerr.V("units", len(units)))
	}

	report := &RebuildReport{
		Units:    len(units),
		Duration: time.Since(start),
	}
	logging.From(ctx).Info("Index rebuilt", "units", report.Units, "duration", report.Duration.String())
	return report, nil
}

// RequestRebuild runs Rebuild in the background and returns immediately.
// Requests that arrive while a background pass is running are merged into a
// single follow-up pass. It reports whether a new pass was started.
func (uc *IndexUseCase) RequestRebuild(ctx context.Context) (bool, error) {
	if uc.index == nil || uc.aggregator == nil {
		return false, ErrIndexNotConfigured
	}

	uc.requestMu.Lock()
	defer uc.requestMu.Unlock()

	if uc.running {
		uc.pending = true
		return false, nil
	}
	uc.running = true

	async.Dispatch(ctx, func(ctx context.Context) error {
		uc.drainRequests(ctx)
		return nil
	})
	return true, nil
}

func (uc *IndexUseCase) drainRequests(ctx context.Context) {
	finished := false
	defer func() {
		if !finished {
			uc.requestMu.Lock()
			uc.running, uc.pending = false, false
			uc.requestMu.Unlock()
		}
	}()

	for {
		if _, err := uc.Rebuild(ctx); err != nil {
			logging.From(ctx).Error("Requested index rebuild failed", "error", err)
		}

		uc.requestMu.Lock()
		if !uc.pending {
			uc.running = false
			finished = true
			uc.requestMu.Unlock()
			return
		}
		uc.pending = false
		uc.requestMu.Unlock()
	}
}
