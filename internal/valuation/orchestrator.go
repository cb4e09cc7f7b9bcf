package valuation

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/homescout/listings-cli/internal/config"
	"github.com/homescout/listings-cli/internal/model"
)

// Extractor fetches market extracts for a batch of listing IDs.
type Extractor interface {
	FetchExtracts(ctx context.Context, zpids []string) ([]model.MarketExtract, error)
}

// Persister is the slice of the store the valuation job needs.
type Persister interface {
	ListListingIDs(ctx context.Context) ([]string, error)
	GetValuation(ctx context.Context, zpid string) (*Result, error)
	SaveValuation(ctx context.Context, zpid string, result *Result) error
}

// JobResult summarizes one valuation job run.
type JobResult struct {
	JobID     string `json:"job_id"`
	Processed int    `json:"processed"`
	Failed    int    `json:"failed"`
	Notified  int    `json:"notified"`
}

// Orchestrator runs the batch valuation job: fetch extracts, derive
// signals, compose the value index, persist, and flag significant value
// changes.
type Orchestrator struct {
	store     Persister
	extractor Extractor
	cfg       config.ValuationConfig
	now       func() time.Time
}

// NewOrchestrator creates an Orchestrator. now may be nil, in which case
// time.Now is used.
func NewOrchestrator(store Persister, extractor Extractor, cfg config.ValuationConfig, now func() time.Time) *Orchestrator {
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{store: store, extractor: extractor, cfg: cfg, now: now}
}

// Run executes one valuation pass over every listing in the store.
func (o *Orchestrator) Run(ctx context.Context) (*JobResult, error) {
	jobID := uuid.New().String()
	log := zap.L().With(zap.String("job_id", jobID))

	zpids, err := o.store.ListListingIDs(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "valuation: list listings")
	}
	if len(zpids) == 0 {
		log.Info("valuation: no listings to process")
		return &JobResult{JobID: jobID}, nil
	}

	extracts, err := o.extractor.FetchExtracts(ctx, zpids)
	if err != nil {
		return nil, eris.Wrap(err, "valuation: fetch extracts")
	}
	log.Info("valuation: extracts fetched",
		zap.Int("listings", len(zpids)),
		zap.Int("extracts", len(extracts)),
	)

	concurrency := o.cfg.MaxParallelExtracts
	if concurrency <= 0 {
		concurrency = 1
	}

	var (
		mu     sync.Mutex
		result = JobResult{JobID: jobID}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, extract := range extracts {
		g.Go(func() error {
			if err := o.processOne(gctx, log, extract, &mu, &result); err != nil {
				// Per-listing failures don't abort the batch.
				log.Warn("valuation: listing failed",
					zap.String("zpid", extract.ZPID),
					zap.Error(err),
				)
				mu.Lock()
				result.Failed++
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "valuation: batch")
	}

	log.Info("valuation: job complete",
		zap.Int("processed", result.Processed),
		zap.Int("failed", result.Failed),
		zap.Int("notified", result.Notified),
	)
	return &result, nil
}

func (o *Orchestrator) processOne(ctx context.Context, log *zap.Logger, extract model.MarketExtract, mu *sync.Mutex, result *JobResult) error {
	signals := Derive(extract, o.cfg, o.now())
	computed := Compute(signals, o.cfg)

	prior, err := o.store.GetValuation(ctx, extract.ZPID)
	if err != nil {
		return eris.Wrap(err, "get prior valuation")
	}

	notified := false
	if prior != nil && math.Abs(computed.ValueIndex-prior.ValueIndex) >= o.cfg.NotifyThreshold {
		// The notifier itself lives outside this job; the log line is the
		// handoff signal.
		log.Info("valuation: significant value change",
			zap.String("zpid", extract.ZPID),
			zap.Float64("previous", prior.ValueIndex),
			zap.Float64("current", computed.ValueIndex),
		)
		notified = true
	}

	if err := o.store.SaveValuation(ctx, extract.ZPID, &computed); err != nil {
		return eris.Wrap(err, "save valuation")
	}

	mu.Lock()
	result.Processed++
	if notified {
		result.Notified++
	}
	mu.Unlock()
	return nil
}
