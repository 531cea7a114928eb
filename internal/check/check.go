// Package check runs one token analysis end to end: validate the mint,
// fan out to the providers, reconcile their contributions and score the
// result.
package check

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"solguard/internal/domain"
	"solguard/internal/observability"
	"solguard/internal/reconcile"
	"solguard/internal/scoring"
	"solguard/internal/sources"
)

// Stage is a pipeline milestone reported through the stage callback.
type Stage string

const (
	StageValidating  Stage = "validating"
	StageMarketData  Stage = "market_data"
	StageHolders     Stage = "holders"
	StageMetadata    Stage = "metadata"
	StageSecurity    Stage = "security"
	StageReconciling Stage = "reconciling"
	StageScoring     Stage = "scoring"
	StageDone        Stage = "done"
)

// StageFunc receives pipeline milestones. Callbacks run on a dedicated
// goroutine so a slow consumer cannot stall the pipeline mid-flight; Run
// waits for outstanding callbacks before returning, so by the time a
// result is in hand every stage has been delivered.
type StageFunc func(Stage)

// Result bundles the reconciled snapshot with its risk assessment.
type Result struct {
	Snapshot   *domain.TokenSnapshot
	Assessment *domain.RiskAssessment
}

// Checker orchestrates one analysis: mint validation, concurrent provider
// fan-out, reconciliation, scoring. It owns no persistence and consults no
// entitlement layer; callers gate access before invoking Run.
type Checker struct {
	market          sources.MarketSource
	holders         sources.HolderSource
	holdersFallback sources.HolderSource
	metadata        sources.MetadataSource
	security        sources.SecuritySource
	scorer          *scoring.Scorer
	log             zerolog.Logger
}

// Options for creating a Checker. Market is the only source reconciliation
// cannot do without; every other source may be nil and degrades to an
// absent contribution.
type Options struct {
	Market          sources.MarketSource
	Holders         sources.HolderSource
	HoldersFallback sources.HolderSource
	Metadata        sources.MetadataSource
	Security        sources.SecuritySource
	Logger          zerolog.Logger
}

// New creates a Checker.
func New(opts Options) *Checker {
	return &Checker{
		market:          opts.Market,
		holders:         opts.Holders,
		holdersFallback: opts.HoldersFallback,
		metadata:        opts.Metadata,
		security:        opts.Security,
		scorer:          scoring.NewScorer(),
		log:             opts.Logger,
	}
}

// Run analyzes one token. Invalid mints fail before any network call;
// a missing market view fails with reconcile.ErrNoMarketData; every other
// provider failure degrades to snapshot defaults.
func (c *Checker) Run(ctx context.Context, rawMint string, onStage StageFunc) (*Result, error) {
	start := time.Now()
	emit := newStageEmitter(onStage)
	defer emit.close()

	emit.send(StageValidating)
	mint, err := domain.ParseMint(rawMint)
	if err != nil {
		observability.RecordCheck("invalid_mint", time.Since(start).Seconds())
		return nil, err
	}

	market, holders, meta, security := c.fetchAll(ctx, mint, emit)

	emit.send(StageReconciling)
	snap, err := reconcile.Build(mint, market, holders, meta, security)
	if err != nil {
		observability.RecordCheck("no_market_data", time.Since(start).Seconds())
		return nil, err
	}

	emit.send(StageScoring)
	assessment := c.scorer.Score(snap)

	emit.send(StageDone)
	observability.RecordCheck("ok", time.Since(start).Seconds())
	observability.RecordScore(assessment.Score, string(assessment.Level))
	observability.MarkSuccessfulCheck(time.Now().Unix())

	c.log.Info().Str("mint", mint.String()).
		Int("score", assessment.Score).
		Str("level", string(assessment.Level)).
		Dur("elapsed", time.Since(start)).
		Msg("token check completed")

	return &Result{Snapshot: snap, Assessment: assessment}, nil
}

// fetchAll runs the four provider branches concurrently and waits for all
// of them. Each branch writes only its own slot; failures are logged and
// leave the slot at its zero value.
func (c *Checker) fetchAll(ctx context.Context, mint domain.Mint, emit *stageEmitter) (*domain.MarketView, int, *domain.TokenMeta, *domain.AuditorView) {
	var (
		wg       sync.WaitGroup
		market   *domain.MarketView
		holders  int
		meta     *domain.TokenMeta
		security *domain.AuditorView
	)

	wg.Add(4)

	emit.send(StageMarketData)
	go func() {
		defer wg.Done()
		if c.market == nil {
			return
		}
		view, err := c.market.Pairs(ctx, mint)
		if err != nil {
			c.log.Warn().Err(err).Str("mint", mint.String()).Msg("market fetch failed")
			return
		}
		market = view
	}()

	emit.send(StageHolders)
	go func() {
		defer wg.Done()
		holders = c.resolveHolders(ctx, mint)
	}()

	emit.send(StageMetadata)
	go func() {
		defer wg.Done()
		if c.metadata == nil {
			return
		}
		m, err := c.metadata.Metadata(ctx, mint)
		if err != nil {
			c.log.Warn().Err(err).Str("mint", mint.String()).Msg("metadata fetch failed")
			return
		}
		meta = m
	}()

	emit.send(StageSecurity)
	go func() {
		defer wg.Done()
		if c.security == nil {
			return
		}
		view, err := c.security.Audit(ctx, mint)
		if err != nil {
			c.log.Warn().Err(err).Str("mint", mint.String()).Msg("security audit failed")
			return
		}
		security = view
	}()

	wg.Wait()
	return market, holders, meta, security
}

// resolveHolders counts holders through the primary source and falls back
// to the secondary one only when the primary yields zero.
func (c *Checker) resolveHolders(ctx context.Context, mint domain.Mint) int {
	count := 0
	if c.holders != nil {
		n, err := c.holders.HolderCount(ctx, mint)
		if err != nil {
			c.log.Warn().Err(err).Str("mint", mint.String()).Msg("holder count failed")
		} else {
			count = n
		}
	}
	if count > 0 || c.holdersFallback == nil {
		return count
	}

	n, err := c.holdersFallback.HolderCount(ctx, mint)
	if err != nil {
		c.log.Warn().Err(err).Str("mint", mint.String()).Msg("fallback holder count failed")
		return count
	}
	if n > 0 {
		c.log.Debug().Str("mint", mint.String()).Int("holders", n).Msg("holder count from fallback source")
	}
	return n
}

// stageEmitter delivers stage events in order without ever blocking the
// pipeline. The buffer always fits the full stage sequence; close drains
// it so all callbacks have returned before the pipeline hands back a
// result.
type stageEmitter struct {
	ch   chan Stage
	done chan struct{}
}

func newStageEmitter(fn StageFunc) *stageEmitter {
	e := &stageEmitter{}
	if fn == nil {
		return e
	}
	e.ch = make(chan Stage, 16)
	e.done = make(chan struct{})
	go func() {
		defer close(e.done)
		for stage := range e.ch {
			fn(stage)
		}
	}()
	return e
}

func (e *stageEmitter) send(stage Stage) {
	if e.ch == nil {
		return
	}
	select {
	case e.ch <- stage:
	default:
	}
}

func (e *stageEmitter) close() {
	if e.ch == nil {
		return
	}
	close(e.ch)
	<-e.done
}
