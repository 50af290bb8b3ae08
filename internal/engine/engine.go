package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/FairForge/leadscore/internal/cache"
	"github.com/FairForge/leadscore/internal/drift"
	"github.com/FairForge/leadscore/internal/experiment"
	"github.com/FairForge/leadscore/internal/features"
	"github.com/FairForge/leadscore/internal/metrics"
	"github.com/FairForge/leadscore/internal/perf"
	"github.com/FairForge/leadscore/internal/scoring"
)

// Config configures the scoring engine
type Config struct {
	CacheTTL       time.Duration `yaml:"cache_ttl"`
	CacheRetention time.Duration `yaml:"cache_retention"`
	SweepInterval  time.Duration `yaml:"sweep_interval"`
	BatchWorkers   int           `yaml:"batch_workers"`
	BatchQueue     int           `yaml:"batch_queue"`
	Drift          drift.Config  `yaml:"drift"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		CacheTTL:       cache.DefaultTTL,
		CacheRetention: cache.DefaultRetention,
		SweepInterval:  cache.DefaultSweepInterval,
		BatchWorkers:   16,
		BatchQueue:     1024,
		Drift:          drift.DefaultConfig(),
	}
}

// ApplyDefaults fills in zero values
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if c.CacheTTL == 0 {
		c.CacheTTL = defaults.CacheTTL
	}
	if c.CacheRetention == 0 {
		c.CacheRetention = defaults.CacheRetention
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = defaults.SweepInterval
	}
	if c.BatchWorkers == 0 {
		c.BatchWorkers = defaults.BatchWorkers
	}
	if c.BatchQueue == 0 {
		c.BatchQueue = defaults.BatchQueue
	}
	c.Drift.ApplyDefaults()
}

// batchItem is one unit of batch scoring work
type batchItem struct {
	snapshot     *features.LeadSnapshot
	experimentID string
}

// Engine wires feature extraction, variant assignment, ensemble scoring,
// caching, and drift monitoring behind the two scoring entry points.
// Single-lead scoring runs inline on the caller's goroutine; batch
// scoring fans out over its own bounded pool so bulk load cannot starve
// the real-time path.
type Engine struct {
	cfg         Config
	extractor   *features.Extractor
	scorer      *scoring.Scorer
	registry    *scoring.Registry
	cache       *cache.ScoreCache
	experiments *experiment.Manager
	monitor     *drift.Monitor
	latency     *metrics.LatencyTracker
	batchPool   *perf.Pool[batchItem, *scoring.ScoredResult]
	logger      *zap.Logger

	alertSink AlertSink
	trainer   TrainingService
	store     SnapshotStore

	mu            sync.Mutex
	requests      int64
	confidenceSum float64
}

// New creates a scoring engine. The alert sink and training service are
// optional; without them drift output is logged and dropped.
func New(cfg Config, alertSink AlertSink, trainer TrainingService, logger *zap.Logger) *Engine {
	cfg.ApplyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}

	strategies := scoring.DefaultStrategies()
	scorer := scoring.NewScorer(strategies, logger)

	e := &Engine{
		cfg:         cfg,
		extractor:   features.NewExtractor(logger),
		scorer:      scorer,
		registry:    scoring.NewRegistry(scorer.StrategyNames(), logger),
		cache:       cache.NewScoreCache(cfg.CacheRetention, logger),
		experiments: experiment.NewManager(logger),
		monitor:     drift.NewMonitor(cfg.Drift, logger),
		latency:     metrics.NewLatencyTracker(),
		logger:      logger,
		alertSink:   alertSink,
		trainer:     trainer,
	}
	e.batchPool = perf.NewPool(&perf.PoolConfig{
		WorkerCount: cfg.BatchWorkers,
		QueueSize:   cfg.BatchQueue,
	}, e.scoreItem)
	return e
}

// Start runs the background loops (cache sweep, drift evaluation, alert
// and retrain forwarding) until the context ends.
func (e *Engine) Start(ctx context.Context) {
	go e.cache.Start(ctx, e.cfg.SweepInterval)
	go e.monitor.Start(ctx)
	go e.forwardAlerts(ctx)
	go e.forwardRetrains(ctx)
}

// Close shuts down the batch pool
func (e *Engine) Close() error {
	return e.batchPool.Close()
}

// ScoreSingle scores one lead synchronously on the real-time path. A
// context deadline hit mid-compute degrades to the last-known cached
// value rather than erroring.
func (e *Engine) ScoreSingle(ctx context.Context, snap *features.LeadSnapshot, experimentID string) (*scoring.ScoredResult, error) {
	start := time.Now()
	result, hit, err := e.score(ctx, snap, experimentID)
	duration := time.Since(start)

	switch {
	case err != nil:
		metrics.RecordRequest(metrics.PathSingle, metrics.StatusError, duration)
	case result.Stale:
		metrics.RecordRequest(metrics.PathSingle, metrics.StatusStale, duration)
		metrics.RecordStaleServe()
	default:
		metrics.RecordRequest(metrics.PathSingle, metrics.StatusOK, duration)
	}
	if hit {
		metrics.RecordCacheHit()
	} else if err == nil {
		metrics.RecordCacheMiss()
	}
	e.latency.Record(duration)

	if err != nil {
		return nil, err
	}
	e.observe(result)
	return result, nil
}

// ScoreBatch scores many leads over the batch pool. Results align with
// the input order; a failed item leaves a nil result and its error at
// the same index.
func (e *Engine) ScoreBatch(ctx context.Context, snaps []*features.LeadSnapshot, experimentID string) ([]*scoring.ScoredResult, []error) {
	start := time.Now()
	futures := make([]*perf.Future[*scoring.ScoredResult], len(snaps))
	for i, snap := range snaps {
		futures[i] = e.batchPool.Submit(ctx, batchItem{snapshot: snap, experimentID: experimentID})
	}

	results := make([]*scoring.ScoredResult, len(snaps))
	errs := make([]error, len(snaps))
	failed := 0
	for i, future := range futures {
		results[i], errs[i] = future.Get(ctx)
		if errs[i] != nil {
			failed++
		}
	}

	duration := time.Since(start)
	status := metrics.StatusOK
	if failed > 0 {
		status = metrics.StatusError
	}
	metrics.RecordRequest(metrics.PathBatch, status, duration)
	e.logger.Debug("batch scored",
		zap.Int("leads", len(snaps)),
		zap.Int("failed", failed),
		zap.Duration("duration", duration))
	return results, errs
}

// scoreItem adapts the scoring path for the batch pool
func (e *Engine) scoreItem(ctx context.Context, item batchItem) (*scoring.ScoredResult, error) {
	result, _, err := e.score(ctx, item.snapshot, item.experimentID)
	if err != nil {
		return nil, err
	}
	e.observe(result)
	return result, nil
}

// score is the shared extract -> assign -> cache -> ensemble pipeline
func (e *Engine) score(ctx context.Context, snap *features.LeadSnapshot, experimentID string) (*scoring.ScoredResult, bool, error) {
	fv, err := e.extractor.Extract(snap)
	if err != nil {
		return nil, false, err
	}

	mv, err := e.registry.Active()
	if err != nil {
		return nil, false, err
	}

	variantID := ""
	if experimentID != "" {
		variantID, err = e.experiments.AssignVariant(snap.LeadID, experimentID)
		if err != nil {
			return nil, false, fmt.Errorf("assigning variant: %w", err)
		}
	}

	fp := cache.Fingerprint(snap.LeadID, fv, mv.Version, variantID)
	result, hit, err := e.cache.GetOrCompute(ctx, fp, func(ctx context.Context) (*scoring.ScoredResult, error) {
		scored, scoreErr := e.scorer.Score(snap.LeadID, fv, mv)
		if scoreErr != nil {
			return nil, scoreErr
		}
		scored.VariantID = variantID
		return scored, nil
	}, e.cfg.CacheTTL)
	if err != nil {
		return nil, false, err
	}
	return result, hit, nil
}

// observe feeds a fresh result into drift monitoring and the accuracy
// accumulator. Stale serves are availability fallbacks, not model
// output, and are excluded.
func (e *Engine) observe(result *scoring.ScoredResult) {
	if result.Stale {
		return
	}
	e.monitor.Record(result)

	e.mu.Lock()
	e.requests++
	e.confidenceSum += result.Confidence
	e.mu.Unlock()
}

// forwardAlerts drains the monitor's alert queue into the sink
func (e *Engine) forwardAlerts(ctx context.Context) {
	for {
		select {
		case alert := <-e.monitor.Alerts():
			metrics.RecordDriftAlert(alert.Severity)
			if e.alertSink == nil {
				continue
			}
			if err := e.alertSink.SendAlert(ctx, alert); err != nil {
				e.logger.Error("failed to deliver drift alert",
					zap.String("metric", alert.MetricName),
					zap.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}

// forwardRetrains hands retrain requests to the training service
func (e *Engine) forwardRetrains(ctx context.Context) {
	for {
		select {
		case req := <-e.monitor.Retrains():
			metrics.RecordRetrainRequest()
			if e.trainer == nil {
				e.logger.Warn("no training service configured, dropping retrain request",
					zap.String("model_version", req.ModelVersion))
				continue
			}
			if err := e.trainer.RequestRetrain(ctx, req); err != nil {
				e.logger.Error("failed to request retrain",
					zap.String("model_version", req.ModelVersion),
					zap.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}
