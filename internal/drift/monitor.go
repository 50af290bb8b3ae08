package drift

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gonum.org/v1/gonum/stat"

	"github.com/FairForge/leadscore/internal/scoring"
)

// Config configures the drift monitor
type Config struct {
	Interval       time.Duration `yaml:"interval"`
	WindowSize     int           `yaml:"window_size"`
	MinWindow      int           `yaml:"min_window"`
	Threshold      float64       `yaml:"threshold"`
	KSThreshold    float64       `yaml:"ks_threshold"`
	HighStreak     int           `yaml:"high_streak"`
	AlertBuffer    int           `yaml:"alert_buffer"`
	AlertCooldown  time.Duration `yaml:"alert_cooldown"`
	RetrainPerHour float64       `yaml:"retrain_per_hour"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Interval:       time.Minute,
		WindowSize:     1000,
		MinWindow:      20,
		Threshold:      0.05,
		KSThreshold:    0.15,
		HighStreak:     3,
		AlertBuffer:    256,
		AlertCooldown:  0,
		RetrainPerHour: 4,
	}
}

// ApplyDefaults fills in zero values
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if c.Interval == 0 {
		c.Interval = defaults.Interval
	}
	if c.WindowSize == 0 {
		c.WindowSize = defaults.WindowSize
	}
	if c.MinWindow == 0 {
		c.MinWindow = defaults.MinWindow
	}
	if c.Threshold == 0 {
		c.Threshold = defaults.Threshold
	}
	if c.KSThreshold == 0 {
		c.KSThreshold = defaults.KSThreshold
	}
	if c.HighStreak == 0 {
		c.HighStreak = defaults.HighStreak
	}
	if c.AlertBuffer == 0 {
		c.AlertBuffer = defaults.AlertBuffer
	}
	if c.RetrainPerHour == 0 {
		c.RetrainPerHour = defaults.RetrainPerHour
	}
}

// versionState is the monitor's per-model-version bookkeeping
type versionState struct {
	baseline   *Baseline
	window     []*scoring.ScoredResult
	state      string
	highStreak int
	lastAlert  map[string]time.Time
}

// Monitor periodically compares the live score distribution against a
// stored baseline and escalates through Stable, Warning, and Degraded.
// It runs on its own single goroutine off the request path; recording a
// sample is a cheap append and evaluation never blocks scoring.
type Monitor struct {
	mu       sync.Mutex
	cfg      Config
	versions map[string]*versionState
	alerts   chan Alert
	retrains chan RetrainRequest
	limiter  *rate.Limiter
	logger   *zap.Logger

	alertsDropped int64
}

// NewMonitor creates a drift monitor
func NewMonitor(cfg Config, logger *zap.Logger) *Monitor {
	cfg.ApplyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		cfg:      cfg,
		versions: make(map[string]*versionState),
		alerts:   make(chan Alert, cfg.AlertBuffer),
		retrains: make(chan RetrainRequest, 16),
		limiter:  rate.NewLimiter(rate.Limit(cfg.RetrainPerHour/3600), 1),
		logger:   logger,
	}
}

// Alerts is the append-only alert stream
func (m *Monitor) Alerts() <-chan Alert { return m.alerts }

// Retrains is the retrain-request stream
func (m *Monitor) Retrains() <-chan RetrainRequest { return m.retrains }

// Record feeds one scored result into the rolling window for its model
// version. Safe to call from request-path goroutines.
func (m *Monitor) Record(result *scoring.ScoredResult) {
	if result == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	vs := m.version(result.ModelVersion)
	vs.window = append(vs.window, result)
	if len(vs.window) > m.cfg.WindowSize {
		vs.window = vs.window[len(vs.window)-m.cfg.WindowSize:]
	}
}

// version returns (creating if needed) the state for a model version.
// Caller holds the lock.
func (m *Monitor) version(modelVersion string) *versionState {
	vs, ok := m.versions[modelVersion]
	if !ok {
		vs = &versionState{state: StateStable, lastAlert: make(map[string]time.Time)}
		m.versions[modelVersion] = vs
	}
	return vs
}

// CaptureBaseline freezes the current window as the comparison baseline
// for a version and resets its state to Stable. Called when a model
// deploys.
func (m *Monitor) CaptureBaseline(modelVersion string) *Baseline {
	m.mu.Lock()
	defer m.mu.Unlock()

	vs := m.version(modelVersion)
	vs.baseline = NewBaseline(modelVersion, vs.window)
	vs.window = nil
	vs.state = StateStable
	vs.highStreak = 0
	m.logger.Info("drift baseline captured",
		zap.String("model_version", modelVersion),
		zap.Int("sample_size", len(vs.baseline.Scores)))
	return vs.baseline
}

// SetBaseline installs a pre-computed baseline (e.g. shipped alongside
// a trained model) and resets the version to Stable.
func (m *Monitor) SetBaseline(b *Baseline) {
	if b == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	vs := m.version(b.ModelVersion)
	vs.baseline = b
	vs.state = StateStable
	vs.highStreak = 0
}

// State reports the drift state for a model version
func (m *Monitor) State(modelVersion string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if vs, ok := m.versions[modelVersion]; ok {
		return vs.state
	}
	return StateStable
}

// Start runs the evaluation loop until the context ends
func (m *Monitor) Start(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Evaluate()
		case <-ctx.Done():
			return
		}
	}
}

// Evaluate runs one comparison pass over every version with a baseline.
// Exposed so operators (and the scheduler) can trigger a pass directly.
func (m *Monitor) Evaluate() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	for modelVersion, vs := range m.versions {
		if vs.baseline == nil || len(vs.window) < m.cfg.MinWindow {
			continue
		}
		m.evaluateVersion(modelVersion, vs, now)
		// Each evaluation consumes its window so consecutive passes
		// compare disjoint samples.
		vs.window = nil
	}
}

func (m *Monitor) evaluateVersion(modelVersion string, vs *versionState, now time.Time) {
	observed := summarize(vs.window)
	windowHigh := false

	check := func(metric string, baseline, current float64) {
		severity, delta, drifted := m.classify(baseline, current)
		if !drifted {
			return
		}
		if severity == SeverityHigh {
			windowHigh = true
		}
		m.emit(vs, Alert{
			ID:            uuid.New().String(),
			MetricName:    metric,
			ModelVersion:  modelVersion,
			BaselineValue: baseline,
			ObservedValue: current,
			Delta:         delta,
			Severity:      severity,
			DetectedAt:    now,
		})
	}

	check(MetricMeanScore, vs.baseline.MeanScore, observed.meanScore)
	check(MetricAccuracyProxy, vs.baseline.AccuracyProxy, observed.accuracyProxy)
	for category, baseMean := range vs.baseline.SubScoreMeans {
		if obsMean, ok := observed.subScoreMeans[category]; ok {
			check(metricSubScorePrefix+category, baseMean, obsMean)
		}
	}

	if ks := ksDistance(vs.baseline.Scores, observed.scores); ks > m.cfg.KSThreshold {
		severity := bandSeverity(ks / m.cfg.KSThreshold)
		if severity == SeverityHigh {
			windowHigh = true
		}
		m.emit(vs, Alert{
			ID:            uuid.New().String(),
			MetricName:    MetricScoreDistribution,
			ModelVersion:  modelVersion,
			BaselineValue: 0,
			ObservedValue: ks,
			Delta:         ks,
			Severity:      severity,
			DetectedAt:    now,
		})
	}

	m.transition(modelVersion, vs, windowHigh)
}

// classify compares one metric against its baseline. Returns the
// severity band, the relative delta, and whether the threshold was
// crossed.
func (m *Monitor) classify(baseline, current float64) (string, float64, bool) {
	if baseline == 0 {
		return "", 0, false
	}
	delta := math.Abs(current-baseline) / math.Abs(baseline)
	if delta <= m.cfg.Threshold {
		return "", delta, false
	}
	return bandSeverity(delta / m.cfg.Threshold), delta, true
}

// bandSeverity escalates by how many multiples of the threshold the
// delta reaches: up to 2x low, up to 4x medium, beyond high.
func bandSeverity(multiple float64) string {
	switch {
	case multiple <= 2:
		return SeverityLow
	case multiple <= 4:
		return SeverityMedium
	default:
		return SeverityHigh
	}
}

// emit publishes an alert without ever blocking the evaluation loop.
// Caller holds the lock.
func (m *Monitor) emit(vs *versionState, alert Alert) {
	if m.cfg.AlertCooldown > 0 {
		if last, ok := vs.lastAlert[alert.MetricName]; ok && alert.DetectedAt.Sub(last) < m.cfg.AlertCooldown {
			return
		}
	}
	vs.lastAlert[alert.MetricName] = alert.DetectedAt

	select {
	case m.alerts <- alert:
	default:
		m.alertsDropped++
		m.logger.Warn("alert buffer full, dropping alert",
			zap.String("metric", alert.MetricName),
			zap.String("severity", alert.Severity))
	}
	m.logger.Info("drift detected",
		zap.String("metric", alert.MetricName),
		zap.String("model_version", alert.ModelVersion),
		zap.Float64("baseline", alert.BaselineValue),
		zap.Float64("observed", alert.ObservedValue),
		zap.String("severity", alert.Severity))
}

// transition advances the per-version state machine:
// Stable -> Warning on a high-severity window, Warning -> Degraded (and a
// retrain request) after the configured streak. A clean window resets
// Warning to Stable; Degraded holds until a fresh baseline is captured
// for the version, normally after a retrain deploys.
func (m *Monitor) transition(modelVersion string, vs *versionState, windowHigh bool) {
	if !windowHigh {
		vs.highStreak = 0
		if vs.state == StateDegraded {
			return
		}
		if vs.state != StateStable {
			m.logger.Info("drift recovered",
				zap.String("model_version", modelVersion),
				zap.String("from", vs.state))
		}
		vs.state = StateStable
		return
	}

	vs.highStreak++
	if vs.state == StateDegraded {
		return
	}
	if vs.highStreak >= m.cfg.HighStreak {
		vs.state = StateDegraded
		m.requestRetrain(modelVersion, vs.highStreak)
		return
	}
	vs.state = StateWarning
}

// requestRetrain hands a retrain signal to the training collaborator,
// rate limited so a flapping metric cannot spam the pipeline.
func (m *Monitor) requestRetrain(modelVersion string, streak int) {
	if !m.limiter.Allow() {
		m.logger.Warn("retrain request suppressed by rate limit",
			zap.String("model_version", modelVersion))
		return
	}
	req := RetrainRequest{
		ID:           uuid.New().String(),
		ModelVersion: modelVersion,
		Reason:       fmt.Sprintf("%d consecutive high-severity drift windows", streak),
		RequestedAt:  time.Now().UTC(),
	}
	select {
	case m.retrains <- req:
		m.logger.Error("model degraded, retrain requested",
			zap.String("model_version", modelVersion),
			zap.Int("streak", streak))
	default:
		m.logger.Warn("retrain buffer full, dropping request",
			zap.String("model_version", modelVersion))
	}
}

// windowSummary aggregates the metrics tracked per evaluation window
type windowSummary struct {
	meanScore     float64
	accuracyProxy float64
	subScoreMeans map[string]float64
	scores        []float64
}

func summarize(window []*scoring.ScoredResult) windowSummary {
	scores := make([]float64, 0, len(window))
	confidences := make([]float64, 0, len(window))
	subTotals := make(map[string]float64)
	subCounts := make(map[string]int)

	for _, r := range window {
		scores = append(scores, r.OverallScore)
		confidences = append(confidences, r.Confidence)
		for category, sub := range r.SubScores {
			subTotals[category] += sub
			subCounts[category]++
		}
	}

	summary := windowSummary{
		meanScore:     stat.Mean(scores, nil),
		accuracyProxy: stat.Mean(confidences, nil),
		subScoreMeans: make(map[string]float64, len(subTotals)),
		scores:        scores,
	}
	for category, total := range subTotals {
		summary.subScoreMeans[category] = total / float64(subCounts[category])
	}
	return summary
}
