// internal/alerting/dispatcher.go
package alerting

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FairForge/leadscore/internal/drift"
)

const historyLimit = 1000

// severityRank orders drift severities for MinSeverity routing
var severityRank = map[string]int{
	drift.SeverityLow:    1,
	drift.SeverityMedium: 2,
	drift.SeverityHigh:   3,
}

// Channel is one delivery target for drift alerts
type Channel interface {
	Name() string
	Deliver(ctx context.Context, alert drift.Alert) error
}

// RouteConfig binds a severity floor to a set of channels
type RouteConfig struct {
	Name        string   `json:"name"`
	MinSeverity string   `json:"min_severity"`
	Channels    []string `json:"channels"`
}

// Validate checks configuration
func (c *RouteConfig) Validate() error {
	if c.Name == "" {
		return errors.New("alerting: route name is required")
	}
	if _, ok := severityRank[c.MinSeverity]; !ok {
		return fmt.Errorf("alerting: unknown severity %q", c.MinSeverity)
	}
	if len(c.Channels) == 0 {
		return errors.New("alerting: route has no channels")
	}
	return nil
}

// Delivery records one routed alert for the audit trail
type Delivery struct {
	ID          string    `json:"id"`
	AlertID     string    `json:"alert_id"`
	Route       string    `json:"route"`
	Channel     string    `json:"channel"`
	Silenced    bool      `json:"silenced"`
	Error       string    `json:"error,omitempty"`
	DeliveredAt time.Time `json:"delivered_at"`
}

// Dispatcher fans drift alerts out to channels whose routes match the
// alert severity. Model versions can be silenced during planned
// rollouts; silenced alerts still land in the history.
type Dispatcher struct {
	mu       sync.Mutex
	channels map[string]Channel
	routes   []RouteConfig
	silences map[string]time.Time
	history  []Delivery
	logger   *zap.Logger
}

// NewDispatcher creates an empty dispatcher
func NewDispatcher(logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		channels: make(map[string]Channel),
		silences: make(map[string]time.Time),
		logger:   logger,
	}
}

// RegisterChannel adds a delivery target
func (d *Dispatcher) RegisterChannel(ch Channel) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.channels[ch.Name()] = ch
}

// AddRoute adds a severity route. Routes referencing unregistered
// channels are rejected.
func (d *Dispatcher) AddRoute(cfg RouteConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, name := range cfg.Channels {
		if _, ok := d.channels[name]; !ok {
			return fmt.Errorf("alerting: route %s references unknown channel %q", cfg.Name, name)
		}
	}
	d.routes = append(d.routes, cfg)
	return nil
}

// Silence suppresses delivery for a model version until the deadline
func (d *Dispatcher) Silence(modelVersion string, until time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.silences[modelVersion] = until
}

// SendAlert routes one drift alert. Channel failures are logged and
// recorded, never propagated, so one broken channel cannot stall the
// monitor's alert queue.
func (d *Dispatcher) SendAlert(ctx context.Context, alert drift.Alert) error {
	d.mu.Lock()
	silenced := time.Now().Before(d.silences[alert.ModelVersion])
	routes := make([]RouteConfig, len(d.routes))
	copy(routes, d.routes)
	d.mu.Unlock()

	rank := severityRank[alert.Severity]
	for _, route := range routes {
		if rank < severityRank[route.MinSeverity] {
			continue
		}
		for _, name := range route.Channels {
			d.deliver(ctx, route, name, alert, silenced)
		}
	}
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, route RouteConfig, channel string, alert drift.Alert, silenced bool) {
	record := Delivery{
		ID:          uuid.New().String(),
		AlertID:     alert.ID,
		Route:       route.Name,
		Channel:     channel,
		Silenced:    silenced,
		DeliveredAt: time.Now(),
	}

	if !silenced {
		d.mu.Lock()
		ch := d.channels[channel]
		d.mu.Unlock()
		if err := ch.Deliver(ctx, alert); err != nil {
			record.Error = err.Error()
			d.logger.Error("alert delivery failed",
				zap.String("channel", channel),
				zap.String("metric", alert.MetricName),
				zap.Error(err))
		}
	}

	d.mu.Lock()
	d.history = append(d.history, record)
	if len(d.history) > historyLimit {
		d.history = d.history[len(d.history)-historyLimit:]
	}
	d.mu.Unlock()
}

// History returns the most recent deliveries, newest last
func (d *Dispatcher) History(limit int) []Delivery {
	d.mu.Lock()
	defer d.mu.Unlock()
	if limit <= 0 || limit > len(d.history) {
		limit = len(d.history)
	}
	out := make([]Delivery, limit)
	copy(out, d.history[len(d.history)-limit:])
	return out
}

// LogChannel writes alerts as structured log lines. The default
// channel when no pager or webhook integration is configured.
type LogChannel struct {
	logger *zap.Logger
}

// NewLogChannel creates a log-backed channel
func NewLogChannel(logger *zap.Logger) *LogChannel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogChannel{logger: logger}
}

// Name returns the channel identifier
func (c *LogChannel) Name() string { return "log" }

// Deliver logs the alert
func (c *LogChannel) Deliver(_ context.Context, alert drift.Alert) error {
	c.logger.Warn("model drift detected",
		zap.String("model_version", alert.ModelVersion),
		zap.String("metric", alert.MetricName),
		zap.String("severity", alert.Severity),
		zap.Float64("baseline", alert.BaselineValue),
		zap.Float64("observed", alert.ObservedValue),
		zap.Float64("delta", alert.Delta))
	return nil
}
