package worker

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/aryan0dhankhar/clientdesk/internal/domain"
	"github.com/aryan0dhankhar/clientdesk/internal/observability/metrics"
)

// ErrInjectedOutage is returned by every store call while an outage is active
var ErrInjectedOutage = errors.New("chaos monkey: injected backend outage")

// ChaosMonkey wraps a client store and randomly takes it down for whole
// intervals, so dashboards can be watched failing and recovering against a
// healthy backend. It is a domain.ClientStore itself.
type ChaosMonkey struct {
	store    domain.ClientStore
	logger   *slog.Logger
	interval time.Duration
	random   func() float64

	mu                sync.RWMutex
	outageProbability float64 // 0.0 to 1.0 - chance an interval is an outage
	enabled           bool
	outage            bool
}

// NewChaosMonkey creates a chaos monkey around store
func NewChaosMonkey(
	store domain.ClientStore,
	logger *slog.Logger,
	interval time.Duration,
	outageProbability float64,
) *ChaosMonkey {
	if logger == nil {
		logger = slog.Default()
	}

	return &ChaosMonkey{
		store:             store,
		logger:            logger,
		interval:          interval,
		random:            rand.Float64,
		outageProbability: clampProbability(outageProbability),
		enabled:           false, // Disabled by default - must be explicitly enabled
	}
}

// SetEnabled toggles chaos monkey on/off. Disabling ends any active outage.
func (cm *ChaosMonkey) SetEnabled(enabled bool) {
	cm.mu.Lock()
	cm.enabled = enabled
	if !enabled {
		cm.outage = false
	}
	cm.mu.Unlock()

	status := "disabled"
	if enabled {
		status = "enabled"
	}
	cm.logger.Info("chaos monkey status changed", slog.String("status", status))
}

// SetOutageProbability updates the outage probability at runtime
func (cm *ChaosMonkey) SetOutageProbability(probability float64) {
	cm.mu.Lock()
	cm.outageProbability = clampProbability(probability)
	cm.mu.Unlock()
	cm.logger.Info("chaos monkey outage probability updated",
		slog.Float64("probability", probability),
	)
}

// Start begins the chaos monkey loop
func (cm *ChaosMonkey) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	cm.logger.Info("chaos monkey started",
		slog.Duration("interval", cm.interval),
		slog.Float64("outage_probability", cm.outageProbability),
	)

	for {
		select {
		case <-ctx.Done():
			cm.logger.Info("chaos monkey stopped")
			return
		case <-ticker.C:
			cm.tick()
		}
	}
}

// tick decides whether the next interval is an outage
func (cm *ChaosMonkey) tick() {
	cm.mu.Lock()
	if !cm.enabled {
		cm.mu.Unlock()
		return
	}
	was := cm.outage
	cm.outage = cm.random() < cm.outageProbability
	now := cm.outage
	cm.mu.Unlock()

	switch {
	case now && !was:
		cm.logger.Warn("chaos monkey starting backend outage", slog.Duration("for", cm.interval))
		metrics.ObserveChaos("outage_start")
	case !now && was:
		cm.logger.Info("chaos monkey ending backend outage")
		metrics.ObserveChaos("outage_end")
	}
}

// Outage reports whether calls are currently being rejected
func (cm *ChaosMonkey) Outage() bool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.outage
}

func (cm *ChaosMonkey) reject(op string) error {
	if !cm.Outage() {
		return nil
	}
	cm.logger.Debug("chaos monkey rejected call", slog.String("operation", op))
	metrics.ObserveChaos("rejected_call")
	return ErrInjectedOutage
}

func (cm *ChaosMonkey) List(ctx context.Context) ([]domain.Client, error) {
	if err := cm.reject("list"); err != nil {
		return nil, err
	}
	return cm.store.List(ctx)
}

func (cm *ChaosMonkey) Insert(ctx context.Context, w domain.ClientWrite, createdBy *string) (*domain.Client, error) {
	if err := cm.reject("insert"); err != nil {
		return nil, err
	}
	return cm.store.Insert(ctx, w, createdBy)
}

func (cm *ChaosMonkey) Update(ctx context.Context, id string, w domain.ClientWrite) error {
	if err := cm.reject("update"); err != nil {
		return err
	}
	return cm.store.Update(ctx, id, w)
}

func (cm *ChaosMonkey) Delete(ctx context.Context, id string) error {
	if err := cm.reject("delete"); err != nil {
		return err
	}
	return cm.store.Delete(ctx, id)
}

// Ping is never rejected so readiness keeps reflecting the real backend
func (cm *ChaosMonkey) Ping(ctx context.Context) error {
	return cm.store.Ping(ctx)
}

func clampProbability(p float64) float64 {
	if p < 0.0 {
		return 0.0
	}
	if p > 1.0 {
		return 1.0
	}
	return p
}

var _ domain.ClientStore = (*ChaosMonkey)(nil)
