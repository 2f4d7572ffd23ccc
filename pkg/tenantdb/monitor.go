package tenantdb

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Zaaim-Halim/Humano-sub001/pkg/logger"
)

// Monitor periodically health-checks a Registry in the background.
type Monitor struct {
	registry *Registry
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor)

// WithInterval sets the time between two health checks.
func WithInterval(d time.Duration) MonitorOption {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithMonitorLogger sets the logger.
func WithMonitorLogger(logger *slog.Logger) MonitorOption {
	return func(m *Monitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewMonitor creates a monitor for registry. The interval defaults to the
// registry's HealthCheckInterval, or five minutes.
func NewMonitor(registry *Registry, opts ...MonitorOption) (*Monitor, error) {
	if registry == nil {
		return nil, ErrNilRegistry
	}

	m := &Monitor{
		registry: registry,
		interval: registry.config.HealthCheckInterval,
		logger:   slog.Default(),
	}
	if m.interval <= 0 {
		m.interval = 5 * time.Minute
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(logger.Component("tenantdb.monitor"))

	return m, nil
}

// Start runs the health check loop until ctx is done or Stop is called.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		return ErrMonitorAlreadyStarted
	}

	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	go m.run(ctx, m.done)

	m.logger.Info("pool monitor started", slog.Duration("interval", m.interval))
	return nil
}

// Stop ends the loop and waits for a running check to finish.
func (m *Monitor) Stop() error {
	m.mu.Lock()
	if m.cancel == nil {
		m.mu.Unlock()
		return ErrMonitorNotStarted
	}
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	cancel()
	<-done

	m.logger.Info("pool monitor stopped")
	return nil
}

// Run starts the monitor and returns a function suitable for errgroup.
func (m *Monitor) Run(ctx context.Context) func() error {
	return func() error {
		if err := m.Start(ctx); err != nil {
			return err
		}

		<-ctx.Done()

		return m.Stop()
	}
}

// CheckNow runs one health check cycle synchronously.
func (m *Monitor) CheckNow(ctx context.Context) []string {
	start := time.Now()
	evicted := m.registry.HealthCheck(ctx)

	if len(evicted) > 0 {
		m.logger.WarnContext(ctx, "evicted unhealthy tenant pools",
			slog.Any("tenants", evicted),
			slog.Int("remaining", m.registry.Count()),
			slog.Duration("duration", time.Since(start)))
	} else {
		m.logger.DebugContext(ctx, "tenant pools healthy",
			slog.Int("pools", m.registry.Count()),
			slog.Duration("duration", time.Since(start)))
	}
	return evicted
}

func (m *Monitor) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CheckNow(ctx)
		}
	}
}
