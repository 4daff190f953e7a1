package health

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Status values reported per dependency.
const (
	StatusUnknown  = "unknown"
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
)

// Config holds health check configuration.
type Config struct {
	CheckInterval time.Duration
	ProbeTimeout  time.Duration
	FailThreshold int
}

// CheckFunc probes one dependency. A nil error means healthy.
type CheckFunc func(ctx context.Context) error

// MetricsRecordFunc is an optional callback for recording probe results.
type MetricsRecordFunc func(dependency string, success bool)

// DependencyStatus is the last known state of one dependency.
type DependencyStatus struct {
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Critical  bool      `json:"critical"`
	LastError string    `json:"last_error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

type dependency struct {
	name     string
	critical bool
	check    CheckFunc

	failCount int
	state     DependencyStatus
}

// Checker runs periodic probes against the services the server relies on.
// A dependency is reported degraded only after FailThreshold consecutive
// failures, so a single slow probe does not flip /healthz.
type Checker struct {
	mu        sync.Mutex
	deps      []*dependency
	cfg       Config
	onMetrics MetricsRecordFunc
	logger    *zap.Logger
}

// New creates a new Checker.
func New(cfg Config, logger *zap.Logger) *Checker {
	if cfg.CheckInterval == 0 {
		cfg.CheckInterval = 30 * time.Second
	}
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = 5 * time.Second
	}
	if cfg.FailThreshold == 0 {
		cfg.FailThreshold = 3
	}
	return &Checker{cfg: cfg, logger: logger}
}

// Add registers a dependency. A degraded critical dependency makes Healthy
// return false; a non-critical one is only reported.
func (h *Checker) Add(name string, critical bool, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deps = append(h.deps, &dependency{
		name:     name,
		critical: critical,
		check:    check,
		state:    DependencyStatus{Name: name, Status: StatusUnknown, Critical: critical},
	})
}

// SetMetricsRecord configures the metrics recording callback.
func (h *Checker) SetMetricsRecord(fn MetricsRecordFunc) {
	h.onMetrics = fn
}

// Start probes once immediately and then every CheckInterval until ctx is
// cancelled.
func (h *Checker) Start(ctx context.Context) {
	h.CheckAll(ctx)

	ticker := time.NewTicker(h.cfg.CheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			h.CheckAll(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// CheckAll probes every dependency concurrently and records the results.
func (h *Checker) CheckAll(ctx context.Context) {
	h.mu.Lock()
	deps := append([]*dependency(nil), h.deps...)
	h.mu.Unlock()

	var wg sync.WaitGroup
	for _, d := range deps {
		wg.Add(1)
		go func(d *dependency) {
			defer wg.Done()

			pctx, cancel := context.WithTimeout(ctx, h.cfg.ProbeTimeout)
			err := d.check(pctx)
			cancel()

			if h.onMetrics != nil {
				h.onMetrics(d.name, err == nil)
			}
			h.record(d, err)
		}(d)
	}
	wg.Wait()
}

func (h *Checker) record(d *dependency, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	prev := d.state.Status
	d.state.CheckedAt = time.Now().UTC()
	if err == nil {
		d.failCount = 0
		d.state.Status = StatusHealthy
		d.state.LastError = ""
		if prev == StatusDegraded {
			h.logger.Info("health: recovered", zap.String("dependency", d.name))
		}
		return
	}

	d.failCount++
	d.state.LastError = err.Error()
	if d.failCount >= h.cfg.FailThreshold {
		d.state.Status = StatusDegraded
		if prev != StatusDegraded {
			h.logger.Warn("health: degraded",
				zap.String("dependency", d.name),
				zap.Int("fail_count", d.failCount),
				zap.Error(err),
			)
		}
	}
}

// Snapshot returns the current state of every dependency, sorted by name.
func (h *Checker) Snapshot() []DependencyStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]DependencyStatus, 0, len(h.deps))
	for _, d := range h.deps {
		out = append(out, d.state)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Healthy reports whether no critical dependency is degraded.
func (h *Checker) Healthy() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, d := range h.deps {
		if d.critical && d.state.Status == StatusDegraded {
			return false
		}
	}
	return true
}

// HTTPCheck returns a CheckFunc that succeeds on any 2xx response to HEAD,
// falling back to GET for servers that reject HEAD.
func HTTPCheck(client *http.Client, url string) CheckFunc {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context) error {
		status, err := probe(ctx, client, http.MethodHead, url)
		if err == nil && status >= 200 && status < 300 {
			return nil
		}
		status, err = probe(ctx, client, http.MethodGet, url)
		if err != nil {
			return err
		}
		if status < 200 || status >= 300 {
			return fmt.Errorf("%s returned %d", url, status)
		}
		return nil
	}
}

func probe(ctx context.Context, client *http.Client, method, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}
