// Package health exposes liveness and readiness probes for the wizard
// server.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gabrielmiguelok/formwizard/pkg/state"
	"github.com/gabrielmiguelok/formwizard/pkg/wizard"
)

// DefaultCheckTimeout bounds a check that sets no timeout of its own.
const DefaultCheckTimeout = 5 * time.Second

// Status is the health of one check or of the whole service.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

var (
	ErrAtCapacity    = errors.New("live sessions at capacity")
	ErrNoDefinition  = errors.New("no wizard definition loaded")
	ErrStoreMismatch = errors.New("draft store probe read back wrong value")
)

// CheckResult is the outcome of one check.
type CheckResult struct {
	Status     Status `json:"status"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// Report is the outcome of every check.
type Report struct {
	Status    Status                 `json:"status"`
	Checks    map[string]CheckResult `json:"checks"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version,omitempty"`
}

// Check is one named probe. A failing critical check makes the service
// unhealthy; any other failure only degrades it.
type Check struct {
	Name     string
	Fn       func(ctx context.Context) error
	Timeout  time.Duration
	Critical bool
}

// Checker runs checks concurrently.
type Checker struct {
	mu      sync.RWMutex
	checks  []Check
	version string
}

func NewChecker(version string) *Checker {
	return &Checker{version: version}
}

// Add registers a check.
func (hc *Checker) Add(c Check) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks = append(hc.checks, c)
}

// Run executes every check and folds the results.
func (hc *Checker) Run(ctx context.Context) Report {
	hc.mu.RLock()
	checks := append([]Check(nil), hc.checks...)
	version := hc.version
	hc.mu.RUnlock()

	type outcome struct {
		check  Check
		result CheckResult
	}
	results := make(chan outcome, len(checks))

	var wg sync.WaitGroup
	for _, c := range checks {
		wg.Add(1)
		go func(c Check) {
			defer wg.Done()
			timeout := c.Timeout
			if timeout <= 0 {
				timeout = DefaultCheckTimeout
			}
			cctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			start := time.Now()
			err := c.Fn(cctx)
			res := CheckResult{Status: StatusHealthy, DurationMS: time.Since(start).Milliseconds()}
			if err != nil {
				res.Status = StatusUnhealthy
				res.Error = err.Error()
			}
			results <- outcome{check: c, result: res}
		}(c)
	}
	wg.Wait()
	close(results)

	report := Report{
		Status:    StatusHealthy,
		Checks:    make(map[string]CheckResult, len(checks)),
		Timestamp: time.Now(),
		Version:   version,
	}
	for o := range results {
		report.Checks[o.check.Name] = o.result
		if o.result.Status == StatusHealthy {
			continue
		}
		if o.check.Critical {
			report.Status = StatusUnhealthy
		} else if report.Status == StatusHealthy {
			report.Status = StatusDegraded
		}
	}
	return report
}

// LivenessHandler answers 200 while the process serves requests.
func (hc *Checker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "alive", "timestamp": time.Now()})
	})
}

// ReadinessHandler answers 503 when a critical check fails.
func (hc *Checker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		report := hc.Run(r.Context())
		code := http.StatusOK
		if report.Status == StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, report)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// StoreCheck writes, reads back and deletes a probe key in the draft store.
func StoreCheck(store state.Store) func(context.Context) error {
	return func(ctx context.Context) error {
		const key = "health:probe"
		want := []byte(time.Now().UTC().Format(time.RFC3339Nano))
		if err := store.Set(ctx, key, want, time.Minute); err != nil {
			return fmt.Errorf("write probe: %w", err)
		}
		defer store.Delete(context.WithoutCancel(ctx), key)

		got, err := store.Get(ctx, key)
		if err != nil {
			return fmt.Errorf("read probe: %w", err)
		}
		if string(got) != string(want) {
			return ErrStoreMismatch
		}
		return nil
	}
}

// SessionCapacityCheck fails once count reaches max.
func SessionCapacityCheck(count func() int, max int) func(context.Context) error {
	return func(ctx context.Context) error {
		if n := count(); max > 0 && n >= max {
			return fmt.Errorf("%w: %d/%d", ErrAtCapacity, n, max)
		}
		return nil
	}
}

// DefinitionCheck fails when no usable definition is loaded.
func DefinitionCheck(current func() *wizard.Definition) func(context.Context) error {
	return func(ctx context.Context) error {
		if def := current(); def == nil || def.Total() == 0 {
			return ErrNoDefinition
		}
		return nil
	}
}
