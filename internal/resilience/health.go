package resilience

import (
	"context"
	"sort"
	"sync"
	"time"
)

// HealthCheckFunc checks one dependency
type HealthCheckFunc func(ctx context.Context) error

// DependencyHealth is the last check result of one dependency
type DependencyHealth struct {
	Name      string    `json:"name"`
	Healthy   bool      `json:"healthy"`
	Required  bool      `json:"required"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
	Latency   string    `json:"latency"`
}

type dependency struct {
	check    HealthCheckFunc
	required bool
}

// HealthRegistry checks the service dependencies. A failing required
// dependency (the database) makes the service unhealthy; optional ones
// (redis, the event broker) only degrade it.
type HealthRegistry struct {
	mu      sync.RWMutex
	deps    map[string]dependency
	timeout time.Duration
}

// NewHealthRegistry creates a registry whose checks each get timeout
func NewHealthRegistry(timeout time.Duration) *HealthRegistry {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HealthRegistry{deps: make(map[string]dependency), timeout: timeout}
}

// Register adds a dependency check
func (r *HealthRegistry) Register(name string, required bool, check HealthCheckFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deps[name] = dependency{check: check, required: required}
}

// Check runs every dependency check concurrently. Status is "ok", "degraded" or
// "unavailable".
func (r *HealthRegistry) Check(ctx context.Context) (string, []DependencyHealth) {
	r.mu.RLock()
	names := make([]string, 0, len(r.deps))
	for name := range r.deps {
		names = append(names, name)
	}
	deps := make(map[string]dependency, len(r.deps))
	for k, v := range r.deps {
		deps[k] = v
	}
	r.mu.RUnlock()
	sort.Strings(names)

	results := make([]DependencyHealth, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string, d dependency) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, r.timeout)
			defer cancel()

			start := time.Now()
			err := d.check(checkCtx)
			h := DependencyHealth{
				Name:      name,
				Healthy:   err == nil,
				Required:  d.required,
				CheckedAt: start.UTC(),
				Latency:   time.Since(start).String(),
			}
			if err != nil {
				h.Error = err.Error()
			}
			results[i] = h
		}(i, name, deps[name])
	}
	wg.Wait()

	status := "ok"
	for _, h := range results {
		if h.Healthy {
			continue
		}
		if h.Required {
			return "unavailable", results
		}
		status = "degraded"
	}
	return status, results
}
