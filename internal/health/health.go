package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Check probes one backend dependency.
type Check interface {
	Name() string
	Check(ctx context.Context) Result
}

type Result struct {
	Name     string        `json:"name"`
	Status   Status        `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// Checker runs all registered checks concurrently and aggregates an
// overall status.
type Checker struct {
	checks []Check
	mu     sync.RWMutex
}

func NewChecker() *Checker {
	return &Checker{checks: make([]Check, 0)}
}

func (c *Checker) Register(check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks = append(c.checks, check)
}

func (c *Checker) Check(ctx context.Context) map[string]Result {
	c.mu.RLock()
	checks := make([]Check, len(c.checks))
	copy(checks, c.checks)
	c.mu.RUnlock()

	results := make(map[string]Result)
	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, check := range checks {
		wg.Add(1)
		go func(ch Check) {
			defer wg.Done()
			start := time.Now()
			res := ch.Check(ctx)
			res.Duration = time.Since(start)
			mu.Lock()
			results[ch.Name()] = res
			mu.Unlock()
		}(check)
	}
	wg.Wait()
	return results
}

func (c *Checker) OverallStatus(results map[string]Result) Status {
	hasDegraded := false
	for _, r := range results {
		switch r.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			hasDegraded = true
		}
	}
	if hasDegraded {
		return StatusDegraded
	}
	return StatusHealthy
}

// HTTPHandler serves the aggregated health report. Unhealthy overall
// status maps to 503.
func (c *Checker) HTTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		results := c.Check(ctx)
		overall := c.OverallStatus(results)

		resp := map[string]interface{}{
			"status":    overall,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"checks":    results,
		}

		w.Header().Set("Content-Type", "application/json")
		statusCode := http.StatusOK
		if overall == StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		w.WriteHeader(statusCode)
		json.NewEncoder(w).Encode(resp)
	}
}

// PingCheck probes a backend through its ping function. Slow responses
// beyond the degraded threshold report degraded instead of healthy.
type PingCheck struct {
	name              string
	ping              func(ctx context.Context) error
	degradedThreshold time.Duration
}

func NewPingCheck(name string, degradedThreshold time.Duration, ping func(ctx context.Context) error) *PingCheck {
	return &PingCheck{
		name:              name,
		ping:              ping,
		degradedThreshold: degradedThreshold,
	}
}

func (p *PingCheck) Name() string { return p.name }

func (p *PingCheck) Check(ctx context.Context) Result {
	start := time.Now()
	err := p.ping(ctx)
	duration := time.Since(start)

	res := Result{Name: p.name, Duration: duration}
	switch {
	case err != nil:
		res.Status = StatusUnhealthy
		res.Message = p.name + " connection failed"
		res.Error = err.Error()
	case p.degradedThreshold > 0 && duration > p.degradedThreshold:
		res.Status = StatusDegraded
		res.Message = p.name + " responding slowly"
	default:
		res.Status = StatusHealthy
		res.Message = p.name + " connection healthy"
	}
	return res
}
