package health

import (
	"context"
	"sync"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates every component failed.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// DefaultCheckTimeout bounds each component check.
const DefaultCheckTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Component is one named dependency.
type Component struct {
	Name  string
	Check func(ctx context.Context) error
}

// PingComponent adapts a Pinger.
func PingComponent(name string, p Pinger) Component {
	return Component{Name: name, Check: p.Ping}
}

// ProviderComponent adapts a ProviderChecker.
func ProviderComponent(name string, p ProviderChecker) Component {
	return Component{Name: name, Check: p.HealthCheck}
}

// Service coordinates health checks.
type Service struct {
	components []Component
	timeout    time.Duration
}

// New creates a Service over the given components.
func New(components ...Component) *Service {
	return &Service{components: components, timeout: DefaultCheckTimeout}
}

// Check runs all component checks in parallel.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, len(s.components))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, c := range s.components {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			res := CheckOK
			if err := c.Check(cctx); err != nil {
				res = CheckError
			}
			mu.Lock()
			checks[c.Name] = res
			mu.Unlock()
		}()
	}
	wg.Wait()

	failed := 0
	for _, v := range checks {
		if v == CheckError {
			failed++
		}
	}

	status := Healthy
	switch {
	case failed > 0 && failed == len(checks):
		status = Unhealthy
	case failed > 0:
		status = Degraded
	}
	return Report{Status: status, Checks: checks}
}
