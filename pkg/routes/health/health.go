package health

import (
	"context"
	"net/http"
	"sort"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// CheckFunc reports whether one dependency is reachable
type CheckFunc func(ctx context.Context) error

type check struct {
	fn       CheckFunc
	critical bool
}

// Checker serves liveness, readiness and dependency health.
// Critical dependencies (the client store, the session store) make the service unhealthy;
// projection targets such as the lineage graph only degrade it.
type Checker struct {
	checks    map[string]check
	version   string
	startTime time.Time
	timeout   time.Duration
	ready     atomic.Bool
}

func NewChecker(version string) *Checker {
	return &Checker{
		checks:    make(map[string]check),
		version:   version,
		startTime: time.Now(),
		timeout:   5 * time.Second,
	}
}

// AddCheck registers a dependency merges cannot run without. Register all checks before serving.
func (c *Checker) AddCheck(name string, fn CheckFunc) {
	c.checks[name] = check{fn: fn, critical: true}
}

// AddOptionalCheck registers a dependency whose outage only degrades the service
func (c *Checker) AddOptionalCheck(name string, fn CheckFunc) {
	c.checks[name] = check{fn: fn}
}

func (c *Checker) SetReady(ready bool) {
	c.ready.Store(ready)
}

func (c *Checker) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/v1/health", c.Health)
	e.GET("/api/v1/health/live", c.Live)
	e.GET("/api/v1/health/ready", c.Ready)
}

type HealthStatus struct {
	Status     string                  `json:"status"`
	Version    string                  `json:"version"`
	Uptime     string                  `json:"uptime"`
	Checks     map[string]*CheckResult `json:"checks"`
	ReportedAt time.Time               `json:"reported_at"`
}

type CheckResult struct {
	Status   string `json:"status"`
	Critical bool   `json:"critical"`
	Message  string `json:"message,omitempty"`
	Latency  string `json:"latency,omitempty"`
}

// Health answers 503 only when a critical dependency is down
func (c *Checker) Health(ctx echo.Context) error {
	status := c.run(ctx.Request().Context())

	code := http.StatusOK
	if status.Status == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	return ctx.JSON(code, status)
}

func (c *Checker) Live(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "alive"})
}

// Ready flips once startup has finished and back during shutdown
func (c *Checker) Ready(ctx echo.Context) error {
	if c.ready.Load() {
		return ctx.JSON(http.StatusOK, map[string]string{"status": "ready"})
	}
	return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
}

func (c *Checker) runCheck(ctx context.Context, chk check) *CheckResult {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	if err := chk.fn(ctx); err != nil {
		return &CheckResult{Status: StatusUnhealthy, Critical: chk.critical, Message: err.Error()}
	}
	return &CheckResult{Status: StatusHealthy, Critical: chk.critical, Latency: time.Since(start).String()}
}

func (c *Checker) run(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Status:     StatusHealthy,
		Version:    c.version,
		Uptime:     time.Since(c.startTime).Round(time.Second).String(),
		Checks:     make(map[string]*CheckResult, len(c.checks)),
		ReportedAt: time.Now(),
	}

	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		chk := c.checks[name]
		result := c.runCheck(ctx, chk)
		status.Checks[name] = result

		if result.Status == StatusHealthy {
			continue
		}
		if chk.critical {
			status.Status = StatusUnhealthy
		} else if status.Status == StatusHealthy {
			status.Status = StatusDegraded
		}
	}
	return status
}
