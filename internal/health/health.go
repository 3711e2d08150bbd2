// Package health serves the liveness, readiness and status endpoints.
package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/georgemunganga/storefront-api/internal/httpx"
)

// DatabaseCheck is the name of the check probing the primary store.
const DatabaseCheck = "database"

// Check probes one dependency. Probe must honour ctx.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

// Checker runs the registered checks.
type Checker struct {
	version string
	timeout time.Duration
	checks  []Check
}

func NewChecker(version string, timeout time.Duration, checks ...Check) *Checker {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Checker{version: version, timeout: timeout, checks: checks}
}

// Run executes every check concurrently and returns the per-check outcome
// ("ok" or the error text) plus the first failure.
func (c *Checker) Run(ctx context.Context) (map[string]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		results = make(map[string]string, len(c.checks))
		g       errgroup.Group
	)
	for _, chk := range c.checks {
		chk := chk
		g.Go(func() error {
			err := chk.Probe(ctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				results[chk.Name] = err.Error()
				return err
			}
			results[chk.Name] = "ok"
			return nil
		})
	}
	err := g.Wait()
	return results, err
}

func (c *Checker) hasDatabase() bool {
	for _, chk := range c.checks {
		if chk.Name == DatabaseCheck {
			return true
		}
	}
	return false
}

func (c *Checker) RegisterRoutes(r chi.Router) {
	r.Get("/", c.root)
	r.Get("/health", c.health)
	r.Get("/healthz", c.live)
	r.Get("/readyz", c.ready)
}

func (c *Checker) root(w http.ResponseWriter, r *http.Request) {
	httpx.Respond(w, http.StatusOK, map[string]string{
		"message": "storefront API is running",
		"status":  "healthy",
		"version": c.version,
	})
}

func (c *Checker) live(w http.ResponseWriter, r *http.Request) {
	httpx.Respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

type readiness struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (c *Checker) ready(w http.ResponseWriter, r *http.Request) {
	results, err := c.Run(r.Context())
	if err != nil {
		httpx.Respond(w, http.StatusServiceUnavailable, readiness{Status: "unavailable", Checks: results})
		return
	}
	httpx.Respond(w, http.StatusOK, readiness{Status: "ready", Checks: results})
}

type status struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// health reports the primary store as healthy, degraded (running on the
// in-process store) or unhealthy. It always answers 200.
func (c *Checker) health(w http.ResponseWriter, r *http.Request) {
	if !c.hasDatabase() {
		httpx.Respond(w, http.StatusOK, status{Status: "degraded", Database: "in-memory", Message: "Running without database"})
		return
	}
	results, _ := c.Run(r.Context())
	if res := results[DatabaseCheck]; res != "ok" {
		httpx.Respond(w, http.StatusOK, status{Status: "unhealthy", Database: "disconnected", Error: res})
		return
	}
	httpx.Respond(w, http.StatusOK, status{Status: "healthy", Database: "connected"})
}
