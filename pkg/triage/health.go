package triage

import (
	"context"

	healthuc "github.com/kailas-cloud/triage/internal/usecase/health"
)

// Health is the outcome of Client.Health.
// Status is "ok", "degraded" (keyword search only) or "error" (store unreachable).
// Checks maps "store" and "embedding" to "ok", "error" or "disabled".
type Health struct {
	Status string
	Checks map[string]string
}

type healthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Health probes the store and, when configured, the embedder.
func (c *Client) Health(ctx context.Context) Health {
	report := c.healthSvc.Check(ctx)
	h := Health{Status: string(report.Status), Checks: map[string]string{}}
	for component, res := range report.Checks {
		if component == healthuc.ComponentCache {
			continue
		}
		h.Checks[component] = string(res)
	}
	return h
}
