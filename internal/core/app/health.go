package app

import (
	"context"
	"time"

	"modcheck/internal/shared/observability"
)

// Health reports "up" once a run has succeeded and the latest run did not
// fail, "starting" before the first run and "degraded" after a failure.
func (a *App) Health(ctx context.Context) observability.HealthStatus {
	a.mu.RLock()
	defer a.mu.RUnlock()

	status := observability.HealthStatus{Status: "up", CheckedAt: time.Now().UTC()}
	switch {
	case a.lastErr != nil:
		status.Status = "degraded"
	case a.last == nil:
		status.Status = "starting"
	}
	if a.last != nil {
		status.LastRun = a.last.RunID
		status.Findings = len(a.last.Findings)
	}
	return status
}
