// Package health provides health checking functionality for the vademecum API.
package health

import (
	"math"
	"net/http"
	"time"

	"github.com/oroya/vademecum-api/data"
	"github.com/oroya/vademecum-api/interfaces"
)

// Compile-time check to ensure HealthCheckerImpl implements the interface
var _ interfaces.HealthChecker = (*HealthCheckerImpl)(nil)

// HealthCheckerImpl reports health from the shared data container.
type HealthCheckerImpl struct {
	container      *data.Container
	staleDownAfter time.Duration
	staleWarnAfter time.Duration
}

// NewHealthChecker creates a health checker. Staleness thresholds derive
// from the refresh interval: degraded past two intervals, unhealthy past
// four.
func NewHealthChecker(container *data.Container, refreshInterval time.Duration) *HealthCheckerImpl {
	return &HealthCheckerImpl{
		container:      container,
		staleWarnAfter: 2 * refreshInterval,
		staleDownAfter: 4 * refreshInterval,
	}
}

// HealthCheck returns HTTP-specific health data.
// Used by the /health endpoint.
func (h *HealthCheckerImpl) HealthCheck() (status string, details map[string]any, httpStatus int) {
	index := h.container.GetIndex()
	state := h.container.GetState()
	lastUpdate := h.container.GetLastUpdated()
	isUpdating := h.container.IsUpdating()
	loadErr := h.container.Err()

	dataAge := time.Since(lastUpdate)

	switch {
	case state == data.StateError:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case len(index) == 0:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case h.container.FullApplied() && dataAge > h.staleDownAfter:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case h.container.FullApplied() && dataAge > h.staleWarnAfter:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	details = map[string]any{
		"state":          string(state),
		"last_update":    lastUpdate.Format(time.RFC3339),
		"data_age_hours": math.Round(dataAge.Hours()*10) / 10,
		"procedures":     len(index),
		"drugs":          len(h.container.GetDrugs()),
		"full_applied":   h.container.FullApplied(),
		"is_updating":    isUpdating,
	}
	if loadErr != nil {
		details["error"] = loadErr.Error()
	}

	return status, details, httpStatus
}
