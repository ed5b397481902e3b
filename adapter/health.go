// Package adapter plugs bulk channels into external health and telemetry systems.
package adapter

import (
	"fmt"

	"github.com/heptiolabs/healthcheck"

	"github.com/srediag/shm-bulk/api"
)

// RegisterHealthChecks adds a liveness and a readiness check for r to h, both
// named after the channel.
func RegisterHealthChecks(h healthcheck.Handler, name string, r api.HealthReporter) {
	h.AddLivenessCheck(fmt.Sprintf("bulkshm-%s-alive", name), healthcheck.Check(r.Alive))
	h.AddReadinessCheck(fmt.Sprintf("bulkshm-%s-ready", name), healthcheck.Check(r.Ready))
}
