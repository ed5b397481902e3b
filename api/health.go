package api

// HealthReporter exposes liveness and readiness of a channel endpoint.
type HealthReporter interface {
	// Alive fails once the endpoint has stopped.
	Alive() error
	// Ready fails while the endpoint is stopped or failing repeatedly.
	Ready() error
}
