// Package metrics provides the Prometheus collectors of bonsai-go.
package metrics

// Recorder is the minimal metrics surface components depend on, so tests
// can substitute a fake.
type Recorder interface {
	// RecordOperation counts an operation outcome, e.g. ("tree_create", "success").
	RecordOperation(operation, status string)

	// RecordDuration observes how long an operation took, in seconds.
	RecordDuration(operation string, seconds float64)

	// RecordError counts an error by category, e.g. ("photo_add", "validation").
	RecordError(operation, errorType string)
}
