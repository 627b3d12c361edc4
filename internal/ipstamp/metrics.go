package ipstamp

// Metrics records stamping outcomes.
//
// Implementations must be safe for concurrent use.
type Metrics interface {
	// RecordWrite is called after a lifecycle event stamped count attributes.
	RecordWrite(ev Event, source string, count int)
	// RecordTouch is called after a successful Touch of count attributes.
	RecordTouch(source string, count int)
}

// noopMetrics is the default Metrics implementation when metrics are not configured.
type noopMetrics struct{}

func (noopMetrics) RecordWrite(Event, string, int) {}

func (noopMetrics) RecordTouch(string, int) {}
