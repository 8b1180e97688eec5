package client

import (
	"fmt"

	metrics "github.com/rcrowley/go-metrics"
)

// Output stream statistics.  Registered on the default registry, keyed by
// segment.
type outputStats struct {
	appendsSent  metrics.Counter
	appendsAcked metrics.Counter
	bytesSent    metrics.Counter
	retransmits  metrics.Counter
	reconnects   metrics.Counter
}

func newOutputStats(segment string) *outputStats {
	r := metrics.DefaultRegistry

	return &outputStats{
		appendsSent:  metrics.GetOrRegisterCounter(newOutputMetric(segment, "AppendsSent"), r),
		appendsAcked: metrics.GetOrRegisterCounter(newOutputMetric(segment, "AppendsAcked"), r),
		bytesSent:    metrics.GetOrRegisterCounter(newOutputMetric(segment, "BytesSent"), r),
		retransmits:  metrics.GetOrRegisterCounter(newOutputMetric(segment, "Retransmits"), r),
		reconnects:   metrics.GetOrRegisterCounter(newOutputMetric(segment, "Reconnects"), r)}
}

func newOutputMetric(segment string, name string) string {
	return fmt.Sprintf("seglog.output.%s.%s", segment, name)
}
