// Package metrics emits content job and processing cycle metrics through a statsd.Sink.
package metrics

import (
	"maps"
	"strconv"
	"time"

	obserrors "github.com/target/pressqueue/internal/observability/errors"
	"github.com/target/pressqueue/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultSkipped = "skipped"
)

// JobMetric captures one content job transition.
type JobMetric struct {
	ContentType string
	Transition  string
	Result      string
	Duration    time.Duration
	Err         error
}

// EmitJobLifecycle emits content_job.transition and, when a duration is known, content_job.duration.
func EmitJobLifecycle(sink statsd.Sink, in JobMetric) {
	if sink == nil {
		return
	}
	tags := map[string]string{
		"transition": in.Transition,
		"result":     in.Result,
	}
	if in.ContentType != "" {
		tags["content_type"] = in.ContentType
	}
	if in.Err != nil && in.Result == ResultError {
		tags["error_class"] = obserrors.Classify(in.Err)
	}
	sink.Count("content_job.transition", 1, tags)
	if in.Duration > 0 {
		sink.Timing("content_job.duration", in.Duration, maps.Clone(tags))
	}
}

// CycleMetric summarizes a processing cycle.
type CycleMetric struct {
	Due       int
	Completed int
	Failed    int
	Skipped   bool
	Duration  time.Duration
}

// EmitCycle emits cycle counters, the due gauge and cycle duration.
func EmitCycle(sink statsd.Sink, in CycleMetric) {
	if sink == nil {
		return
	}
	if in.Skipped {
		sink.Count("cycle.run", 1, map[string]string{"result": ResultSkipped})
		return
	}
	sink.Count("cycle.run", 1, map[string]string{"result": ResultSuccess})
	sink.Gauge("cycle.due", float64(in.Due), nil)
	sink.Count("cycle.completed", int64(in.Completed), nil)
	sink.Count("cycle.failed", int64(in.Failed), nil)
	sink.Timing("cycle.duration", in.Duration, map[string]string{"due_bucket": bucket(in.Due)})
}

// EmitReaper records how many rows one reaper task touched.
func EmitReaper(sink statsd.Sink, task string, affected int64, err error) {
	if sink == nil {
		return
	}
	tags := map[string]string{"task": task, "result": ResultSuccess}
	if err != nil {
		tags["result"] = ResultError
		tags["error_class"] = obserrors.Classify(err)
	}
	sink.Count("reaper.rows", affected, tags)
}

func bucket(n int) string {
	switch {
	case n == 0:
		return "0"
	case n <= 10:
		return "1-10"
	case n <= 100:
		return "11-100"
	default:
		return "100+"
	}
}

// FormatCount renders a count for log fields.
func FormatCount(n int) string { return strconv.Itoa(n) }
