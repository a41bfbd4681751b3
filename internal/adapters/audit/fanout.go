package audit

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/target/pressqueue/internal/core"
	"github.com/target/pressqueue/internal/domain/model"
)

// Fanout records each event on every sink concurrently.
type Fanout []core.AuditSink

var _ core.AuditSink = Fanout(nil)

// NewFanout drops nil sinks.
func NewFanout(sinks ...core.AuditSink) Fanout {
	out := make(Fanout, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// Record waits for every sink and returns the first error. A failing sink does not stop the others.
func (f Fanout) Record(ctx context.Context, event model.AuditEvent) error {
	var g errgroup.Group
	for _, sink := range f {
		g.Go(func() error {
			return sink.Record(ctx, event)
		})
	}
	return g.Wait()
}
