package telemetry

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/metrics"
)

// Sink persists one projection of a request trace.
type Sink interface {
	Name() string
	Write(ctx context.Context, trace domain.RequestTrace) error
}

// writeTimeout bounds a single fan-out pass so a stuck sink cannot pin
// the goroutine forever.
const writeTimeout = 10 * time.Second

// Fanout dispatches request traces to every configured sink. A sink
// failure is counted and logged but never interrupts the other sinks
// and never surfaces to the request path.
type Fanout struct {
	sinks  []Sink
	logger *zap.Logger
}

func NewFanout(logger *zap.Logger, sinks ...Sink) *Fanout {
	return &Fanout{
		sinks:  sinks,
		logger: logger,
	}
}

// Dispatch records the trace asynchronously. It returns immediately;
// the write happens on a detached context so request cancellation or
// completion does not abort telemetry.
func (f *Fanout) Dispatch(ctx context.Context, trace domain.RequestTrace) {
	detached := context.WithoutCancel(ctx)

	go func() {
		writeCtx, cancel := context.WithTimeout(detached, writeTimeout)
		defer cancel()

		f.writeAll(writeCtx, sanitizeTrace(trace))
	}()
}

func (f *Fanout) writeAll(ctx context.Context, trace domain.RequestTrace) {
	for _, sink := range f.sinks {
		f.writeOne(ctx, sink, trace)
	}
}

func (f *Fanout) writeOne(ctx context.Context, sink Sink, trace domain.RequestTrace) {
	defer func() {
		if r := recover(); r != nil {
			metrics.TelemetrySinkFailuresTotal.WithLabelValues(sink.Name()).Inc()
			f.logger.Warn("Telemetry sink panicked",
				zap.String("sink", sink.Name()),
				zap.String("request_id", trace.RequestID),
				zap.Any("panic", r),
			)
		}
	}()

	if err := sink.Write(ctx, trace); err != nil {
		metrics.TelemetrySinkFailuresTotal.WithLabelValues(sink.Name()).Inc()
		f.logger.Warn("Telemetry sink write failed",
			zap.String("sink", sink.Name()),
			zap.String("request_id", trace.RequestID),
			zap.Error(err),
		)
	}
}
