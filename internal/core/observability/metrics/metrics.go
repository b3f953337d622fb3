// Package metrics exposes the manipulation counters through the global
// OpenTelemetry meter. Without an installed SDK every instrument is a no-op.
package metrics

import (
	"context"

	"github.com/pkg/errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/zeusync/arview/internal/core/observability/metrics"

// Recorder groups the counters the controller updates.
type Recorder struct {
	intents    metric.Int64Counter
	picks      metric.Int64Counter
	suppressed metric.Int64Counter
}

// New builds a Recorder from the global meter provider.
func New() (*Recorder, error) {
	return NewWithMeter(otel.Meter(instrumentationName))
}

// NewWithMeter builds a Recorder from an explicit meter.
func NewWithMeter(m metric.Meter) (*Recorder, error) {
	r := &Recorder{}
	var err error

	r.intents, err = m.Int64Counter(
		"arview.intents.applied",
		metric.WithDescription("Manipulation intents that changed a transform"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "creating intents counter")
	}

	r.picks, err = m.Int64Counter(
		"arview.picks",
		metric.WithDescription("Pick requests by result"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "creating picks counter")
	}

	r.suppressed, err = m.Int64Counter(
		"arview.gestures.suppressed",
		metric.WithDescription("Gestures ignored because of lock or missing selection"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "creating suppressed counter")
	}

	return r, nil
}

func (r *Recorder) IntentApplied(kind string) {
	if r == nil {
		return
	}
	r.intents.Add(context.Background(), 1, metric.WithAttributes(attribute.String("kind", kind)))
}

func (r *Recorder) Pick(hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.picks.Add(context.Background(), 1, metric.WithAttributes(attribute.String("result", result)))
}

func (r *Recorder) Suppressed(reason string) {
	if r == nil {
		return
	}
	r.suppressed.Add(context.Background(), 1, metric.WithAttributes(attribute.String("reason", reason)))
}
