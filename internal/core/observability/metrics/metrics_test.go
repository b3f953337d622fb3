package metrics

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestRecorderWithNoopMeter(t *testing.T) {
	r, err := NewWithMeter(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	r.IntentApplied("move")
	r.Pick(true)
	r.Pick(false)
	r.Suppressed("locked")
}

func TestGlobalRecorder(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	require.NotNil(t, r)
}

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	r.IntentApplied("scale")
	r.Pick(true)
	r.Suppressed("no-selection")
}
