package tracing

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitTracer(t *testing.T) {
	t.Run("none exporter", func(t *testing.T) {
		shutdown, err := InitTracer(Options{ServiceName: "video-dispatcher", Exporter: ExporterNone})
		require.NoError(t, err)
		assert.NoError(t, shutdown(context.Background()))
	})

	t.Run("stdout exporter writes spans on shutdown", func(t *testing.T) {
		var buf bytes.Buffer
		shutdown, err := InitTracer(Options{ServiceName: "video-dispatcher", Exporter: ExporterStdout, Writer: &buf})
		require.NoError(t, err)

		_, span := otel.Tracer("test").Start(context.Background(), "dispatcher.DispatchBatch")
		span.End()

		require.NoError(t, shutdown(context.Background()))
		assert.Contains(t, buf.String(), "dispatcher.DispatchBatch")
		assert.Contains(t, buf.String(), "video-dispatcher")
	})

	t.Run("unknown exporter", func(t *testing.T) {
		_, err := InitTracer(Options{Exporter: "jaeger"})
		assert.Error(t, err)
	})
}
