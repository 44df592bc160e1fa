package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSetupTracingWithoutEndpoint(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), "ideascope-api", "")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestSetupTracingExportsSpans(t *testing.T) {
	var received atomic.Int32
	collector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/traces" {
			received.Add(1)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer collector.Close()

	previous := otel.GetTracerProvider()
	defer otel.SetTracerProvider(previous)

	shutdown, err := SetupTracing(context.Background(), "ideascope-api", collector.URL+"/v1/traces")
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "evaluate")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	require.Positive(t, received.Load())
}
