package otel

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric/noop"

	"library-desk/internal/infrastructure/config"
)

func TestInitMeter_Disabled(t *testing.T) {
	cfg := &config.OpenTelemetryConfig{
		Enabled: false,
	}

	shutdown, err := InitMeter(cfg, nil)
	assert.NoError(t, err)
	assert.NotNil(t, shutdown)

	// シャットダウン関数がエラーを返さないことを確認
	err = shutdown(context.Background())
	assert.NoError(t, err)
}

func TestInitMeter_Stdout(t *testing.T) {
	cfg := &config.OpenTelemetryConfig{
		Enabled:         true,
		MetricsExporter: "stdout",
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
	}

	shutdown, err := InitMeter(cfg, nil)
	assert.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitMeter_Prometheus(t *testing.T) {
	t.Cleanup(func() { otel.SetMeterProvider(noop.NewMeterProvider()) })

	cfg := &config.OpenTelemetryConfig{
		Enabled:         true,
		MetricsExporter: "prometheus",
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
	}
	registry := prometheus.NewRegistry()

	shutdown, err := InitMeter(cfg, registry)
	require.NoError(t, err)
	defer func() { _ = shutdown(context.Background()) }()

	metrics, err := NewMetrics("test-meter")
	require.NoError(t, err)
	metrics.RecordReturn(context.Background(), ReturnOutcomeSuccess)

	families, err := registry.Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "book_returns_total")
}

func TestInitMeter_PrometheusWithoutRegistry(t *testing.T) {
	cfg := &config.OpenTelemetryConfig{
		Enabled:         true,
		MetricsExporter: "prometheus",
	}

	shutdown, err := InitMeter(cfg, nil)
	assert.Error(t, err)
	assert.Nil(t, shutdown)
}

func TestInitMeter_UnsupportedExporter(t *testing.T) {
	cfg := &config.OpenTelemetryConfig{
		Enabled:         true,
		MetricsExporter: "unsupported",
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
	}

	shutdown, err := InitMeter(cfg, nil)
	assert.Error(t, err)
	assert.Nil(t, shutdown)
	assert.Contains(t, err.Error(), "unsupported metrics exporter")
}
