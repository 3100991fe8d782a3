package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fyrsmithlabs/outlined/internal/config"
)

func enabledConfig() config.TelemetryConfig {
	cfg := config.Default().Telemetry
	cfg.Enabled = true
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.TelemetryConfig)
		wantErr string
	}{
		{name: "defaults", mutate: func(*config.TelemetryConfig) {}},
		{name: "disabled skips checks", mutate: func(c *config.TelemetryConfig) {
			c.Enabled = false
			c.Endpoint = ""
		}},
		{name: "http protocol", mutate: func(c *config.TelemetryConfig) { c.Protocol = ProtocolHTTP }},
		{name: "missing endpoint", mutate: func(c *config.TelemetryConfig) { c.Endpoint = "" }, wantErr: "endpoint"},
		{name: "unknown protocol", mutate: func(c *config.TelemetryConfig) { c.Protocol = "udp" }, wantErr: "protocol"},
		{name: "insecure remote", mutate: func(c *config.TelemetryConfig) { c.Endpoint = "otel.example.com:4317" }, wantErr: "insecure"},
		{name: "secure remote", mutate: func(c *config.TelemetryConfig) {
			c.Endpoint = "otel.example.com:4317"
			c.Insecure = false
		}},
		{name: "sample rate", mutate: func(c *config.TelemetryConfig) { c.SampleRate = 1.5 }, wantErr: "sample_rate"},
		{name: "export interval", mutate: func(c *config.TelemetryConfig) { c.ExportInterval = 0 }, wantErr: "export_interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := enabledConfig()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestIsLocalEndpoint(t *testing.T) {
	tests := []struct {
		endpoint string
		want     bool
	}{
		{"localhost:4317", true},
		{"127.0.0.1:4318", true},
		{"http://localhost:4318", true},
		{"[::1]:4317", true},
		{"[::1]", true},
		{"localhost", true},
		{"collector:4317", false},
		{"https://otel.example.com", false},
		{"10.0.0.5:4317", false},
	}

	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			assert.Equal(t, tt.want, isLocalEndpoint(tt.endpoint))
		})
	}
}

func TestNewSampler(t *testing.T) {
	assert.Contains(t, newSampler(1).Description(), "root:AlwaysOnSampler")
	assert.Contains(t, newSampler(0).Description(), "root:AlwaysOffSampler")
	assert.Contains(t, newSampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}

func TestNewResource(t *testing.T) {
	res := newResource("")

	values := map[string]string{}
	for _, attr := range res.Attributes() {
		values[string(attr.Key)] = attr.Value.AsString()
	}
	assert.Equal(t, ServiceName, values["service.name"])
	assert.Equal(t, "dev", values["service.version"])
}

func TestNew_Disabled(t *testing.T) {
	tel, err := New(context.Background(), config.Default().Telemetry, "1.0.0")
	require.NoError(t, err)

	assert.False(t, tel.Enabled())
	degraded, _ := tel.Degraded()
	assert.False(t, degraded)
	assert.NotNil(t, tel.Tracer("test"))
	assert.NotNil(t, tel.Meter("test"))
	assert.NoError(t, tel.ForceFlush(context.Background()))
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := enabledConfig()
	cfg.Endpoint = ""

	tel, err := New(context.Background(), cfg, "1.0.0")
	require.Error(t, err)
	assert.Nil(t, tel)
	assert.Contains(t, err.Error(), "invalid telemetry config")
}

func TestTelemetry_NilSafe(t *testing.T) {
	var tel *Telemetry

	assert.NotPanics(t, func() {
		_ = tel.Tracer("test")
		_ = tel.Meter("test")
		_ = tel.Enabled()
		_, _ = tel.Degraded()
		_ = tel.Shutdown(context.Background())
		_ = tel.ForceFlush(context.Background())
	})
	assert.False(t, tel.Enabled())
}

func TestTestTelemetry_RecordsSpansAndMetrics(t *testing.T) {
	tt := NewTestTelemetry()
	ctx := context.Background()

	_, span := tt.Tracer("outlined.generator").Start(ctx, "generator.Generate")
	span.SetAttributes(attribute.Int("references", 2), attribute.String("kind", "outline"))
	span.End()

	tt.AssertSpanExists(t, "generator.Generate")
	tt.AssertSpanAttribute(t, "generator.Generate", "references", int64(2))
	tt.AssertSpanAttribute(t, "generator.Generate", "kind", "outline")
	assert.Nil(t, tt.SpanByName("missing"))

	counter, err := tt.Meter("outlined.completion").Int64Counter("completion.requests")
	require.NoError(t, err)
	counter.Add(ctx, 3)

	rm, err := tt.Collect(ctx)
	require.NoError(t, err)
	require.Len(t, rm.ScopeMetrics, 1)
	assert.Equal(t, "outlined.completion", rm.ScopeMetrics[0].Scope.Name)
	require.Len(t, rm.ScopeMetrics[0].Metrics, 1)
	assert.Equal(t, "completion.requests", rm.ScopeMetrics[0].Metrics[0].Name)

	shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	assert.NoError(t, tt.Shutdown(shutdownCtx))
}
