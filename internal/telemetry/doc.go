// Package telemetry exports outlinectl traces and metrics over OTLP.
//
// The generator and chunk index create spans through the global tracer
// provider, and the completion and embedding clients record OpenTelemetry
// metrics through the global meter provider. New installs SDK providers
// backed by OTLP exporters when telemetry is enabled; otherwise the globals
// stay no-op.
//
//	tel, err := telemetry.New(ctx, cfg.Telemetry, version)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
// Configuration:
//
//	telemetry:
//	  enabled: true
//	  endpoint: "localhost:4317"
//	  protocol: grpc        # or http/protobuf
//	  sample_rate: 1.0
//	  export_interval: 15s
//
// Telemetry failures never fail a command. When a provider cannot be
// created the instance is marked degraded and that signal stays no-op.
//
// Tests use NewTestTelemetry, which records spans and metrics in memory.
package telemetry
