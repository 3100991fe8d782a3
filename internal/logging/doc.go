// Package logging provides structured logging for the outlined tools.
//
// # Overview
//
// Logger wraps Zap with:
//   - Custom Trace level (-2, below Debug)
//   - Console output on stderr, optionally teed into OpenTelemetry
//   - Automatic context fields (trace_id, request.id, outline.id, reference.id)
//   - Secret redaction by field name and value pattern
//   - Per-level sampling (errors never sampled)
//
// Logs go to stderr because stdout carries command output.
//
// # Usage
//
//	cfg, err := logging.FromSettings("debug", "console", false)
//	if err != nil {
//	    return err
//	}
//	logger, err := logging.NewLogger(cfg, nil)
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
//	ctx = logging.WithOutlineID(ctx, outline.ID)
//	logger.Info(ctx, "segment regenerated", zap.Int("segment.index", 2))
//
// Packages that only need a *zap.Logger receive logger.Underlying().
//
// # Testing
//
//	logger := logging.NewTestLogger()
//	svc := generator.New(..., logger.Logger)
//	logger.AssertLogged(t, zapcore.WarnLevel, "embedding failed")
package logging
