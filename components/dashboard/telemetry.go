package dashboard

import (
	"context"
	"log/slog"
)

// Telemetry records dashboard events for observability.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

// TelemetryFunc adapts a function into Telemetry.
type TelemetryFunc func(ctx context.Context, event string, payload map[string]any)

// Record calls f.
func (f TelemetryFunc) Record(ctx context.Context, event string, payload map[string]any) {
	f(ctx, event, payload)
}

// MultiTelemetry fans events out to every non-nil sink.
func MultiTelemetry(sinks ...Telemetry) Telemetry {
	active := make([]Telemetry, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			active = append(active, sink)
		}
	}
	return TelemetryFunc(func(ctx context.Context, event string, payload map[string]any) {
		for _, sink := range active {
			sink.Record(ctx, event, payload)
		}
	})
}

// LogTelemetry writes events to logger at debug level.
func LogTelemetry(logger *slog.Logger) Telemetry {
	if logger == nil {
		return noopTelemetry{}
	}
	return TelemetryFunc(func(ctx context.Context, event string, payload map[string]any) {
		attrs := make([]any, 0, len(payload)+1)
		attrs = append(attrs, slog.String("event", event))
		for k, v := range payload {
			attrs = append(attrs, slog.Any(k, v))
		}
		logger.DebugContext(ctx, "dashboard telemetry", attrs...)
	})
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}
