package logging

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// CallLogger records one structured entry per D-Bus method call.
type CallLogger struct {
	*slog.Logger
}

// NewCallLogger wraps l, or the slog default when l is nil.
func NewCallLogger(l *slog.Logger) *CallLogger {
	if l == nil {
		l = slog.Default()
	}
	return &CallLogger{Logger: l}
}

// NewRequestID returns a fresh identifier correlating the entries of a call.
func NewRequestID() string {
	return uuid.NewString()
}

// LogMethod logs a D-Bus method call with its result at debug level.
func (l *CallLogger) LogMethod(ctx context.Context, requestID, sender, method string, args map[string]any, result string, err error) {
	attrs := []slog.Attr{
		slog.String("request_id", requestID),
		slog.String("sender", sender),
		slog.String("method", method),
		slog.String("result", result),
	}
	for k, v := range args {
		attrs = append(attrs, slog.Any(k, v))
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}

	l.LogAttrs(ctx, slog.LevelDebug, "dbus_call", attrs...)
}

// LogGetUserInformation logs an Account.GetUserInformation call.
func (l *CallLogger) LogGetUserInformation(ctx context.Context, requestID, sender, caller, appID string, fields []string, result string, err error) {
	l.LogMethod(ctx, requestID, sender, "GetUserInformation", map[string]any{
		"caller": caller,
		"app_id": appID,
		"fields": fields,
	}, result, err)
}
