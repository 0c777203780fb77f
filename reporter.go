package catalogsearch

import (
	"context"
	"fmt"
)

// Severity classifies a reported error.
type Severity uint8

const (
	// SeverityWarning marks recoverable faults such as a failed search.
	SeverityWarning Severity = iota
	// SeverityError marks faults the user cannot work around.
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return fmt.Sprintf("severity(%d)", uint8(s))
	}
}

// ErrorReporter receives faults that are shown to the user.
// Search failures are reported once, with SeverityWarning, even when the
// failing session has already been superseded.
type ErrorReporter interface {
	Report(ctx context.Context, err error, severity Severity)
}

// ErrorReporterFunc adapts a function to ErrorReporter.
type ErrorReporterFunc func(ctx context.Context, err error, severity Severity)

// Report calls f(ctx, err, severity).
func (f ErrorReporterFunc) Report(ctx context.Context, err error, severity Severity) {
	f(ctx, err, severity)
}

// LogReporter reports errors to a Logger.
type LogReporter struct {
	Logger *Logger
}

// Report implements ErrorReporter.
func (r LogReporter) Report(ctx context.Context, err error, severity Severity) {
	if r.Logger == nil {
		return
	}
	if severity >= SeverityError {
		r.Logger.ErrorContext(ctx, "an error occurred while searching", "error", err)
		return
	}
	r.Logger.WarnContext(ctx, "an error occurred while searching", "error", err)
}
