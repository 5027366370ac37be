package player

import "sync/atomic"

var traceLogEnabled atomic.Bool

// SetTraceLoggingEnabled enables or disables verbose libVLC file logging.
// Call it before the VLC engine connects.
func SetTraceLoggingEnabled(enabled bool) {
	traceLogEnabled.Store(enabled)
}

// isTraceLoggingEnabled reports whether trace logging was requested.
func isTraceLoggingEnabled() bool {
	return traceLogEnabled.Load()
}
