package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyProject     = "project"
	KeyFacet       = "facet"
	KeyVersion     = "version"
	KeyAction      = "action"
	KeyEventType   = "event_type"
	KeyRuntime     = "runtime"
	KeyOperationID = "operation_id"
	KeyStamp       = "stamp"
	KeyPath        = "path"
	KeyCount       = "count"
	KeyDurationMS  = "duration_ms"
	KeySubject     = "subject"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Project(name string) slog.Attr    { return slog.String(KeyProject, name) }
func Facet(id string) slog.Attr        { return slog.String(KeyFacet, id) }
func Version(v string) slog.Attr       { return slog.String(KeyVersion, v) }
func Action(kind string) slog.Attr     { return slog.String(KeyAction, kind) }
func EventType(t string) slog.Attr     { return slog.String(KeyEventType, t) }
func Runtime(name string) slog.Attr    { return slog.String(KeyRuntime, name) }
func OperationID(id string) slog.Attr  { return slog.String(KeyOperationID, id) }
func Stamp(s string) slog.Attr         { return slog.String(KeyStamp, s) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Subject(s string) slog.Attr       { return slog.String(KeySubject, s) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
