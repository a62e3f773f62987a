package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyCycleID     = "cycle_id"
	KeyPath        = "path"
	KeyMode        = "mode"
	KeyState       = "state"
	KeyVersion     = "version"
	KeyArtifacts   = "artifacts"
	KeyDiagnostics = "diagnostics"
	KeyChanged     = "changed"
	KeyRemoved     = "removed"
	KeyDurationMS  = "duration_ms"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func CycleID(id string) slog.Attr     { return slog.String(KeyCycleID, id) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Mode(m string) slog.Attr         { return slog.String(KeyMode, m) }
func State(s string) slog.Attr        { return slog.String(KeyState, s) }
func Version(v int) slog.Attr         { return slog.Int(KeyVersion, v) }
func Artifacts(n int) slog.Attr       { return slog.Int(KeyArtifacts, n) }
func Diagnostics(n int) slog.Attr     { return slog.Int(KeyDiagnostics, n) }
func Changed(n int) slog.Attr         { return slog.Int(KeyChanged, n) }
func Removed(n int) slog.Attr         { return slog.Int(KeyRemoved, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
