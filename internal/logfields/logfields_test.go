package logfields

import (
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"CycleID", KeyCycleID, "c1", CycleID("c1")},
		{"Path", KeyPath, "docs/a.md", Path("docs/a.md")},
		{"Mode", KeyMode, "full", Mode("full")},
		{"State", KeyState, "degraded", State("degraded")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if got := tc.attr.Value.String(); got != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %v", tc.name, tc.attrVal, got)
		}
	}
}

// TestNumericHelpers verifies keys for numeric & float helpers.
func TestNumericHelpers(t *testing.T) {
	if v := Version(3); v.Key != KeyVersion || v.Value.Int64() != 3 {
		t.Fatalf("Version mismatch: %v", v)
	}
	if v := Artifacts(9); v.Key != KeyArtifacts {
		t.Fatalf("Artifacts key mismatch: %s", v.Key)
	}
	if v := Diagnostics(2); v.Key != KeyDiagnostics {
		t.Fatalf("Diagnostics key mismatch: %s", v.Key)
	}
	if v := Changed(1); v.Key != KeyChanged {
		t.Fatalf("Changed key mismatch: %s", v.Key)
	}
	if v := Removed(1); v.Key != KeyRemoved {
		t.Fatalf("Removed key mismatch: %s", v.Key)
	}
	if v := DurationMS(12.5); v.Key != KeyDurationMS {
		t.Fatalf("DurationMS key mismatch: %s", v.Key)
	}
}

// TestErrorHelper ensures Error() handles nil and non-nil errors predictably.
func TestErrorHelper(t *testing.T) {
	attr := Error(nil)
	if attr.Key != KeyError {
		t.Fatalf("Error key mismatch: %s", attr.Key)
	}
	if attr.Value.String() != "" {
		t.Fatalf("Expected empty error string, got %s", attr.Value.String())
	}
	attr = Error(errTest{})
	if attr.Value.String() != "err-test" {
		t.Fatalf("Expected 'err-test', got %s", attr.Value.String())
	}
}

type errTest struct{}

func (e errTest) Error() string { return "err-test" }
