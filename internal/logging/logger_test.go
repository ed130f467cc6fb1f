package logging

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// TestFieldHelpers tests the Field constructor functions.
func TestFieldHelpers(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		key   string
		value any
	}{
		{"String", String("op", "multiply"), "op", "multiply"},
		{"Int", Int("limbs", 8), "limbs", 8},
		{"Uint64", Uint64("bytes", 12345678901234567890), "bytes", uint64(12345678901234567890)},
		{"Float64", Float64("ratio", 0.5), "ratio", 0.5},
		{"Err nil", Err(nil), "error", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.field.Key != tt.key {
				t.Errorf("Key = %q, want %q", tt.field.Key, tt.key)
			}
			if tt.field.Value != tt.value {
				t.Errorf("Value = %v, want %v", tt.field.Value, tt.value)
			}
		})
	}

	t.Run("Err keeps the error value", func(t *testing.T) {
		testErr := errors.New("budget exhausted")
		if f := Err(testErr); f.Key != "error" || f.Value != testErr {
			t.Errorf("Err() = %+v", f)
		}
	})
}

// TestNewLogger tests the component-tagged constructor.
func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "allocator")
	logger.Info("grow", Int("limbs", 4))

	output := buf.String()
	for _, want := range []string{"allocator", "grow", `"limbs":4`} {
		if !strings.Contains(output, want) {
			t.Errorf("output should contain %q, got: %s", want, output)
		}
	}
}

// TestNewLevelLogger checks level filtering and level parsing errors.
func TestNewLevelLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLevelLogger(&buf, "batch", "error")
	if err != nil {
		t.Fatalf("NewLevelLogger: %v", err)
	}
	logger.Info("hidden")
	logger.Debug("hidden too")
	if buf.Len() != 0 {
		t.Errorf("info/debug should be filtered at error level, got: %s", buf.String())
	}
	logger.Error("shown", errors.New("boom"))
	if !strings.Contains(buf.String(), "boom") {
		t.Errorf("error event missing, got: %s", buf.String())
	}

	if _, err := NewLevelLogger(&buf, "batch", "loud"); err == nil {
		t.Error("expected an error for an unknown level")
	}
}

// TestZerologAdapter_Error tests the Error method.
func TestZerologAdapter_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		fields   []Field
		contains []string
	}{
		{"with error", errors.New("rejected"), nil, []string{"alloc failed", "rejected", "error"}},
		{"with nil error", nil, nil, []string{"alloc failed", "error"}},
		{"with error and fields", errors.New("limit"), []Field{Uint64("requested", 64)}, []string{"limit", "requested", "64"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewLogger(&buf, "test").Error("alloc failed", tt.err, tt.fields...)
			for _, want := range tt.contains {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("output should contain %q, got: %s", want, buf.String())
				}
			}
		})
	}
}

// TestZerologAdapter_Debug tests the Debug method.
func TestZerologAdapter_Debug(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologAdapter(zerolog.New(&buf).Level(zerolog.DebugLevel))
	logger.Debug("erase", Int("bytes", 32))

	if !strings.Contains(buf.String(), "erase") || !strings.Contains(buf.String(), "debug") {
		t.Errorf("unexpected debug output: %s", buf.String())
	}
}

// TestZerologAdapter_PrintfPrintln tests the printf-style helpers.
func TestZerologAdapter_PrintfPrintln(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "test")

	logger.Printf("width %d limbs", 3)
	logger.Println("hello", "world")

	output := buf.String()
	if !strings.Contains(output, "width 3 limbs") {
		t.Errorf("Printf should format message, got: %s", output)
	}
	if !strings.Contains(output, "hello world") {
		t.Errorf("Println should join arguments, got: %s", output)
	}
}

// TestZerologAdapter_applyFields tests field application with all supported types.
func TestZerologAdapter_applyFields(t *testing.T) {
	tests := []struct {
		name     string
		field    Field
		contains string
	}{
		{"string field", Field{Key: "str", Value: "hello"}, "hello"},
		{"int field", Field{Key: "num", Value: 42}, "42"},
		{"int64 field", Field{Key: "big", Value: int64(9223372036854775807)}, "9223372036854775807"},
		{"uint64 field", Field{Key: "huge", Value: uint64(18446744073709551615)}, "18446744073709551615"},
		{"float64 field", Field{Key: "pi", Value: 3.14}, "3.14"},
		{"error field", Field{Key: "err", Value: errors.New("oops")}, "oops"},
		{"bool field", Field{Key: "locked", Value: true}, "true"},
		{"interface field", Field{Key: "data", Value: struct{ X int }{X: 1}}, "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewLogger(&buf, "test").Info("test", tt.field)
			if !strings.Contains(buf.String(), tt.contains) {
				t.Errorf("applyFields should handle %s, output: %s", tt.name, buf.String())
			}
		})
	}
}

// TestStdLoggerAdapter tests the standard library adapter.
func TestStdLoggerAdapter(t *testing.T) {
	tests := []struct {
		name     string
		log      func(l Logger)
		contains []string
	}{
		{
			name:     "info with fields",
			log:      func(l Logger) { l.Info("grow", Int("limbs", 2)) },
			contains: []string{"[INFO]", "grow", "limbs=2"},
		},
		{
			name:     "debug",
			log:      func(l Logger) { l.Debug("trace", Int("line", 42)) },
			contains: []string{"[DEBUG]", "trace", "line=42"},
		},
		{
			name:     "error",
			log:      func(l Logger) { l.Error("failed", errors.New("boom"), String("op", "mul")) },
			contains: []string{"[ERROR]", "failed", "boom", "op=mul"},
		},
		{
			name:     "printf",
			log:      func(l Logger) { l.Printf("value is %d", 123) },
			contains: []string{"value is 123"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(NewStdLoggerAdapter(log.New(&buf, "", 0)))
			for _, want := range tt.contains {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("output should contain %q, got: %s", want, buf.String())
				}
			}
		})
	}
}

// TestLoggerInterface verifies all adapters implement the Logger interface.
func TestLoggerInterface(t *testing.T) {
	var buf bytes.Buffer
	var _ Logger = NewLogger(&buf, "test")
	var _ Logger = NewStdLoggerAdapter(log.New(&buf, "", 0))
	var _ Logger = NewNopLogger()
	var _ Logger = NewDefaultLogger()
}
