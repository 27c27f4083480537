package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestRead(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{
			name:     "read all (0)",
			maxLines: 0,
			expected: expectedAll,
		},
		{
			name:     "read all (negative)",
			maxLines: -1,
			expected: expectedAll,
		},
		{
			name:     "read partial (5)",
			maxLines: 5,
			expected: expectedAll[5:],
		},
		{
			name:     "read exactly all (10)",
			maxLines: 10,
			expected: expectedAll,
		},
		{
			name:     "read more than exists (20)",
			maxLines: 20,
			expected: expectedAll,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "nope.log"), 10)
	if err != nil {
		t.Fatalf("Read() error = %v, want nil", err)
	}
	if got != nil {
		t.Fatalf("Read() = %v, want nil", got)
	}
}

func TestParse(t *testing.T) {
	line := `{"level":"warn","ts":"2025-10-08T21:01:05.000Z","logger":"harmonic.httpclient","msg":"retrying request","status":503,"attempt":1,"url":"http://x/api/universes"}`
	e := Parse(line)

	if e.Level != "WARN" || e.Logger != "harmonic.httpclient" || e.Message != "retrying request" {
		t.Fatalf("Parse() = %#v", e)
	}
	want := time.Date(2025, 10, 8, 21, 1, 5, 0, time.UTC)
	if !e.Time.Equal(want) {
		t.Fatalf("Time = %v, want %v", e.Time, want)
	}
	keys := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		keys = append(keys, f.Key)
	}
	if !reflect.DeepEqual(keys, []string{"attempt", "status", "url"}) {
		t.Fatalf("field keys = %v, want sorted extras", keys)
	}
}

func TestParse_EpochTimestamp(t *testing.T) {
	e := Parse(`{"level":"info","ts":1700000000.5,"msg":"x"}`)
	if e.Time.Unix() != 1700000000 {
		t.Fatalf("Time = %v, want unix 1700000000", e.Time)
	}
}

func TestParse_PlainText(t *testing.T) {
	e := Parse("panic: something broke")
	if e.Level != "" || e.Message != "panic: something broke" {
		t.Fatalf("Parse() = %#v", e)
	}
	if got := Format(e); got != "panic: something broke" {
		t.Fatalf("Format() = %q, want raw line", got)
	}
}

func TestFormat(t *testing.T) {
	e := Entry{
		Level:   "INFO",
		Logger:  "harmonic.actions",
		Message: "signed in",
		Fields:  []Field{{Key: "user_id", Value: "4"}},
	}
	if got := Format(e); got != "INFO  actions  signed in  user_id=4" {
		t.Fatalf("Format() = %q", got)
	}
}
