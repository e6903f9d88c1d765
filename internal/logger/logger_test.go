package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func fixedClock() time.Time {
	return time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
}

func TestLogger_Log(t *testing.T) {
	var buf bytes.Buffer
	logger := New(LevelInfo, &buf)
	logger.now = fixedClock

	tests := []struct {
		name    string
		level   Level
		message string
		fields  Fields
		err     error
		want    bool // should log
	}{
		{
			name:    "info message",
			level:   LevelInfo,
			message: "Getting info for department",
			fields:  Fields{"department": "Newark PD"},
			want:    true,
		},
		{
			name:    "debug below threshold",
			level:   LevelDebug,
			message: "field group not found",
			want:    false,
		},
		{
			name:    "error with err",
			level:   LevelError,
			message: "writing csv",
			err:     errors.New("disk full"),
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := buf.Len()

			logger.log(tt.level, tt.message, tt.fields, tt.err)

			logged := buf.Len() > before
			if logged != tt.want {
				t.Errorf("log() logged = %v, want %v", logged, tt.want)
			}
		})
	}
}

func TestLogger_EntryShape(t *testing.T) {
	var buf bytes.Buffer
	logger := New(LevelDebug, &buf)
	logger.now = fixedClock

	logger.Error("incident scrape failed", Fields{"department": "Camden County PD"}, errors.New("timeout"))

	var entry LogEntry
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("Unmarshal() error = %v (line %q)", err, buf.String())
	}

	if entry.Timestamp != "2026-01-01T12:00:00Z" {
		t.Errorf("Timestamp = %q", entry.Timestamp)
	}
	if entry.Level != "ERROR" {
		t.Errorf("Level = %q, want ERROR", entry.Level)
	}
	if entry.Error != "timeout" {
		t.Errorf("Error = %q, want timeout", entry.Error)
	}
	if entry.Fields["department"] != "Camden County PD" {
		t.Errorf("Fields[department] = %v", entry.Fields["department"])
	}
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name      string
		minLevel  Level
		logLevel  Level
		shouldLog bool
	}{
		{"debug logs at debug", LevelDebug, LevelDebug, true},
		{"info logs at debug", LevelDebug, LevelInfo, true},
		{"debug doesn't log at info", LevelInfo, LevelDebug, false},
		{"warn doesn't log at error", LevelError, LevelWarn, false},
		{"error always logs", LevelDebug, LevelError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			New(tt.minLevel, &buf).log(tt.logLevel, "test", nil, nil)

			if logged := buf.Len() > 0; logged != tt.shouldLog {
				t.Errorf("shouldLog = %v, want %v", logged, tt.shouldLog)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{" INFO ", LevelInfo, false},
		{"Warn", LevelWarn, false},
		{"error", LevelError, false},
		{"trace", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMetrics_Counter(t *testing.T) {
	m := NewMetrics()

	m.IncrCounter("departments.scraped")
	m.IncrCounter("departments.scraped")
	m.AddCounter("incidents.rows", 250)

	snap := m.Snapshot()
	if snap.Counters["departments.scraped"] != 2 {
		t.Errorf("departments.scraped = %d, want 2", snap.Counters["departments.scraped"])
	}
	if snap.Counters["incidents.rows"] != 250 {
		t.Errorf("incidents.rows = %d, want 250", snap.Counters["incidents.rows"])
	}

	names := snap.CounterNames()
	if strings.Join(names, ",") != "departments.scraped,incidents.rows" {
		t.Errorf("CounterNames() = %v", names)
	}
}

func TestMetrics_Timing(t *testing.T) {
	m := NewMetrics()

	m.RecordTiming("department.scrape", 100*time.Millisecond)
	m.RecordTiming("department.scrape", 200*time.Millisecond)
	m.RecordTiming("department.scrape", 150*time.Millisecond)

	stats := m.Snapshot().Timings["department.scrape"]
	if stats.Count != 3 {
		t.Errorf("Count = %d, want 3", stats.Count)
	}
	if stats.Min != 100*time.Millisecond {
		t.Errorf("Min = %v, want 100ms", stats.Min)
	}
	if stats.Max != 200*time.Millisecond {
		t.Errorf("Max = %v, want 200ms", stats.Max)
	}
	if stats.Average != 150*time.Millisecond {
		t.Errorf("Average = %v, want 150ms", stats.Average)
	}
}

func TestMetrics_Reset(t *testing.T) {
	m := NewMetrics()
	m.IncrCounter("x")
	m.RecordTiming("y", time.Second)

	m.Reset()

	snap := m.Snapshot()
	if len(snap.Counters) != 0 || len(snap.Timings) != 0 {
		t.Errorf("Snapshot() after Reset = %+v, want empty", snap)
	}
}

func TestPackageLevelFunctions(t *testing.T) {
	var buf bytes.Buffer
	prev := Default()
	SetDefault(New(LevelDebug, &buf))
	defer SetDefault(prev)

	Debug("debug", nil)
	Info("info", Fields{"key": "value"})
	Warn("warn", nil)
	Error("error", Fields{"component": "test"}, errors.New("boom"))

	if got := strings.Count(buf.String(), "\n"); got != 4 {
		t.Errorf("wrote %d lines, want 4", got)
	}

	ResetMetrics()
	IncrCounter("test")
	AddCounter("test", 2)
	RecordTiming("test", time.Second)

	snap := MetricsSnapshot()
	if snap.Counters["test"] != 3 {
		t.Errorf("Counters[test] = %d, want 3", snap.Counters["test"])
	}
	ResetMetrics()
}
