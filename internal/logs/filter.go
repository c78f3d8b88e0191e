package logs

import (
	"encoding/json"
	"log/slog"
	"strings"

	"autosplit/internal/logging"
)

// Filter selects log records. Zero fields match everything.
type Filter struct {
	RunID     string
	Input     string
	Component string
	// MinLevel is compared only when Leveled is set, since the zero
	// slog.Level is info.
	MinLevel slog.Level
	Leveled  bool
}

// ParseLevel maps a level name to a filter threshold. An empty name
// disables level filtering.
func ParseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

func (f Filter) empty() bool {
	return f.RunID == "" && f.Input == "" && f.Component == "" && !f.Leveled
}

// Match reports whether line passes the filter.
func (f Filter) Match(line string) bool {
	if f.empty() {
		return true
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		return false
	}
	field := func(key string) string {
		value, _ := rec[key].(string)
		return value
	}
	if f.RunID != "" && field(logging.FieldRunID) != f.RunID {
		return false
	}
	if f.Input != "" && !strings.Contains(field(logging.FieldInput), f.Input) {
		return false
	}
	if f.Component != "" && field(logging.FieldComponent) != f.Component {
		return false
	}
	if f.Leveled {
		level, ok := ParseLevel(field(slog.LevelKey))
		if !ok || level < f.MinLevel {
			return false
		}
	}
	return true
}
