package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// Console layout:
//
//	2026-01-02 15:04:05 INFO [extract] Best Of.nrg (direct) #2 - track written
//	    Delivered: 2.0 KiB, Elapsed: 1.2s
//
// Info and above show a bounded set of readable fields; debug records list
// every attribute as key=value.

const (
	consoleFieldLimit = 6
	consoleValueLimit = 160
)

// Keys shown first at info level, in this order.
var consolePriority = []string{
	FieldEventType,
	FieldDecisionType,
	"decision_result",
	"decision_reason",
	"cause",
	"error",
	FieldErrorHint,
	FieldImpact,
	"files",
	"tracks",
	"disc_type",
	"backend",
}

var consoleLabels = map[string]string{
	FieldEventType:    "Event",
	FieldDecisionType: "Decision",
	"decision_result": "Result",
	"decision_reason": "Reason",
	FieldErrorHint:    "Hint",
	"disc_type":       "Disc",
	"delivered_bytes": "Delivered",
	"requested_bytes": "Requested",
	"start_seconds":   "Start",
	"end_seconds":     "End",
}

type field struct {
	key   string
	value slog.Value
}

// consoleSink is shared by every handler derived through WithAttrs/WithGroup.
type consoleSink struct {
	mu        sync.Mutex
	w         io.Writer
	level     *slog.LevelVar
	addSource bool
}

type consoleHandler struct {
	sink   *consoleSink
	preset []field
	prefix string
}

func newConsoleHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &consoleHandler{sink: &consoleSink{w: w, level: lvl, addSource: addSource}}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.sink.level.Level()
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.preset = slices.Clone(h.preset)
	for _, attr := range attrs {
		next.preset = appendField(next.preset, h.prefix, attr)
	}
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	fields := slices.Clone(h.preset)
	record.Attrs(func(attr slog.Attr) bool {
		fields = appendField(fields, h.prefix, attr)
		return true
	})
	fields = lastWins(fields)

	var component string
	var subj subject
	rest := fields[:0:0]
	for _, f := range fields {
		switch f.key {
		case FieldComponent:
			component = plain(f.value)
			continue
		case FieldInput:
			subj.input = plain(f.value)
		case FieldStrategy:
			subj.strategy = plain(f.value)
		case FieldTrack:
			subj.track = plain(f.value)
		}
		rest = append(rest, f)
	}

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	var buf bytes.Buffer
	buf.WriteString(ts.Local().Format(time.DateTime))
	buf.WriteByte(' ')
	buf.WriteString(levelLabel(record.Level))
	if component != "" {
		buf.WriteString(" [" + component + "]")
	}
	if s := subj.String(); s != "" {
		buf.WriteString(" " + s)
	}
	msg := strings.TrimSpace(record.Message)
	if msg == "" {
		msg = "(no message)"
	}
	buf.WriteString(" - " + msg)
	if h.sink.addSource && record.PC != 0 {
		if src := record.Source(); src != nil {
			buf.WriteString(" [" + filepath.Base(src.File) + ":" + strconv.Itoa(src.Line) + "]")
		}
	}
	buf.WriteByte('\n')

	var line string
	if record.Level < slog.LevelInfo {
		line = debugLine(fields)
	} else {
		line = infoLine(rest)
	}
	if line != "" {
		buf.WriteString("    " + line + "\n")
	}

	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()
	_, err := h.sink.w.Write(buf.Bytes())
	return err
}

func debugLine(fields []field) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f.key+"="+quoted(f.value))
	}
	return strings.Join(parts, " ")
}

// infoLine renders priority keys first, then the rest in record order, and
// reports how many fields did not fit.
func infoLine(fields []field) string {
	ordered := make([]field, 0, len(fields))
	for _, key := range consolePriority {
		if i := slices.IndexFunc(fields, func(f field) bool { return f.key == key }); i >= 0 {
			ordered = append(ordered, fields[i])
		}
	}
	for _, f := range fields {
		if !slices.Contains(consolePriority, f.key) {
			ordered = append(ordered, f)
		}
	}

	parts := make([]string, 0, consoleFieldLimit)
	hidden := 0
	for _, f := range ordered {
		if debugOnly(f.key) {
			continue
		}
		if len(parts) == consoleFieldLimit {
			hidden++
			continue
		}
		parts = append(parts, label(f.key)+": "+readable(f.key, f.value))
	}
	if hidden > 0 {
		parts = append(parts, "+"+strconv.Itoa(hidden)+" more")
	}
	return strings.Join(parts, ", ")
}

func debugOnly(key string) bool {
	switch key {
	case FieldInput, FieldStrategy, FieldTrack, FieldRunID, "fingerprint", "args", "chunk_size", "offset_bytes":
		return true
	}
	return strings.HasSuffix(key, "_path") || strings.HasSuffix(key, "_dir")
}

func label(key string) string {
	if l, ok := consoleLabels[key]; ok {
		return l
	}
	words := strings.FieldsFunc(key, func(r rune) bool { return r == '_' || r == '-' || r == '.' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// readable formats a value by kind and key suffix.
func readable(key string, v slog.Value) string {
	switch {
	case strings.HasSuffix(key, "_bytes") && v.Kind() == slog.KindInt64:
		return humanize.IBytes(uint64(max(v.Int64(), 0)))
	case strings.HasSuffix(key, "_bytes") && v.Kind() == slog.KindUint64:
		return humanize.IBytes(v.Uint64())
	case strings.HasSuffix(key, "_seconds") && v.Kind() == slog.KindFloat64:
		return formatSeconds(v.Float64())
	case strings.HasSuffix(key, "_percent") && v.Kind() == slog.KindFloat64:
		return formatPercent(v.Float64())
	case v.Kind() == slog.KindDuration:
		return formatDurationHuman(v.Duration())
	case v.Kind() == slog.KindBool:
		if v.Bool() {
			return "yes"
		}
		return "no"
	}
	s := plain(v)
	if len(s) > consoleValueLimit {
		s = s[:consoleValueLimit] + "..."
	}
	return s
}

// subject is the input/strategy/track triple shown after the component.
type subject struct {
	input    string
	strategy string
	track    string
}

func (s subject) String() string {
	var parts []string
	if input := strings.TrimSpace(s.input); input != "" {
		parts = append(parts, filepath.Base(input))
	}
	if s.strategy != "" {
		parts = append(parts, "("+s.strategy+")")
	}
	if s.track != "" {
		parts = append(parts, "#"+s.track)
	}
	return strings.Join(parts, " ")
}

// appendField flattens attr, joining group names with dots.
func appendField(dst []field, prefix string, attr slog.Attr) []field {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return dst
	}
	if attr.Value.Kind() == slog.KindGroup {
		inner := prefix
		if attr.Key != "" {
			inner += attr.Key + "."
		}
		for _, a := range attr.Value.Group() {
			dst = appendField(dst, inner, a)
		}
		return dst
	}
	return append(dst, field{key: prefix + attr.Key, value: attr.Value})
}

// lastWins drops earlier duplicates of a key, keeping first-seen order.
func lastWins(fields []field) []field {
	if len(fields) < 2 {
		return fields
	}
	index := make(map[string]int, len(fields))
	out := make([]field, 0, len(fields))
	for _, f := range fields {
		if i, ok := index[f.key]; ok {
			out[i].value = f.value
			continue
		}
		index[f.key] = len(out)
		out = append(out, f)
	}
	return out
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
