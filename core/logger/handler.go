package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"log/slog"
)

type logFormat int

const (
	formatKV logFormat = iota
	formatJSON
)

type handlerConfig struct {
	level    slog.Leveler
	writer   io.Writer
	format   logFormat
	keyOrder []string
}

// structuredHandler renders records with a deterministic key order in either
// key=value or JSON form.
type structuredHandler struct {
	cfg   handlerConfig
	rank  map[string]int
	attrs []slog.Attr

	mu *sync.Mutex
}

func newStructuredHandler(cfg handlerConfig) *structuredHandler {
	rank := make(map[string]int, len(cfg.keyOrder))
	for i, key := range cfg.keyOrder {
		rank[key] = i
	}
	return &structuredHandler{cfg: cfg, rank: rank, mu: &sync.Mutex{}}
}

func (h *structuredHandler) Enabled(_ context.Context, level slog.Level) bool {
	threshold := slog.LevelInfo
	if h.cfg.level != nil {
		threshold = h.cfg.level.Level()
	}
	return level >= threshold
}

func (h *structuredHandler) Handle(_ context.Context, record slog.Record) error {
	pairs := make([]pair, 0, record.NumAttrs()+len(h.attrs)+3)
	pairs = append(pairs,
		pair{"ts", record.Time.UTC().Format(time.RFC3339Nano)},
		pair{"level", record.Level.String()},
	)
	for _, attr := range h.attrs {
		pairs = appendAttr(pairs, attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		pairs = appendAttr(pairs, attr)
		return true
	})
	if record.Message != "" {
		pairs = append(pairs, pair{"msg", record.Message})
	}

	h.sort(pairs)

	var line []byte
	if h.cfg.format == formatJSON {
		line = renderJSON(pairs)
	} else {
		line = renderKV(pairs)
	}
	line = append(line, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.cfg.writer.Write(line)
	return err
}

func (h *structuredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

func (h *structuredHandler) WithGroup(name string) slog.Handler {
	// Groups are flattened; the key order only knows flat keys.
	return h
}

type pair struct {
	key   string
	value string
}

func appendAttr(pairs []pair, attr slog.Attr) []pair {
	if attr.Equal(slog.Attr{}) {
		return pairs
	}
	value := attr.Value.Resolve()
	if value.Kind() == slog.KindGroup {
		for _, nested := range value.Group() {
			pairs = appendAttr(pairs, nested)
		}
		return pairs
	}
	return append(pairs, pair{attr.Key, value.String()})
}

// sort is a stable insertion sort over the configured rank; unknown keys
// keep their relative order after the known ones.
func (h *structuredHandler) sort(pairs []pair) {
	index := func(key string) int {
		if r, ok := h.rank[key]; ok {
			return r
		}
		return len(h.rank)
	}
	for i := 1; i < len(pairs); i++ {
		for j := i; j > 0 && index(pairs[j].key) < index(pairs[j-1].key); j-- {
			pairs[j], pairs[j-1] = pairs[j-1], pairs[j]
		}
	}
}

func renderKV(pairs []pair) []byte {
	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(p.key)
		b.WriteByte('=')
		b.WriteString(quoteIfNeeded(p.value))
	}
	return []byte(b.String())
}

func renderJSON(pairs []pair) []byte {
	var b strings.Builder
	b.WriteByte('{')
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte(',')
		}
		key, _ := json.Marshal(p.key)
		val, _ := json.Marshal(p.value)
		b.Write(key)
		b.WriteByte(':')
		b.Write(val)
	}
	b.WriteByte('}')
	return []byte(b.String())
}

func quoteIfNeeded(s string) string {
	if s == "" {
		return `""`
	}
	if strings.ContainsAny(s, " \t\n\"=") {
		return fmt.Sprintf("%q", s)
	}
	return s
}
