package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"log/slog"
)

func newTestLogger(buf *bytes.Buffer, format logFormat) *slog.Logger {
	return slog.New(newStructuredHandler(handlerConfig{
		level:    slog.LevelDebug,
		writer:   buf,
		format:   format,
		keyOrder: defaultKeyOrder(),
	}))
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	log := newTestLogger(buf, formatKV).With("component", "reaction")

	log.LogAttrs(context.Background(), slog.LevelInfo, "",
		slog.String("event", "dispatch.route"),
		slog.String("status", "ok"),
		slog.String("message_id", "42"),
	)

	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatal("expected log line")
	}
	tokens := strings.Split(line, " ")
	expected := []string{"ts=", "level=INFO", "component=reaction", "event=dispatch.route", "status=ok", "message_id=42"}
	if len(tokens) != len(expected) {
		t.Fatalf("token count = %d (%s), want %d", len(tokens), line, len(expected))
	}
	for i, prefix := range expected {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, expected prefix %s", i, tokens[i], prefix)
		}
	}
}

func TestStructuredHandlerJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	log := newTestLogger(buf, formatJSON).With("component", "component")

	log.LogAttrs(context.Background(), slog.LevelError, "",
		slog.String("event", "dispatch.fail"),
		slog.String("err", "boom"),
	)

	line := strings.TrimSpace(buf.String())
	if !strings.HasPrefix(line, "{") {
		t.Fatalf("expected JSON, got %s", line)
	}
	var decoded map[string]string
	if err := json.Unmarshal([]byte(line), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded["event"] != "dispatch.fail" || decoded["err"] != "boom" {
		t.Fatalf("unexpected payload: %s", line)
	}
	// err is ordered after the domain keys.
	if !strings.HasSuffix(line, `"err":"boom"}`) {
		t.Fatalf("err not last: %s", line)
	}
}

func TestStructuredHandlerQuotesValues(t *testing.T) {
	buf := &bytes.Buffer{}
	log := newTestLogger(buf, formatKV)

	log.LogAttrs(context.Background(), slog.LevelInfo, "",
		slog.String("event", "test"),
		slog.String("cause", "a b"),
	)
	if !strings.Contains(buf.String(), `cause="a b"`) {
		t.Fatalf("value with space not quoted: %s", buf.String())
	}
}

func TestStructuredHandlerLevelGate(t *testing.T) {
	buf := &bytes.Buffer{}
	var level slog.LevelVar
	level.Set(slog.LevelWarn)
	log := slog.New(newStructuredHandler(handlerConfig{
		level:    &level,
		writer:   buf,
		format:   formatKV,
		keyOrder: defaultKeyOrder(),
	}))

	log.LogAttrs(context.Background(), slog.LevelInfo, "", slog.String("event", "dropped"))
	if buf.Len() != 0 {
		t.Fatalf("info line passed a warn gate: %s", buf.String())
	}
}

func TestEventAppendsRIDFromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	old := L
	L = newTestLogger(buf, formatKV)
	defer func() { L = old }()

	ctx := WithRID(context.Background(), BuildRID("9", "7", "next"))
	Info(ctx, "reaction", "handler.trigger", slog.String("status", "ok"))

	if !strings.Contains(buf.String(), "rid=9:7:next") {
		t.Fatalf("rid missing: %s", buf.String())
	}
}

func TestEventAppendsEventMetaFromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	old := L
	L = newTestLogger(buf, formatKV)
	defer func() { L = old }()

	ctx := WithEventMeta(context.Background(), "m42", "u7")
	Info(ctx, "reaction", "dispatch.handler_closed")

	line := buf.String()
	if !strings.Contains(line, "message_id=m42") {
		t.Fatalf("message_id missing: %s", line)
	}
	if !strings.Contains(line, "user_id=u7") {
		t.Fatalf("user_id missing: %s", line)
	}
}
