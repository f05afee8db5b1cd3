package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func newBufferLogger(t *testing.T, level string) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return New(&Config{
		Level:       level,
		Format:      "json",
		Output:      &buf,
		ServiceName: "memeforge-test",
	}), &buf
}

func lines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("log line is not JSON: %v\n%s", err, line)
		}
		out = append(out, m)
	}
	return out
}

func TestContextFields(t *testing.T) {
	log, buf := newBufferLogger(t, "info")

	ctx := log.WithContext(context.Background())
	ctx = SetRequestID(ctx, "req-1")
	ctx = SetComponent(ctx, "cache")
	ctx = WithField(ctx, FieldCacheKey, "trending_memes")

	CtxInfo(ctx, "hit %d", 3)

	got := lines(t, buf)
	if len(got) != 1 {
		t.Fatalf("lines = %d, want 1", len(got))
	}
	entry := got[0]
	for key, want := range map[string]string{
		"message":      "hit 3",
		"level":        "info",
		"service":      "memeforge-test",
		FieldRequestID: "req-1",
		FieldComponent: "cache",
		FieldCacheKey:  "trending_memes",
	} {
		if entry[key] != want {
			t.Errorf("%s = %v, want %q", key, entry[key], want)
		}
	}

	if FromContext(ctx).Data[FieldRequestID] != "req-1" {
		t.Errorf("request_id field = %v", FromContext(ctx).Data[FieldRequestID])
	}
}

func TestEntryMetrics(t *testing.T) {
	log, buf := newBufferLogger(t, "info")
	ctx := log.WithContext(context.Background())

	With(Fields{FieldStatus: "saved"}).
		WithCount(4).
		WithSize(1024).
		WithDuration(time.Now().Add(-50 * time.Millisecond)).
		Info(ctx, "done")

	entry := lines(t, buf)[0]
	if entry[FieldStatus] != "saved" {
		t.Errorf("status = %v", entry[FieldStatus])
	}
	if entry[FieldCount] != float64(4) || entry[FieldSize] != float64(1024) {
		t.Errorf("count/size = %v/%v", entry[FieldCount], entry[FieldSize])
	}
	if d, ok := entry[FieldDurationMs].(float64); !ok || d < 50 {
		t.Errorf("duration_ms = %v, want >= 50", entry[FieldDurationMs])
	}
}

func TestEntryWithDoesNotMutate(t *testing.T) {
	base := With(Fields{"a": 1})
	_ = base.With(Fields{"b": 2})
	if _, ok := base.fields["b"]; ok {
		t.Error("With mutated the receiver")
	}
}

func TestLevelFiltering(t *testing.T) {
	log, buf := newBufferLogger(t, "warn")
	ctx := log.WithContext(context.Background())

	CtxDebug(ctx, "debug")
	CtxInfo(ctx, "info")
	CtxWarn(ctx, "warn")
	CtxError(ctx, "error")

	got := lines(t, buf)
	if len(got) != 2 {
		t.Fatalf("lines = %d, want 2", len(got))
	}
	if got[0]["message"] != "warn" || got[1]["message"] != "error" {
		t.Errorf("messages = %v, %v", got[0]["message"], got[1]["message"])
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	if FromContext(context.Background()) != GetDefault() {
		t.Error("FromContext without a logger should return the default")
	}

	log, _ := newBufferLogger(t, "info")
	prev := GetDefault()
	SetDefaultLogger(log)
	t.Cleanup(func() { SetDefaultLogger(prev) })

	if GetDefault() != log {
		t.Error("SetDefaultLogger did not replace the default")
	}
	SetDefaultLogger(nil)
	if GetDefault() != log {
		t.Error("SetDefaultLogger(nil) should be ignored")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_MAX_SIZE", "5")
	t.Setenv("LOG_COMPRESS", "false")

	cfg := LoadFromEnv()
	if cfg.Level != "debug" || cfg.MaxSize != 5 || cfg.Compress {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.ServiceName != "memeforge" {
		t.Errorf("ServiceName = %q", cfg.ServiceName)
	}
}
