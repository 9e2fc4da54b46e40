package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestWithContextAddsRequestAndUserIDs(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("production", &buf)

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, UserIDKey, "user-1")
	log.WithContext(ctx).Info("hello")

	out := buf.String()
	if !strings.Contains(out, `"request_id":"req-1"`) || !strings.Contains(out, `"user_id":"user-1"`) {
		t.Fatalf("expected request and user ids in output, got %s", out)
	}
}

func TestWithContextWithoutValuesReturnsSameLogger(t *testing.T) {
	log := Discard()
	if got := log.WithContext(context.Background()); got != log {
		t.Fatal("expected the same logger when ctx carries no ids")
	}
}
