//go:build !integration

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"coupon-marketplace/internal/config"

	"github.com/rs/zerolog"
)

func TestWithCarriesRequestIDs(t *testing.T) {
	// --- Arrange ---
	var buf bytes.Buffer
	base := zerolog.New(&buf)
	ctx := WithUserID(WithTraceID(context.Background(), "01HTRACE"), "user-7")

	// --- Act ---
	With(ctx, &base).Info().Msg("hello")

	// --- Assert ---
	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not json: %v", err)
	}
	if line["trace_id"] != "01HTRACE" || line["user_id"] != "user-7" {
		t.Errorf("expected ids on the log line, got %v", line)
	}
	if TraceID(ctx) != "01HTRACE" {
		t.Errorf("expected trace id back from the context")
	}
}

func TestNewFallsBackToInfo(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })

	New(config.LogConfig{Level: "nonsense", Format: "json"}, false)

	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Errorf("expected info level, got %s", zerolog.GlobalLevel())
	}
}
