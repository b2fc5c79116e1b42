// Deckmirror - Moxfield Deck Proxy and Cache
// Copyright 2026 Deckmirror contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edh-podlog/deckmirror

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

// swapLogger installs a capture logger for the duration of the test.
func swapLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := Logger()
	SetLogger(NewTestLogger(&buf))
	t.Cleanup(func() { SetLogger(old) })
	return &buf
}

func TestPackageHelpersWriteThroughGlobalLogger(t *testing.T) {
	buf := swapLogger(t)

	Warn().Str("component", "badger").Msg("value log truncated")

	out := buf.String()
	if !strings.Contains(out, `"level":"warn"`) {
		t.Errorf("output missing warn level: %s", out)
	}
	if !strings.Contains(out, `"component":"badger"`) {
		t.Errorf("output missing component field: %s", out)
	}
}

func TestCtxAttachesRequestID(t *testing.T) {
	buf := swapLogger(t)

	ctx := ContextWithRequestID(context.Background(), "req-42")
	log := Ctx(ctx)
	log.Error().Msg("request failed")

	if !strings.Contains(buf.String(), `"request_id":"req-42"`) {
		t.Errorf("output missing request_id: %s", buf.String())
	}
}

func TestCtxWithoutRequestIDUsesGlobalLogger(t *testing.T) {
	buf := swapLogger(t)

	log := Ctx(context.Background())
	log.Info().Msg("plain")

	out := buf.String()
	if strings.Contains(out, "request_id") {
		t.Errorf("output has request_id without one in context: %s", out)
	}
	if !strings.Contains(out, `"message":"plain"`) {
		t.Errorf("output missing message: %s", out)
	}
}
