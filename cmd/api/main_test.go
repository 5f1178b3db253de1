package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type syncBuffer struct {
	bytes.Buffer
	synced bool
}

func (b *syncBuffer) Sync() error {
	b.synced = true
	return nil
}

func newBufferedLogger(out *syncBuffer) *zap.Logger {
	core := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), out, zap.InfoLevel)
	return zap.New(core)
}

func TestExitCodeFlushesLoggerOnFailure(t *testing.T) {
	out := &syncBuffer{}
	code := exitCode(newBufferedLogger(out), errors.New("database connection failed"))
	if code != 1 {
		t.Fatalf("exitCode() = %d, want 1", code)
	}
	if !out.synced {
		t.Fatal("expected logger to be synced before exit")
	}
	if !strings.Contains(out.String(), "database connection failed") {
		t.Fatalf("expected failure to be logged, got %q", out.String())
	}
}

func TestExitCodeCleanShutdown(t *testing.T) {
	out := &syncBuffer{}
	if code := exitCode(newBufferedLogger(out), nil); code != 0 {
		t.Fatalf("exitCode() = %d, want 0", code)
	}
	if !out.synced {
		t.Fatal("expected logger to be synced on clean shutdown")
	}
}
