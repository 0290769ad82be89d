package logger

import (
	"strings"
	"testing"

	"github.com/linkyoself/linkyoself/config"
	"go.uber.org/zap/zapcore"
)

func TestNew_RejectsUnknownLevel(t *testing.T) {
	if _, err := New(Options{Level: "loud"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestNew_AppliesLevel(t *testing.T) {
	l, err := New(Options{Level: "WARN", Service: "linkyoself"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if l.Core().Enabled(zapcore.InfoLevel) {
		t.Fatal("info must be disabled at warn level")
	}
	if !l.Core().Enabled(zapcore.WarnLevel) {
		t.Fatal("warn must be enabled at warn level")
	}
}

func TestFromConfig(t *testing.T) {
	opts := FromConfig(config.AppConfig{Name: "linkyoself", Environment: "production", LogLevel: "debug"})
	if opts.Development || opts.Service != "linkyoself" || opts.Level != "debug" {
		t.Fatalf("unexpected options %+v", opts)
	}
}

func TestLevelLabel(t *testing.T) {
	if got := levelLabel(zapcore.InfoLevel, false); got != "INFO " {
		t.Fatalf("unexpected plain label %q", got)
	}
	colored := levelLabel(zapcore.ErrorLevel, true)
	if !strings.HasPrefix(colored, "\x1b[31m") || !strings.HasSuffix(colored, colorReset) {
		t.Fatalf("unexpected colored label %q", colored)
	}
}

func TestSync_NilLogger(t *testing.T) {
	if err := Sync(nil); err != nil {
		t.Fatalf("Sync(nil) = %v", err)
	}
}
