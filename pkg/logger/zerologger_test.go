package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestZeroLogger_Info(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter("development", buf)

	log.Info("info-test", Field{Key: "provider", Value: "gmail"})

	output := buf.String()

	if !strings.Contains(output, "info-test") {
		t.Errorf("expected 'info-test' in log, got: %s", output)
	}
	if !strings.Contains(output, `"provider":"gmail"`) {
		t.Errorf("expected field provider=gmail, got: %s", output)
	}
	if !strings.Contains(output, `"level":"info"`) {
		t.Errorf("expected level=info, got: %s", output)
	}
}

func TestZeroLogger_DebugShownInDev(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter("development", buf)

	log.Debug("debug-test")

	if !strings.Contains(buf.String(), "debug-test") {
		t.Errorf("expected debug log in development, got: %s", buf.String())
	}
}

func TestZeroLogger_DebugHiddenInProduction(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter("production", buf)

	log.Debug("debug-hidden")

	if buf.String() != "" {
		t.Errorf("expected NO debug log output in production, got: %s", buf.String())
	}
}

func TestZeroLogger_LevelIsPerInstance(t *testing.T) {
	prodBuf := &bytes.Buffer{}
	devBuf := &bytes.Buffer{}
	prod := NewWithWriter("production", prodBuf)
	dev := NewWithWriter("development", devBuf)

	prod.Debug("prod-debug")
	dev.Debug("dev-debug")

	if prodBuf.String() != "" {
		t.Errorf("production logger leaked debug line: %s", prodBuf.String())
	}
	if !strings.Contains(devBuf.String(), "dev-debug") {
		t.Errorf("development logger lost debug line after production logger was built")
	}
}

func TestZeroLogger_Warn(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter("development", buf)

	log.Warn("warn-test", Field{Key: "source", Value: "fallback"})

	output := buf.String()

	if !strings.Contains(output, `"level":"warn"`) {
		t.Errorf("expected warn level, got: %s", output)
	}
	if !strings.Contains(output, `"source":"fallback"`) {
		t.Errorf("expected field source=fallback, got: %s", output)
	}
}

func TestZeroLogger_ErrorField(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter("development", buf)

	log.Error("error-test", Err(errors.New("token endpoint unreachable")))

	output := buf.String()

	if !strings.Contains(output, `"level":"error"`) {
		t.Errorf("expected error level, got: %s", output)
	}
	if !strings.Contains(output, `"err":"token endpoint unreachable"`) {
		t.Errorf("expected error message to be rendered, got: %s", output)
	}
}
