package internal

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestSetLogLevel(t *testing.T) {
	originalLevel := logLevel
	defer SetLogLevel(originalLevel)

	SetLogLevel(LogLevelDebug)
	if logLevel != LogLevelDebug {
		t.Errorf("SetLogLevel() logLevel = %v, want LogLevelDebug", logLevel)
	}
	if atom.Level() != zapcore.DebugLevel {
		t.Errorf("SetLogLevel() zap level = %v, want debug", atom.Level())
	}

	SetLogLevel(LogLevelError)
	if logLevel != LogLevelError {
		t.Errorf("SetLogLevel() logLevel = %v, want LogLevelError", logLevel)
	}
	if atom.Level() != zapcore.ErrorLevel {
		t.Errorf("SetLogLevel() zap level = %v, want error", atom.Level())
	}
}

func TestSetVerbose(t *testing.T) {
	originalLevel := logLevel
	defer SetLogLevel(originalLevel)

	SetVerbose(true)
	if logLevel != LogLevelDebug {
		t.Errorf("SetVerbose(true) logLevel = %v, want LogLevelDebug", logLevel)
	}

	SetVerbose(false)
	if logLevel != LogLevelInfo {
		t.Errorf("SetVerbose(false) logLevel = %v, want LogLevelInfo", logLevel)
	}
}

func TestLogFunctions_RespectLevel(t *testing.T) {
	originalLevel := logLevel
	var buf bytes.Buffer
	SetLogOutput(zapcore.AddSync(&buf))
	defer func() {
		SetLogLevel(originalLevel)
		SetLogOutput(zapcore.Lock(os.Stderr))
	}()

	SetLogLevel(LogLevelWarn)
	LogDebug("hidden debug")
	LogInfo("hidden info")
	LogWarn("visible %s", "warning")
	LogError("visible error")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("messages below the level should be dropped, got: %q", out)
	}
	if !strings.Contains(out, "visible warning") || !strings.Contains(out, "visible error") {
		t.Errorf("expected warning and error output, got: %q", out)
	}
}

func TestLogWith(t *testing.T) {
	originalLevel := logLevel
	var buf bytes.Buffer
	SetLogOutput(zapcore.AddSync(&buf))
	defer func() {
		SetLogLevel(originalLevel)
		SetLogOutput(zapcore.Lock(os.Stderr))
	}()

	SetLogLevel(LogLevelInfo)
	LogWith("clientId", "C1").Info("loaded")
	if !strings.Contains(buf.String(), "C1") {
		t.Errorf("expected structured field in output, got: %q", buf.String())
	}
}

func TestLogLevels(t *testing.T) {
	if LogLevelError >= LogLevelWarn {
		t.Error("LogLevelError should be less than LogLevelWarn")
	}
	if LogLevelWarn >= LogLevelInfo {
		t.Error("LogLevelWarn should be less than LogLevelInfo")
	}
	if LogLevelInfo >= LogLevelDebug {
		t.Error("LogLevelInfo should be less than LogLevelDebug")
	}
}
