package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDebugHiddenUnlessVerbose(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, false)
	l.Debug("cache hit for %d", 7)
	l.Info("loaded %d songs", 3)

	out := buf.String()
	if strings.Contains(out, "cache hit") {
		t.Errorf("debug message printed in non-verbose mode: %q", out)
	}
	if !strings.Contains(out, "loaded 3 songs") {
		t.Errorf("info message missing: %q", out)
	}

	buf.Reset()
	l = NewWithWriter(&buf, true)
	l.Debug("cache hit for %d", 7)
	if !strings.Contains(buf.String(), "cache hit for 7") {
		t.Errorf("debug message missing in verbose mode: %q", buf.String())
	}
}

func TestProgressBarSuppressesConsole(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, false)
	l.SetProgressBar(true)
	l.Info("hidden")
	l.Error("shown")
	l.SetProgressBar(false)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info printed while progress bar active: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("error not printed while progress bar active: %q", out)
	}
}

func TestFileLogReceivesDebug(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leftasrain.log")

	var buf bytes.Buffer
	l := NewWithWriter(&buf, false)
	if err := l.SetFileLog(path); err != nil {
		t.Fatalf("SetFileLog() error: %v", err)
	}
	l.Debug("fetch failed: %s", "timeout")
	if err := l.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "fetch failed: timeout") {
		t.Errorf("debug message missing from log file: %q", data)
	}
	if strings.Contains(buf.String(), "fetch failed") {
		t.Errorf("debug message leaked to console: %q", buf.String())
	}
}

func TestConfigureKeepsFileLogfmt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leftasrain.log")

	l := NewWithWriter(&bytes.Buffer{}, false)
	if err := l.SetFileLog(path); err != nil {
		t.Fatalf("SetFileLog() error: %v", err)
	}
	if err := l.Configure("info", "json"); err != nil {
		t.Fatalf("Configure() error: %v", err)
	}
	l.Info("synced")
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "msg=synced") {
		t.Errorf("file log is not logfmt: %q", data)
	}
	if strings.Contains(string(data), "{") {
		t.Errorf("console formatter leaked into file log: %q", data)
	}
}

func TestConfigure(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		wantErr bool
	}{
		{name: "defaults", level: "", format: ""},
		{name: "debug json", level: "debug", format: "json"},
		{name: "warn logfmt", level: "WARN", format: "logfmt"},
		{name: "bad level", level: "loud", format: "text", wantErr: true},
		{name: "bad format", level: "info", format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewWithWriter(&bytes.Buffer{}, false)
			err := l.Configure(tt.level, tt.format)
			if (err != nil) != tt.wantErr {
				t.Errorf("Configure() error = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigureLevelFiltersInfo(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, false)
	if err := l.Configure("error", "text"); err != nil {
		t.Fatal(err)
	}
	l.Info("quiet")
	l.Warn("also quiet")
	if buf.Len() != 0 {
		t.Errorf("expected no output below error level, got %q", buf.String())
	}
}
