package logging

import (
	"errors"
	"strings"
	"testing"
)

func TestLoggerWritesLogfmt(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	log := New(&buf, Info)
	log.Info("session started", F("assignment_id", "ae-1"), F("angle", 42.5))

	line := buf.String()
	if !strings.Contains(line, "level=info") || !strings.Contains(line, `msg="session started"`) {
		t.Fatalf("unexpected line: %s", line)
	}
	if !strings.Contains(line, "assignment_id=ae-1") || !strings.Contains(line, "angle=42.5") {
		t.Fatalf("fields missing from line: %s", line)
	}
	if !strings.HasSuffix(line, "\n") {
		t.Fatalf("line must end with newline: %q", line)
	}
}

func TestLoggerFiltersBelowLevel(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	log := New(&buf, Warn)
	log.Debug("noisy")
	log.Info("still noisy")
	log.Warn("kept")

	if got := buf.String(); strings.Contains(got, "noisy") || !strings.Contains(got, "msg=kept") {
		t.Fatalf("unexpected output: %s", got)
	}
}

func TestWithAttachesPersistentFields(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	log := New(&buf, Info).With(F("component", "coordinator"))
	log.Info("ready")

	if !strings.Contains(buf.String(), "component=coordinator") {
		t.Fatalf("persistent field missing: %s", buf.String())
	}
}

func TestFieldValueFormatting(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	log := New(&buf, Info)
	log.Info("formats",
		F("err", errors.New("dial tcp: refused")),
		F("empty", ""),
		F("flag", true),
	)

	line := buf.String()
	if !strings.Contains(line, `err="dial tcp: refused"`) {
		t.Fatalf("error value not quoted: %s", line)
	}
	if !strings.Contains(line, `empty=""`) {
		t.Fatalf("empty value not quoted: %s", line)
	}
	if !strings.Contains(line, "flag=true") {
		t.Fatalf("bool value wrong: %s", line)
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]Level{
		"debug":   Debug,
		"  WARN ": Warn,
		"warning": Warn,
		"error":   Error,
		"info":    Info,
		"bogus":   Info,
		"":        Info,
	}
	for raw, want := range cases {
		if got := ParseLevel(raw); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", raw, got, want)
		}
	}
}
