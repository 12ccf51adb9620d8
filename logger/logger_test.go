package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestSet(t *testing.T) {
	defer Disable()

	var buf bytes.Buffer
	Set(zerolog.New(&buf))
	l := Logger()
	l.Info().Str("component", "test").Msg("hello")

	if got := buf.String(); !strings.Contains(got, `"hello"`) || !strings.Contains(got, `"test"`) {
		t.Errorf("unexpected log output: %q", got)
	}
}

func TestDisable(t *testing.T) {
	var buf bytes.Buffer
	Set(zerolog.New(&buf))
	Disable()
	l := Logger()
	l.Info().Msg("suppressed")

	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}
