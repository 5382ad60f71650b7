package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]string{
		"trace":   "trace",
		"DEBUG":   "debug",
		"warning": "warn",
		"error":   "error",
		"":        "info",
		"bogus":   "info",
	}
	for in, want := range cases {
		if got := parseLevel(in).String(); got != want {
			t.Fatalf("parseLevel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestInitNamedAndRequestScoped(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "debug", Format: "json", Service: "test", Writer: &buf})

	Named("generator").Info().Msg("hello")
	ctx := WithRequestID(context.Background(), "req-42")
	C(ctx).Info().Msg("scoped")

	out := buf.String()
	for _, want := range []string{`"component":"generator"`, `"request_id":"req-42"`, `"service":"test"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output missing %s:\n%s", want, out)
		}
	}

	if RequestID(context.Background()) != "" {
		t.Fatal("empty context should carry no request id")
	}
}
