package telemetry

import (
	"strings"
	"testing"
)

func TestNewSamplerClampsRate(t *testing.T) {
	cases := map[float64]string{
		-1:   "AlwaysOffSampler",
		0:    "AlwaysOffSampler",
		0.25: "TraceIDRatioBased{0.25}",
		1:    "AlwaysOnSampler",
		7:    "AlwaysOnSampler",
	}

	for rate, want := range cases {
		desc := newSampler(rate).Description()
		if !strings.HasPrefix(desc, "ParentBased{root:"+want) {
			t.Fatalf("rate %v: unexpected sampler %q", rate, desc)
		}
	}
}

func TestShutdownNilProvider(t *testing.T) {
	var tp *TracerProvider
	if err := tp.Shutdown(t.Context()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}
