package logging

import "testing"

func TestNewProgressSamplerDefaults(t *testing.T) {
	if s := NewProgressSampler(0); s.bucketSize != 25 {
		t.Fatalf("bucketSize = %v, want 25", s.bucketSize)
	}
	if s := NewProgressSampler(10); s.bucketSize != 10 {
		t.Fatalf("bucketSize = %v, want 10", s.bucketSize)
	}
}

func TestProgressSamplerEmitsOnBucketBoundaries(t *testing.T) {
	s := NewProgressSampler(25)
	steps := []struct {
		done int64
		want bool
	}{
		{0, false},
		{10, false},
		{25, true},
		{30, false},
		{49, false},
		{75, true},
		{99, false},
		{100, true},
		{100, false},
	}
	for _, step := range steps {
		_, got := s.Observe(step.done, 100)
		if got != step.want {
			t.Fatalf("Observe(%d) = %v, want %v", step.done, got, step.want)
		}
	}
}

func TestProgressSamplerUnknownTotal(t *testing.T) {
	s := NewProgressSampler(5)
	if _, ok := s.Observe(100, 0); ok {
		t.Fatal("unknown total should never log")
	}
}

func TestProgressSamplerNilAndReset(t *testing.T) {
	var nilSampler *ProgressSampler
	if pct, ok := nilSampler.Observe(50, 200); !ok || pct != 25 {
		t.Fatalf("nil sampler Observe = %v, %v", pct, ok)
	}
	nilSampler.Reset()

	s := NewProgressSampler(50)
	if _, ok := s.Observe(60, 100); !ok {
		t.Fatal("expected first bucket to log")
	}
	s.Reset()
	if _, ok := s.Observe(60, 100); !ok {
		t.Fatal("expected bucket to log again after reset")
	}
}
