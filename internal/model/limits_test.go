// SPDX-License-Identifier: MIT
package model

import "testing"

// TestLimitMonotonicity covers spec's limit-monotonicity invariant: for
// fixed user/default, minimalLimits({cpu:x,...}, U, D).cpu is
// nondecreasing in x, with 0 treated as +infinity.
func TestLimitMonotonicity(t *testing.T) {
	user := Limits{CPU: 4}
	def := Limits{CPU: 8}

	prev := MinimalLimits(Limits{CPU: 1}, user, def).CPU
	for _, x := range []int64{2, 3, 4, 5, 8, 100} {
		got := MinimalLimits(Limits{CPU: x}, user, def).CPU
		if got < prev {
			t.Fatalf("minimalLimits(cpu=%d) = %d, decreased from previous %d", x, got, prev)
		}
		prev = got
	}
}

func TestMinimalLimitsZeroIsUnbounded(t *testing.T) {
	got := MinimalLimits(Limits{CPU: 0}, Limits{CPU: 0}, Limits{CPU: 0})
	if got.CPU != 0 {
		t.Fatalf("all-zero CPU axis = %d, want 0 (unbounded)", got.CPU)
	}
	got = MinimalLimits(Limits{CPU: 0}, Limits{CPU: 4}, Limits{CPU: 0})
	if got.CPU != 4 {
		t.Fatalf("task unbounded, user=4, default unbounded => %d, want 4", got.CPU)
	}
}

func TestEncodeDecodeLimitsRoundTrip(t *testing.T) {
	in := Limits{CPU: 2, GPU: 0, Memory: 1024, GPUMemory: 0, Storage: 5000}
	out := DecodeLimits(EncodeLimits(in))
	if out != in {
		t.Fatalf("round trip = %+v, want %+v", out, in)
	}
}

func TestParseMemoryLiteral(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"", 0},
		{"1024", 1024},
		{"1K", 1024},
		{"2M", 2 * 1024 * 1024},
		{"1G", 1024 * 1024 * 1024},
	}
	for _, c := range cases {
		got, err := ParseMemoryLiteral(c.in)
		if err != nil {
			t.Fatalf("ParseMemoryLiteral(%q) error: %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("ParseMemoryLiteral(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}
