// SPDX-License-Identifier: MIT
package retention

import "testing"

func TestParseMs(t *testing.T) {
	cases := []struct {
		in       string
		fallback int64
		want     int64
	}{
		{"", 86400000, 86400000},
		{"0", 86400000, 0},
		{"12345", 0, 12345},
		{"not-a-number", 99, 99},
	}
	for _, c := range cases {
		if got := parseMs(c.in, c.fallback); got != c.want {
			t.Errorf("parseMs(%q, %d) = %d, want %d", c.in, c.fallback, got, c.want)
		}
	}
}
