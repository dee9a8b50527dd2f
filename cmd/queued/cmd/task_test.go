// SPDX-License-Identifier: MIT
package cmd

import "testing"

func TestAtoiAndAtoi64IgnoreParseErrors(t *testing.T) {
	if got := atoi("42"); got != 42 {
		t.Fatalf("atoi(42) = %d, want 42", got)
	}
	if got := atoi("garbage"); got != 0 {
		t.Fatalf("atoi(garbage) = %d, want 0", got)
	}
	if got := atoi64("1024"); got != 1024 {
		t.Fatalf("atoi64(1024) = %d, want 1024", got)
	}
	if got := atoi64("garbage"); got != 0 {
		t.Fatalf("atoi64(garbage) = %d, want 0", got)
	}
}
