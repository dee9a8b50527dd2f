// SPDX-License-Identifier: MIT
package apierrors

import (
	"errors"
	"testing"
)

func TestHTTPStatusMapping(t *testing.T) {
	cases := map[Kind]int{
		KindInvalidArgument:         400,
		KindInvalidToken:            401,
		KindInvalidPassword:         401,
		KindInsufficientPermissions: 403,
		KindError:                   500,
	}
	for kind, want := range cases {
		if got := HTTPStatus(kind); got != want {
			t.Fatalf("HTTPStatus(%s) = %d, want %d", kind, got, want)
		}
	}
}

func TestAsExtractsTypedError(t *testing.T) {
	err := New(KindInvalidToken, "expired")
	got, ok := As(err)
	if !ok || got.Kind != KindInvalidToken {
		t.Fatalf("As(typed error) = %+v, %v", got, ok)
	}

	if _, ok := As(errors.New("plain")); ok {
		t.Fatalf("As(plain error) = true, want false")
	}
	if _, ok := As(nil); ok {
		t.Fatalf("As(nil) = true, want false")
	}
}

func TestErrorfFormatsMessage(t *testing.T) {
	err := Errorf(KindError, "task %d not found", 42)
	if err.Error() != "ERROR: task 42 not found" {
		t.Fatalf("Error() = %q", err.Error())
	}
}
