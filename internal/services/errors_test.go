package services_test

import (
	"errors"
	"strings"
	"testing"

	"riftcap/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := services.Wrap(services.ErrConnection, "lcu", "connect", "attempt 3", cause)
	if !errors.Is(err, services.ErrConnection) {
		t.Fatalf("expected connection marker, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	for _, want := range []string{"lcu", "connect", "attempt 3", "refused"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrConnection) {
		t.Fatalf("nil marker should default to connection, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("empty detail should collapse to generic message, got %q", err)
	}
}

func TestWrapClassification(t *testing.T) {
	cases := []struct {
		marker error
		other  error
	}{
		{services.ErrDecode, services.ErrDevice},
		{services.ErrDevice, services.ErrTimeout},
		{services.ErrTimeout, services.ErrConfiguration},
	}
	for _, tc := range cases {
		err := services.Wrap(tc.marker, "c", "op", "", nil)
		if !errors.Is(err, tc.marker) {
			t.Errorf("expected %v classification", tc.marker)
		}
		if errors.Is(err, tc.other) {
			t.Errorf("unexpected cross-classification between %v and %v", tc.marker, tc.other)
		}
	}
}
