package realtime

import (
	"errors"
	"testing"
)

func TestParseState(t *testing.T) {
	tests := []struct {
		in      string
		want    State
		wantErr bool
	}{
		{in: "TRACKING", want: StateTracking},
		{in: "tracking", want: StateTracking},
		{in: "  authenticated ", want: StateAuthenticated},
		{in: "UNAUTHENTICATED", want: StateUnauthenticated},
		{in: "CLOSED", want: StateClosed},
		{in: "open", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range tests {
		got, err := ParseState(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrInvalidState) {
				t.Errorf("ParseState(%q) err = %v, want ErrInvalidState", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("ParseState(%q) = %v, %v, want %v", tc.in, got, err, tc.want)
		}
	}
}

func TestStatePredicates(t *testing.T) {
	if StateUnauthenticated.Authenticated() || StateClosed.Authenticated() {
		t.Error("unauthenticated/closed must not count as authenticated")
	}
	if !StateAuthenticated.Authenticated() || !StateTracking.Authenticated() {
		t.Error("authenticated/tracking must count as authenticated")
	}
	if !StateTracking.IsTracking() || StateAuthenticated.IsTracking() {
		t.Error("IsTracking must hold for TRACKING only")
	}
}
