package domain

import (
	"testing"
	"time"
)

func TestSession_Expired(t *testing.T) {
	exp := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := &Session{ID: "s1", ExpiresAt: exp}

	testCases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before", exp.Add(-time.Second), false},
		{"at expiry", exp, true},
		{"after", exp.Add(time.Second), true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := s.Expired(tc.now); got != tc.want {
				t.Errorf("Expired(%v) = %v, want %v", tc.now, got, tc.want)
			}
		})
	}
}
