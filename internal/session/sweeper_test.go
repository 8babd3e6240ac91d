package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStale(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	timeout := 5 * time.Minute

	ts := func(d time.Duration) *time.Time {
		v := now.Add(-d)
		return &v
	}

	testCases := []struct {
		name string
		last *time.Time
		want bool
	}{
		{name: "no heartbeat ever", last: nil, want: true},
		{name: "fresh heartbeat", last: ts(time.Second), want: false},
		{name: "just inside timeout", last: ts(5*time.Minute - time.Second), want: false},
		{name: "exactly at timeout", last: ts(5 * time.Minute), want: true},
		{name: "long stale", last: ts(time.Hour), want: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, stale(tc.last, now, timeout))
		})
	}
}
