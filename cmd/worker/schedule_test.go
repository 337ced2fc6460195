package main

import (
	"testing"
	"time"
)

func TestNextRun(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "later today",
			now:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
			want: time.Date(2024, 5, 1, 23, 50, 0, 0, time.UTC),
		},
		{
			name: "exactly on schedule rolls over",
			now:  time.Date(2024, 5, 1, 23, 50, 0, 0, time.UTC),
			want: time.Date(2024, 5, 2, 23, 50, 0, 0, time.UTC),
		},
		{
			name: "after schedule",
			now:  time.Date(2024, 5, 1, 23, 55, 0, 0, time.UTC),
			want: time.Date(2024, 5, 2, 23, 50, 0, 0, time.UTC),
		},
		{
			name: "month end",
			now:  time.Date(2024, 4, 30, 23, 59, 0, 0, time.UTC),
			want: time.Date(2024, 5, 1, 23, 50, 0, 0, time.UTC),
		},
		{
			name: "non utc input",
			now:  time.Date(2024, 5, 1, 20, 0, 0, 0, time.FixedZone("UTC-5", -5*3600)),
			want: time.Date(2024, 5, 2, 23, 50, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextRun(tt.now, 23, 50); !got.Equal(tt.want) {
				t.Fatalf("nextRun(%s) = %s, want %s", tt.now, got, tt.want)
			}
		})
	}
}
