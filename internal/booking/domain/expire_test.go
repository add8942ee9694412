package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWillExpireAt(t *testing.T) {
	ref := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		due  time.Time
		want time.Time
	}{
		{
			name: "due within 90 minutes expires at due",
			due:  ref.Add(30 * time.Minute),
			want: ref.Add(30 * time.Minute),
		},
		{
			name: "exactly 90 minutes expires at due",
			due:  ref.Add(90 * time.Minute),
			want: ref.Add(90 * time.Minute),
		},
		{
			name: "due within 24 hours gets a 90 minute window",
			due:  ref.Add(10 * time.Hour),
			want: ref.Add(90 * time.Minute),
		},
		{
			name: "due within 72 hours gets 16 hours",
			due:  ref.Add(48 * time.Hour),
			want: ref.Add(16 * time.Hour),
		},
		{
			name: "due beyond 72 hours expires 48 hours before due",
			due:  ref.Add(120 * time.Hour),
			want: ref.Add(120 * time.Hour).Add(-48 * time.Hour),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WillExpireAt(tt.due, ref))
		})
	}
}
