package localtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		raw   string
		wantH int
		wantM int
	}{
		{"15:04", 15, 4},
		{"09:00", 9, 0},
		{"9:00", 9, 0},
		{"9am", 9, 0},
		{"9 am", 9, 0},
		{"9 a.m.", 9, 0},
		{"3pm", 15, 0},
		{"3:30 PM", 15, 30},
		{"12pm", 12, 0},
		{"12am", 0, 0},
		{"noon", 12, 0},
		{"around lunch", 12, 0},
		{"midnight", 0, 0},
		{"24:00", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			h, m, err := ParseClock(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.wantH, h)
			assert.Equal(t, tt.wantM, m)
		})
	}
}

func TestParseClock_Invalid(t *testing.T) {
	for _, raw := range []string{"", "25:00", "13pm", "0pm", "quarter past", "12:60"} {
		t.Run(raw, func(t *testing.T) {
			_, _, err := ParseClock(raw)
			assert.ErrorIs(t, err, ErrInvalidClock)
		})
	}
}
