package model

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIntervalHours_Boundaries(t *testing.T) {
	tests := []struct {
		name    string
		hours   float64
		want    IntervalHours
		wantErr error
	}{
		{name: "minimum accepted", hours: 0.10, want: 10},
		{name: "maximum accepted", hours: 168.00, want: 16800},
		{name: "one hour", hours: 1, want: 100},
		{name: "rounds to two decimals", hours: 1.234, want: 123},
		{name: "below minimum", hours: 0.05, wantErr: ErrIntervalOutOfRange},
		{name: "above maximum", hours: 200.00, wantErr: ErrIntervalOutOfRange},
		{name: "just below minimum", hours: 0.099, wantErr: ErrIntervalOutOfRange},
		{name: "rounds up to minimum", hours: 0.095, wantErr: ErrIntervalOutOfRange},
		{name: "just above maximum", hours: 168.004, wantErr: ErrIntervalOutOfRange},
		{name: "infinite", hours: math.Inf(1), wantErr: ErrIntervalOutOfRange},
		{name: "zero", hours: 0, wantErr: ErrIntervalOutOfRange},
		{name: "negative", hours: -1, wantErr: ErrIntervalOutOfRange},
		{name: "nan", hours: math.NaN(), wantErr: ErrIntervalOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewIntervalHours(tt.hours)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLegacySchedule(t *testing.T) {
	tests := []struct {
		in      string
		want    IntervalHours
		wantErr error
	}{
		{in: "24.00h", want: 2400},
		{in: "24h", want: 2400},
		{in: "24", want: 2400},
		{in: " 6.5H ", want: 650},
		{in: "0.05h", wantErr: ErrIntervalOutOfRange},
		{in: "0.099h", wantErr: ErrIntervalOutOfRange},
		{in: "168.004h", wantErr: ErrIntervalOutOfRange},
		{in: "168.00h", want: 16800},
		{in: "daily", wantErr: ErrInvalidSchedule},
		{in: "h", wantErr: ErrInvalidSchedule},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLegacySchedule(tt.in)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveInterval(t *testing.T) {
	numeric := IntervalHours(150)
	legacy := "24.00h"
	blank := "  "

	t.Run("numeric wins over legacy", func(t *testing.T) {
		got, err := ResolveInterval(&numeric, &legacy)
		require.NoError(t, err)
		assert.Equal(t, numeric, got)
	})

	t.Run("legacy fallback", func(t *testing.T) {
		got, err := ResolveInterval(nil, &legacy)
		require.NoError(t, err)
		assert.Equal(t, IntervalHours(2400), got)
	})

	t.Run("neither is a configuration error", func(t *testing.T) {
		_, err := ResolveInterval(nil, nil)
		require.ErrorIs(t, err, ErrScheduleNotConfigured)

		_, err = ResolveInterval(nil, &blank)
		require.ErrorIs(t, err, ErrScheduleNotConfigured)
	})

	t.Run("stored numeric out of range", func(t *testing.T) {
		bad := IntervalHours(5)
		_, err := ResolveInterval(&bad, nil)
		require.ErrorIs(t, err, ErrIntervalOutOfRange)
	})
}

func TestNextDue(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 5, 0, 0, time.UTC)

	assert.Equal(t, base.Add(time.Hour), NextDue(base, 100))
	assert.Equal(t, base.Add(6*time.Minute), NextDue(base, MinIntervalHours))
	assert.Equal(t, base.Add(168*time.Hour), NextDue(base, MaxIntervalHours))
	assert.Equal(t, base.Add(90*time.Minute), NextDue(base, 150))
}

func TestIntervalHours_String(t *testing.T) {
	assert.Equal(t, "24.00h", IntervalHours(2400).String())
	assert.Equal(t, "0.10h", MinIntervalHours.String())
	assert.InDelta(t, 1.5, IntervalHours(150).Hours(), 0.0001)
}
