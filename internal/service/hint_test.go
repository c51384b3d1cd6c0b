package service

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeuristicHints(t *testing.T) {
	h := NewHeuristicHints(clockwork.NewFakeClockAt(t0))

	tests := []struct {
		name       string
		code       string
		desc       string
		occurred   time.Time
		confidence float64
		warnings   []string
	}{
		{"baseline", "RECYCLING", "sorted the cans", t0.Add(-time.Hour), 0.7, []string{}},
		{"keyword match", "BIKE_TO_CAMPUS", "Rode my BIKE in", t0.Add(-time.Hour), 0.9, []string{}},
		{"transit keyword", "PUBLIC_TRANSIT", "took the train", t0.Add(-time.Hour), 0.9, []string{}},
		{"future date", "RECYCLING", "sorted the cans", t0.Add(2 * time.Hour), 0.2, []string{"Date is in the future"}},
		{"future with keyword", "ENERGY_SCREENSHOT", "kwh down", t0.Add(time.Hour), 0.4, []string{"Date is in the future"}},
		{"stale", "COMPOST", "food scraps", t0.Add(-8 * 24 * time.Hour), 0.6, []string{"Claim is older than 7 days"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := h.Analyze(tt.code, tt.desc, tt.occurred)
			require.NoError(t, err)
			assert.Equal(t, tt.code, r.LabelGuess)
			assert.InDelta(t, tt.confidence, r.Confidence, 1e-9)
			assert.Equal(t, tt.warnings, r.Warnings)
			assert.GreaterOrEqual(t, r.Confidence, 0.1)
			assert.LessOrEqual(t, r.Confidence, 0.99)
		})
	}
}

func TestHeuristicHints_TrackingApp(t *testing.T) {
	h := NewHeuristicHints(clockwork.NewFakeClockAt(t0))

	r, err := h.Analyze("BIKE_TO_CAMPUS", "logged on strava", t0)
	require.NoError(t, err)
	assert.Equal(t, "Possible Strava reference", r.ExtractedFields["tracking_app"])

	r, err = h.Analyze("CARPOOL", "shared the map link", t0)
	require.NoError(t, err)
	assert.Empty(t, r.ExtractedFields)
}
