package overlay_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripgauge/tripgauge/internal/evaluation"
	"github.com/tripgauge/tripgauge/internal/overlay"
	"github.com/tripgauge/tripgauge/internal/settings"
)

func rating(r float64) *float64 { return &r }

func visibleSnapshot(tier overlay.Tier, passengerRating *float64) overlay.Snapshot {
	return overlay.Snapshot{
		Visible:         true,
		Tier:            tier,
		PassengerRating: passengerRating,
		Positions:       overlay.DefaultPositions(overlay.DefaultViewport),
		Viewport:        overlay.DefaultViewport,
	}
}

func widgets(v overlay.View) []overlay.Widget {
	out := make([]overlay.Widget, 0, len(v.Widgets))
	for _, w := range v.Widgets {
		out = append(out, w.Widget)
	}
	return out
}

func TestRender_RatingFilterOverridesTier(t *testing.T) {
	snap := visibleSnapshot(overlay.TierGreen, rating(4.5))
	s := settings.Settings{RatingFilterEnabled: true, MinRating: 4.8}

	view := overlay.Render(snap, s)

	assert.Equal(t, overlay.TierRed, view.Tier)
	assert.True(t, view.RatingFiltered)
	assert.Equal(t, []overlay.Widget{overlay.WidgetReject}, widgets(view))
	assert.Equal(t, overlay.TierGreen, snap.Tier, "underlying tier unchanged")
}

func TestRender_NoOverride(t *testing.T) {
	tests := []struct {
		name     string
		rating   *float64
		settings settings.Settings
	}{
		{"filter disabled", rating(3.0), settings.Settings{RatingFilterEnabled: false, MinRating: 4.8}},
		{"rating at minimum", rating(4.8), settings.Settings{RatingFilterEnabled: true, MinRating: 4.8}},
		{"no trip rating", nil, settings.Settings{RatingFilterEnabled: true, MinRating: 4.8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := overlay.Render(visibleSnapshot(overlay.TierGreen, tt.rating), tt.settings)

			assert.Equal(t, overlay.TierGreen, view.Tier)
			assert.False(t, view.RatingFiltered)
			assert.Equal(t, []overlay.Widget{overlay.WidgetAccept, overlay.WidgetReject}, widgets(view))
		})
	}
}

func TestRender_Hidden(t *testing.T) {
	view := overlay.Render(overlay.Snapshot{Tier: overlay.TierGreen}, settings.Defaults())

	assert.False(t, view.Visible)
	assert.Empty(t, view.Widgets)
	assert.Empty(t, view.Tier)
}

func TestRender_HiddenWhilePositioningShowsWidgets(t *testing.T) {
	snap := overlay.Snapshot{
		PositioningMode: true,
		Tier:            overlay.TierGreen,
		Positions:       overlay.DefaultPositions(overlay.DefaultViewport),
	}

	view := overlay.Render(snap, settings.Defaults())
	require.Len(t, view.Widgets, 2)
	assert.Equal(t, snap.Positions.Accept, view.Widgets[0].Position)
	assert.Equal(t, overlay.DefaultWidgetSize, view.Widgets[0].Size)
	assert.Empty(t, view.Tier, "the preview does not draw the last shown tier")
}

func TestRender_MinimalMode(t *testing.T) {
	s := settings.Defaults()
	s.MinimalMode = true

	view := overlay.Render(visibleSnapshot(overlay.TierYellow, nil), s)
	assert.True(t, view.MinimalMode)
	assert.Equal(t, overlay.TierYellow, view.Tier)
}

func TestTierFor(t *testing.T) {
	assert.Equal(t, overlay.TierGreen, overlay.TierFor(evaluation.RecommendationAccept))
	assert.Equal(t, overlay.TierYellow, overlay.TierFor(evaluation.RecommendationConsider))
	assert.Equal(t, overlay.TierRed, overlay.TierFor(evaluation.RecommendationReject))
}

func TestParseWidgetAndTier(t *testing.T) {
	w, err := overlay.ParseWidget("reject")
	require.NoError(t, err)
	assert.Equal(t, overlay.WidgetReject, w)

	_, err = overlay.ParseWidget("maybe")
	assert.ErrorIs(t, err, overlay.ErrInvalidWidget)

	tier, err := overlay.ParseTier("yellow")
	require.NoError(t, err)
	assert.Equal(t, overlay.TierYellow, tier)
}
