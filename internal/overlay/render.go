package overlay

import "github.com/tripgauge/tripgauge/internal/settings"

// WidgetView is one widget to draw.
type WidgetView struct {
	Widget   Widget `json:"widget"`
	Position Point  `json:"position"`
	Size     Size   `json:"size"`
}

// View is what the renderer draws for a Snapshot.
type View struct {
	Visible bool `json:"visible"`
	// Tier is the color to draw, after the rating filter. Empty while hidden,
	// including the positioning preview.
	Tier Tier `json:"tier,omitempty"`
	// RatingFiltered reports that the rating filter overrode the tier.
	RatingFiltered  bool         `json:"ratingFiltered"`
	Widgets         []WidgetView `json:"widgets"`
	PositioningMode bool         `json:"positioningMode"`
	MinimalMode     bool         `json:"minimalMode"`
}

// Render applies display settings to snap. A trip whose passenger rating is
// below the configured minimum is drawn red without an accept widget; the
// machine's own tier is not changed.
func Render(snap Snapshot, s settings.Settings) View {
	view := View{
		Visible:         snap.Visible,
		PositioningMode: snap.PositioningMode,
		MinimalMode:     s.MinimalMode,
		Widgets:         []WidgetView{},
	}
	// Widgets are shown while positioning even when hidden, so they can be placed.
	if !snap.Visible && !snap.PositioningMode {
		return view
	}

	if snap.Visible {
		view.Tier = snap.Tier
		if ratingFiltered(snap, s) {
			view.Tier = TierRed
			view.RatingFiltered = true
		}
	}

	if !view.RatingFiltered {
		view.Widgets = append(view.Widgets, WidgetView{
			Widget:   WidgetAccept,
			Position: snap.Positions.Accept,
			Size:     DefaultWidgetSize,
		})
	}
	view.Widgets = append(view.Widgets, WidgetView{
		Widget:   WidgetReject,
		Position: snap.Positions.Reject,
		Size:     DefaultWidgetSize,
	})
	return view
}

func ratingFiltered(snap Snapshot, s settings.Settings) bool {
	return s.RatingFilterEnabled && snap.PassengerRating != nil && *snap.PassengerRating < s.MinRating
}
