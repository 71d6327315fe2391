// Package overlay drives the on-screen trip indicator: visibility, quality
// tier, auto-hide, and the draggable accept and reject widgets.
package overlay

import (
	"errors"
	"fmt"

	"github.com/tripgauge/tripgauge/internal/evaluation"
)

var (
	// ErrNotPositioning is returned by drag operations outside positioning mode.
	ErrNotPositioning = errors.New("overlay is not in positioning mode")

	// ErrOverlayDisabled is returned by show operations after EmergencyDisable.
	ErrOverlayDisabled = errors.New("overlay is disabled")

	ErrInvalidTier   = errors.New("invalid quality tier")
	ErrInvalidWidget = errors.New("invalid widget")
)

// Tier is the quality color of the indicator.
type Tier string

const (
	TierGreen  Tier = "green"
	TierYellow Tier = "yellow"
	TierRed    Tier = "red"
)

// ParseTier validates s as a Tier.
func ParseTier(s string) (Tier, error) {
	switch t := Tier(s); t {
	case TierGreen, TierYellow, TierRed:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTier, s)
}

// TierFor maps a recommendation onto its indicator color.
func TierFor(rec evaluation.Recommendation) Tier {
	switch rec {
	case evaluation.RecommendationAccept:
		return TierGreen
	case evaluation.RecommendationConsider:
		return TierYellow
	default:
		return TierRed
	}
}

// Widget identifies one of the two draggable affordances.
type Widget string

const (
	WidgetAccept Widget = "accept"
	WidgetReject Widget = "reject"
)

// ParseWidget validates s as a Widget.
func ParseWidget(s string) (Widget, error) {
	switch w := Widget(s); w {
	case WidgetAccept, WidgetReject:
		return w, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidWidget, s)
}

// Point is a position in viewport pixels, origin top-left.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add offsets p by d.
func (p Point) Add(d Point) Point {
	return Point{X: p.X + d.X, Y: p.Y + d.Y}
}

// Size is a width and height in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

var (
	DefaultViewport   = Size{Width: 400, Height: 800}
	DefaultWidgetSize = Size{Width: 280, Height: 44}
)

// Positions holds the committed position of each widget.
type Positions struct {
	Accept Point `json:"accept"`
	Reject Point `json:"reject"`
}

// Get returns the position of w.
func (p Positions) Get(w Widget) Point {
	if w == WidgetAccept {
		return p.Accept
	}
	return p.Reject
}

// Set replaces the position of w.
func (p *Positions) Set(w Widget, pt Point) {
	if w == WidgetAccept {
		p.Accept = pt
		return
	}
	p.Reject = pt
}

// DefaultPositions stacks both widgets, horizontally centered, in the lower
// quarter of the viewport.
func DefaultPositions(viewport Size) Positions {
	x := (viewport.Width - DefaultWidgetSize.Width) / 2
	y := viewport.Height * 0.75
	accept := ClampPoint(Point{X: x, Y: y}, DefaultWidgetSize, viewport)
	reject := ClampPoint(Point{X: x, Y: y + DefaultWidgetSize.Height + 12}, DefaultWidgetSize, viewport)
	return Positions{Accept: accept, Reject: reject}
}
