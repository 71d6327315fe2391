package models

// OverlayShowInput shows the overlay with a quality tier.
type OverlayShowInput struct {
	Tier string `json:"tier" validate:"required,oneof=green yellow red"`
}

// ViewportInput reports the renderer's viewport size in pixels.
type ViewportInput struct {
	Width  float64 `json:"width" validate:"gt=0,lte=10000"`
	Height float64 `json:"height" validate:"gt=0,lte=10000"`
}

// DragInput is the pointer offset from where a drag gesture started.
type DragInput struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// PositionInput places a widget directly, in viewport pixels.
type PositionInput struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// WidgetPosition is where a widget is, or would be, drawn.
type WidgetPosition struct {
	Widget    string  `json:"widget"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Committed bool    `json:"committed"`
}
