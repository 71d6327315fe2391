package overlay

import "math"

// Clamp keeps an element of elemW x elemH inside a viewW x viewH viewport.
// When the element is larger than the viewport the low bound wins and the
// coordinate is 0.
func Clamp(x, y, elemW, elemH, viewW, viewH float64) (float64, float64) {
	return clampAxis(x, viewW-elemW), clampAxis(y, viewH-elemH)
}

func clampAxis(v, maxV float64) float64 {
	return math.Max(0, math.Min(v, maxV))
}

// ClampPoint is Clamp over Point and Size values.
func ClampPoint(p Point, elem, viewport Size) Point {
	x, y := Clamp(p.X, p.Y, elem.Width, elem.Height, viewport.Width, viewport.Height)
	return Point{X: x, Y: y}
}
