package overlay_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tripgauge/tripgauge/internal/overlay"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name         string
		x, y         float64
		elemW, elemH float64
		viewW, viewH float64
		wantX, wantY float64
	}{
		{"past bottom right", 450, 900, 280, 44, 400, 800, 120, 756},
		{"inside", 50, 100, 280, 44, 400, 800, 50, 100},
		{"negative", -20, -1, 280, 44, 400, 800, 0, 0},
		{"exactly at max", 120, 756, 280, 44, 400, 800, 120, 756},
		{"element wider than viewport", 50, 10, 500, 44, 400, 800, 0, 10},
		{"element taller than viewport", 10, 50, 280, 900, 400, 800, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := overlay.Clamp(tt.x, tt.y, tt.elemW, tt.elemH, tt.viewW, tt.viewH)
			assert.Equal(t, tt.wantX, x)
			assert.Equal(t, tt.wantY, y)
		})
	}
}

func TestClamp_Idempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 2000; i++ {
		x := rng.Float64()*2000 - 1000
		y := rng.Float64()*2000 - 1000
		elemW, elemH := rng.Float64()*600, rng.Float64()*600
		viewW, viewH := rng.Float64()*1000, rng.Float64()*1000

		x1, y1 := overlay.Clamp(x, y, elemW, elemH, viewW, viewH)
		x2, y2 := overlay.Clamp(x1, y1, elemW, elemH, viewW, viewH)
		assert.Equal(t, x1, x2)
		assert.Equal(t, y1, y2)

		assert.GreaterOrEqual(t, x1, 0.0)
		assert.GreaterOrEqual(t, y1, 0.0)
		if elemW <= viewW {
			assert.LessOrEqual(t, x1, viewW-elemW)
		}
		if elemH <= viewH {
			assert.LessOrEqual(t, y1, viewH-elemH)
		}
	}
}

func TestDefaultPositions_InsideViewport(t *testing.T) {
	p := overlay.DefaultPositions(overlay.DefaultViewport)

	assert.Equal(t, overlay.Point{X: 60, Y: 600}, p.Accept)
	assert.Equal(t, overlay.Point{X: 60, Y: 656}, p.Reject)
}
