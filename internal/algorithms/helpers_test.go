package algorithms

import (
	"testing"

	"github.com/stretchr/testify/require"

	"hybrid-image-generator/internal/core"
)

// gradient builds an opaque buffer whose channels vary with position.
func gradient(t *testing.T, w, h int) *core.Buffer {
	t.Helper()
	b := core.NewBuffer(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			b.SetRGBA(x, y, uint8((x*37+y*11)%256), uint8((x*7+y*53)%256), uint8((x*x+y*3)%256), 255)
		}
	}
	require.NoError(t, b.Validate())
	return b
}

func uniform(w, h int, v uint8) *core.Buffer {
	return core.NewUniform(w, h, v, v, v, 255)
}

// pixel returns the colour channels of (x, y).
func pixel(b *core.Buffer, x, y int) [3]uint8 {
	r, g, bl, _ := b.RGBA(x, y)
	return [3]uint8{r, g, bl}
}

// maxChannelDiff returns the largest absolute per-channel difference.
func maxChannelDiff(a, b *core.Buffer) int {
	worst := 0
	for i := range a.Pix {
		d := int(a.Pix[i]) - int(b.Pix[i])
		if d < 0 {
			d = -d
		}
		if d > worst {
			worst = d
		}
	}
	return worst
}
