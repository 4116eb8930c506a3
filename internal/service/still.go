package service

import (
	"bytes"
	"hash/fnv"
	"image"
	"image/color"
	"image/png"
)

// RenderStill produces a small placeholder PNG for a frame, colored
// deterministically from the seed. The production backend serves real
// extracted stills; the demo only needs stable non-empty image bytes.
func RenderStill(seed string) []byte {
	h := fnv.New32a()
	h.Write([]byte(seed))
	sum := h.Sum32()

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	base := color.RGBA{
		R: uint8(sum),
		G: uint8(sum >> 8),
		B: uint8(sum >> 16),
		A: 255,
	}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			c := base
			if (x+y)%2 == 0 {
				c.R ^= 0x20
				c.B ^= 0x20
			}
			img.SetRGBA(x, y, c)
		}
	}

	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
