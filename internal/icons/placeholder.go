package icons

import (
	"bytes"
	"hash/fnv"
	"image"
	"image/color"
	"image/png"
)

// placeholderSize matches the thumbnail size requested from the icon API.
const placeholderSize = 200

// placeholderPNG renders a deterministic stand-in icon for a query: a
// colored disc whose hue is derived from the query text, so reruns produce
// byte-identical artifacts.
func placeholderPNG(query string) []byte {
	h := fnv.New32a()
	h.Write([]byte(query))
	seed := h.Sum32()

	fill := color.NRGBA{
		R: uint8(80 + seed%120),
		G: uint8(80 + (seed>>8)%120),
		B: uint8(80 + (seed>>16)%120),
		A: 255,
	}

	img := image.NewNRGBA(image.Rect(0, 0, placeholderSize, placeholderSize))
	center := placeholderSize / 2
	radius := placeholderSize/2 - 10
	for y := 0; y < placeholderSize; y++ {
		for x := 0; x < placeholderSize; x++ {
			dx, dy := x-center, y-center
			if dx*dx+dy*dy <= radius*radius {
				img.SetNRGBA(x, y, fill)
			}
		}
	}

	var buf bytes.Buffer
	// Encoding an in-memory image cannot fail.
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
