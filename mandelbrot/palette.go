package mandelbrot

import (
	"image/color"
	"mandelbrot/misc"
)

// XtermColors is the size of the 256 color terminal palette.
const XtermColors = 256

// The 6x6x6 color cube starts at code 16.
const (
	cubeOffset = 16
	cubeSize   = 6 * 6 * 6
)

var cubeLevels = [6]uint8{0, 95, 135, 175, 215, 255}

func (gps *GeneratePaletteSettings) GeneratePalette() []int {
	palette := make([]int, 0, gps.NumberColors)
	for j := 0; j < gps.NumberColors; j++ {
		fraction := float64(j) / float64(gps.NumberColors)
		colorStep := color.RGBA{
			R: misc.LerpUint8(gps.StartColor.R, gps.EndColor.R, fraction),
			G: misc.LerpUint8(gps.StartColor.G, gps.EndColor.G, fraction),
			B: misc.LerpUint8(gps.StartColor.B, gps.EndColor.B, fraction),
			A: 255}
		palette = append(palette, XtermCode(colorStep))
	}
	return palette
}

// XtermCode returns the color cube entry closest to c.
func XtermCode(c color.RGBA) int {
	return cubeOffset + 36*nearestLevel(c.R) + 6*nearestLevel(c.G) + nearestLevel(c.B)
}

func nearestLevel(v uint8) int {
	best, bestDistance := 0, 256
	for i, level := range cubeLevels {
		distance := int(v) - int(level)
		if distance < 0 {
			distance = -distance
		}
		if distance < bestDistance {
			best, bestDistance = i, distance
		}
	}
	return best
}
