//go:build darwin

package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
)

var (
	iconIdle   []byte
	iconIdleHi []byte
	iconRecHi  []byte
	iconBusyHi []byte
)

func init() {
	transparent := color.RGBA{A: 0}
	red := color.RGBA{R: 255, G: 59, B: 48, A: 255}
	amber := color.RGBA{R: 255, G: 159, B: 10, A: 255}
	dotR := 44.0 / 6.5
	iconIdle = renderIcon(22, &transparent, 22.0/8)
	iconIdleHi = renderIcon(44, &transparent, 44.0/8)
	iconRecHi = renderIcon(44, &red, dotR)
	iconBusyHi = renderBusyIcon(44, &amber, dotR)
}

func encodePNG(img image.Image) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic("encodePNG: " + err.Error())
	}
	return buf.Bytes()
}

// drawDisc paints a black disc with a colored center dot.
func drawDisc(img *image.RGBA, size int, dot *color.RGBA, dotR float64) {
	cx, cy := float64(size)/2, float64(size)/2
	r := float64(size)/2 - 1
	for y := range size {
		for x := range size {
			d := math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy)
			switch {
			case d <= dotR:
				img.Set(x, y, dot)
			case d <= r:
				img.Set(x, y, color.Black)
			}
		}
	}
}

func renderIcon(size int, dot *color.RGBA, dotR float64) []byte {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	drawDisc(img, size, dot, dotR)
	return encodePNG(img)
}

// renderBusyIcon adds three dots across the bottom of the disc while a
// transcription is running.
func renderBusyIcon(size int, dot *color.RGBA, dotR float64) []byte {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	drawDisc(img, size, dot, dotR)

	s := float64(size)
	r := s * 0.07
	cy := s * 0.78
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	for _, cx := range []float64{s * 0.3, s * 0.5, s * 0.7} {
		for y := range size {
			for x := range size {
				if math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy) <= r {
					img.Set(x, y, white)
				}
			}
		}
	}
	return encodePNG(img)
}
