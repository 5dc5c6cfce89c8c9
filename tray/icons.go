package tray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"math"
)

var (
	iconIdle   []byte
	iconIdleHi []byte
	iconWarnHi []byte
)

func init() {
	iconIdle = renderIcon(22)
	iconIdleHi = renderIcon(44)
	iconWarnHi = renderWarnIcon(44)
}

func encodePNG(img image.Image) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic("encodePNG: " + err.Error())
	}
	return buf.Bytes()
}

// drawKeycap draws a rounded key outline with a play triangle inside.
func drawKeycap(img *image.RGBA, size int) {
	s := float64(size)
	pad := s * 0.08
	radius := s * 0.22
	stroke := math.Max(1.5, s*0.09)

	for y := range size {
		for x := range size {
			fx, fy := float64(x)+0.5, float64(y)+0.5
			d := roundedRectDist(fx, fy, pad, pad, s-pad, s-pad, radius)
			if d <= 0 && d > -stroke {
				img.Set(x, y, color.Black)
				continue
			}
			// triangle pointing right, centred
			tx := (fx - s*0.38) / (s * 0.30)
			ty := math.Abs(fy-s/2) / (s * 0.20)
			if tx >= 0 && tx <= 1 && ty <= 1-tx {
				img.Set(x, y, color.Black)
			}
		}
	}
}

// roundedRectDist is negative inside the rectangle and positive outside.
func roundedRectDist(x, y, x0, y0, x1, y1, r float64) float64 {
	cx, cy := (x0+x1)/2, (y0+y1)/2
	hw, hh := (x1-x0)/2-r, (y1-y0)/2-r
	dx := math.Max(math.Abs(x-cx)-hw, 0)
	dy := math.Max(math.Abs(y-cy)-hh, 0)
	inner := math.Min(math.Max(math.Abs(x-cx)-hw, math.Abs(y-cy)-hh), 0)
	return math.Hypot(dx, dy) + inner - r
}

func renderIcon(size int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	drawKeycap(img, size)
	return encodePNG(img)
}

func renderWarnIcon(size int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	drawKeycap(img, size)

	// Small yellow badge with "!" in bottom-right corner
	s := float64(size)
	badgeR := s * 0.34
	badgeCX, badgeCY := s-badgeR+0.5, s-badgeR+0.5
	dark := color.RGBA{R: 40, G: 40, B: 40, A: 255}
	yellow := color.RGBA{R: 255, G: 204, B: 0, A: 255}
	bangHW := badgeR * 0.24

	for y := range size {
		for x := range size {
			fx, fy := float64(x)+0.5, float64(y)+0.5
			if math.Hypot(fx-badgeCX, fy-badgeCY) > badgeR {
				continue
			}
			localY := (fy - (badgeCY - badgeR*0.7)) / (badgeR * 1.4)
			localX := math.Abs(fx - badgeCX)
			isBar := localX <= bangHW && localY >= 0.1 && localY <= 0.62
			isDot := localX <= bangHW && localY >= 0.72 && localY <= 0.85
			if isBar || isDot {
				img.Set(x, y, dark)
			} else {
				img.Set(x, y, yellow)
			}
		}
	}
	return encodePNG(img)
}

// wrapICO embeds a PNG image in a single-entry ICO container.
func wrapICO(pngData []byte) []byte {
	cfg, err := png.DecodeConfig(bytes.NewReader(pngData))
	if err != nil {
		return pngData
	}
	dim := func(n int) uint8 {
		if n >= 256 {
			return 0
		}
		return uint8(n)
	}
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, struct {
		Reserved, Type, Count uint16
	}{0, 1, 1})
	binary.Write(&buf, binary.LittleEndian, struct {
		Width, Height, Colors, Reserved uint8
		Planes, BitCount                uint16
		Size, Offset                    uint32
	}{dim(cfg.Width), dim(cfg.Height), 0, 0, 1, 32, uint32(len(pngData)), 22})
	buf.Write(pngData)
	return buf.Bytes()
}
