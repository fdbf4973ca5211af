package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"github.com/yllada/vpn-tray/common"
	"github.com/yllada/vpn-tray/status"
)

// Symbol is drawn on top of the shield.
type Symbol int

const (
	SymbolCheck Symbol = iota
	SymbolLock
	SymbolDots
	SymbolQuestion
)

// IconConfig defines the configuration for icon generation.
type IconConfig struct {
	Size        int
	FillColor   color.RGBA
	BorderColor color.RGBA
	AccentColor color.RGBA
	SymbolColor color.RGBA
	Symbol      Symbol
}

var white = color.RGBA{255, 255, 255, 255}

// IconConfigFor returns the shield colors and symbol for a state.
func IconConfigFor(state status.State) IconConfig {
	switch state {
	case status.StateConnected:
		return IconConfig{
			Size:        common.TrayIconSize,
			FillColor:   color.RGBA{56, 142, 60, 255},
			BorderColor: color.RGBA{76, 175, 80, 255},
			AccentColor: color.RGBA{200, 230, 201, 255},
			SymbolColor: white,
			Symbol:      SymbolCheck,
		}
	case status.StateConnecting, status.StateDisconnecting:
		return IconConfig{
			Size:        common.TrayIconSize,
			FillColor:   color.RGBA{239, 108, 0, 255},
			BorderColor: color.RGBA{255, 152, 0, 255},
			AccentColor: color.RGBA{255, 224, 178, 255},
			SymbolColor: white,
			Symbol:      SymbolDots,
		}
	case status.StateDisconnected:
		return IconConfig{
			Size:        common.TrayIconSize,
			FillColor:   color.RGBA{117, 117, 117, 255},
			BorderColor: color.RGBA{158, 158, 158, 255},
			AccentColor: color.RGBA{189, 189, 189, 255},
			SymbolColor: white,
			Symbol:      SymbolLock,
		}
	default:
		return IconConfig{
			Size:        common.TrayIconSize,
			FillColor:   color.RGBA{84, 110, 122, 255},
			BorderColor: color.RGBA{120, 144, 156, 255},
			AccentColor: color.RGBA{176, 190, 197, 255},
			SymbolColor: white,
			Symbol:      SymbolQuestion,
		}
	}
}

// stateIcons are generated once; the tray swaps them on every change.
var stateIcons = map[status.State][]byte{
	status.StateUnknown:       GenerateIcon(IconConfigFor(status.StateUnknown)),
	status.StateDisconnected:  GenerateIcon(IconConfigFor(status.StateDisconnected)),
	status.StateConnecting:    GenerateIcon(IconConfigFor(status.StateConnecting)),
	status.StateConnected:     GenerateIcon(IconConfigFor(status.StateConnected)),
	status.StateDisconnecting: GenerateIcon(IconConfigFor(status.StateDisconnecting)),
}

// IconFor returns the PNG icon for state.
func IconFor(state status.State) []byte {
	if icon, ok := stateIcons[state]; ok {
		return icon
	}
	return stateIcons[status.StateUnknown]
}

// GenerateIcon renders cfg as a PNG.
func GenerateIcon(cfg IconConfig) []byte {
	img := image.NewRGBA(image.Rect(0, 0, cfg.Size, cfg.Size))
	drawShield(img, cfg)

	switch cfg.Symbol {
	case SymbolCheck:
		drawCheckmark(img, cfg.SymbolColor)
	case SymbolLock:
		drawLock(img, cfg.SymbolColor)
	case SymbolDots:
		drawDots(img, cfg.SymbolColor)
	case SymbolQuestion:
		drawQuestion(img, cfg.SymbolColor)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}

func drawShield(img *image.RGBA, cfg IconConfig) {
	size := cfg.Size
	centerX := float64(size) / 2
	topY := 1.0
	bottomY := float64(size) - 2
	shieldWidth := float64(size) - 4

	inside := func(x, y float64) bool {
		relY := (y - topY) / (bottomY - topY)
		if relY < 0 || relY > 1 {
			return false
		}
		var halfWidth float64
		if relY < 0.5 {
			halfWidth = shieldWidth/2 - relY*0.5
		} else {
			progress := (relY - 0.5) * 2
			halfWidth = (shieldWidth/2 - 0.25) * (1 - progress*progress)
		}
		return x >= centerX-halfWidth && x <= centerX+halfWidth
	}

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			fx, fy := float64(x)+0.5, float64(y)+0.5
			if !inside(fx, fy) {
				continue
			}
			switch {
			case !inside(fx-1, fy) || !inside(fx+1, fy) || !inside(fx, fy-1) || !inside(fx, fy+1):
				img.Set(x, y, cfg.BorderColor)
			case float64(y)/float64(size) < 0.3:
				img.Set(x, y, cfg.AccentColor)
			default:
				img.Set(x, y, cfg.FillColor)
			}
		}
	}
}

type point struct{ x, y int }

func plot(img *image.RGBA, c color.RGBA, points []point) {
	bounds := img.Bounds()
	for _, p := range points {
		if image.Pt(p.x, p.y).In(bounds) {
			img.Set(p.x, p.y, c)
		}
	}
}

func drawCheckmark(img *image.RGBA, c color.RGBA) {
	plot(img, c, []point{
		{6, 11}, {7, 11}, {7, 12}, {8, 12}, {8, 13}, {9, 13},
		{9, 12}, {10, 12}, {10, 11}, {11, 11}, {11, 10}, {12, 10},
		{12, 9}, {13, 9}, {13, 8}, {14, 8},
	})
}

func drawLock(img *image.RGBA, c color.RGBA) {
	var points []point
	for y := 10; y <= 15; y++ {
		for x := 8; x <= 14; x++ {
			if y == 10 || y == 15 || x == 8 || x == 14 {
				points = append(points, point{x, y})
			}
		}
	}
	for y := 6; y <= 8; y++ {
		points = append(points, point{9, y}, point{13, y})
	}
	for x := 10; x <= 12; x++ {
		points = append(points, point{x, 6})
	}
	plot(img, c, points)
}

// drawDots draws three 2x2 dots across the middle.
func drawDots(img *image.RGBA, c color.RGBA) {
	var points []point
	for _, x := range []int{6, 10, 14} {
		points = append(points, point{x, 10}, point{x + 1, 10}, point{x, 11}, point{x + 1, 11})
	}
	plot(img, c, points)
}

func drawQuestion(img *image.RGBA, c color.RGBA) {
	plot(img, c, []point{
		{9, 6}, {10, 6}, {11, 6}, {12, 6},
		{8, 7}, {13, 7},
		{13, 8},
		{12, 9},
		{11, 10},
		{10, 11}, {10, 12},
		{10, 14}, {10, 15},
	})
}
