// vt100_render.go - Raster rendering of the VT100 screen

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package rvsim

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	screenGlyphWidth  = 7
	screenGlyphHeight = 13
	screenGlyphAscent = 11
)

var ansiPalette = [8]color.RGBA{
	{0x00, 0x00, 0x00, 0xFF},
	{0xAA, 0x00, 0x00, 0xFF},
	{0x00, 0xAA, 0x00, 0xFF},
	{0xAA, 0x55, 0x00, 0xFF},
	{0x00, 0x00, 0xAA, 0xFF},
	{0xAA, 0x00, 0xAA, 0xFF},
	{0x00, 0xAA, 0xAA, 0xFF},
	{0xAA, 0xAA, 0xAA, 0xFF},
}

var ansiBrightPalette = [8]color.RGBA{
	{0x55, 0x55, 0x55, 0xFF},
	{0xFF, 0x55, 0x55, 0xFF},
	{0x55, 0xFF, 0x55, 0xFF},
	{0xFF, 0xFF, 0x55, 0xFF},
	{0x55, 0x55, 0xFF, 0xFF},
	{0xFF, 0x55, 0xFF, 0xFF},
	{0x55, 0xFF, 0xFF, 0xFF},
	{0xFF, 0xFF, 0xFF, 0xFF},
}

func cellColors(c Cell) (fg, bg color.RGBA) {
	fgIdx, bgIdx := c.FG, c.BG
	if fgIdx == ColorDefault {
		fgIdx = ColorWhite
	}
	if bgIdx == ColorDefault {
		bgIdx = ColorBlack
	}
	fg, bg = ansiPalette[fgIdx&7], ansiPalette[bgIdx&7]
	if c.Attr&AttrBold != 0 {
		fg = ansiBrightPalette[fgIdx&7]
	}
	if c.Attr&AttrReverse != 0 {
		fg, bg = bg, fg
	}
	return fg, bg
}

// RenderScreen rasterises the screen with the 7x13 fixed font. The cell
// under the cursor is drawn in reverse video.
func RenderScreen(s *VT100Screen) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, VT100_COLS*screenGlyphWidth, VT100_ROWS*screenGlyphHeight))
	d := &font.Drawer{Dst: img, Face: basicfont.Face7x13}
	curX, curY := s.Cursor()

	for y := range VT100_ROWS {
		for x := range VT100_COLS {
			c := s.CellAt(x, y)
			if x == curX && y == curY {
				c.Attr ^= AttrReverse
			}
			fg, bg := cellColors(c)
			cell := image.Rect(x*screenGlyphWidth, y*screenGlyphHeight, (x+1)*screenGlyphWidth, (y+1)*screenGlyphHeight)
			draw.Draw(img, cell, image.NewUniform(bg), image.Point{}, draw.Src)

			if c.Ch > ' ' && c.Ch < 0x7F {
				d.Src = image.NewUniform(fg)
				d.Dot = fixed.P(cell.Min.X, cell.Min.Y+screenGlyphAscent)
				d.DrawString(string(rune(c.Ch)))
			}
			if c.Attr&AttrUnderline != 0 {
				line := image.Rect(cell.Min.X, cell.Min.Y+screenGlyphAscent+1, cell.Max.X, cell.Min.Y+screenGlyphAscent+2)
				draw.Draw(img, line, image.NewUniform(fg), image.Point{}, draw.Src)
			}
		}
	}
	return img
}

// WriteScreenPNG encodes RenderScreen(s) as PNG.
func WriteScreenPNG(w io.Writer, s *VT100Screen) error {
	return png.Encode(w, RenderScreen(s))
}
