// Package art renders card images as ANSI half-block art and lays it out next
// to text in the terminal.
package art

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"unicode/utf8"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/nfnt/resize"
)

// Default art size in terminal cells.
const (
	DefaultWidth  = 24
	DefaultHeight = 16
)

// Render converts img to width x height cells of ANSI art. Each cell is an
// upper half block: the top two pixels set the foreground and the bottom two
// the background. With trueColor false the xterm 256-colour palette is used.
func Render(img image.Image, width, height int, trueColor bool) string {
	resized := resize.Resize(uint(width*2), uint(height*2), img, resize.Lanczos3)

	var buffer strings.Builder
	for y := 0; y < height*2; y += 2 {
		for x := 0; x < width*2; x += 2 {
			upper := averageColor(colorAt(resized, x, y), colorAt(resized, x+1, y))
			lower := averageColor(colorAt(resized, x, y+1), colorAt(resized, x+1, y+1))
			buffer.WriteString(cell('▀', upper, lower, trueColor))
		}
		buffer.WriteString("\n")
	}
	return buffer.String()
}

// colorAt returns the pixel at x, y, or black outside the image.
func colorAt(img image.Image, x, y int) colorful.Color {
	bounds := img.Bounds()
	var c color.Color = color.RGBA{0, 0, 0, 255}
	if x >= bounds.Min.X && x < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y {
		c = img.At(x, y)
	}
	col, _ := colorful.MakeColor(c)
	return col
}

// averageColor calculates the average of multiple colors
func averageColor(colors ...colorful.Color) colorful.Color {
	var r, g, b float64
	for _, c := range colors {
		r += c.R
		g += c.G
		b += c.B
	}
	count := float64(len(colors))
	return colorful.Color{R: r / count, G: g / count, B: b / count}
}

func cell(char rune, fg, bg colorful.Color, trueColor bool) string {
	if trueColor {
		r1, g1, b1 := fg.Clamped().RGB255()
		r2, g2, b2 := bg.Clamped().RGB255()
		return fmt.Sprintf("\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm%c\x1b[0m",
			r1, g1, b1, r2, g2, b2, char)
	}
	return fmt.Sprintf("\x1b[38;5;%dm\x1b[48;5;%dm%c\x1b[0m", xterm256(fg), xterm256(bg), char)
}

// xterm256 maps c to the nearest entry of the 6x6x6 colour cube or the
// grey ramp, measured in Lab space.
func xterm256(c colorful.Color) int {
	levels := []float64{0, 95, 135, 175, 215, 255}
	nearest := func(v float64) int {
		best := 0
		for i, l := range levels {
			if abs(l-v) < abs(levels[best]-v) {
				best = i
			}
		}
		return best
	}

	r, g, b := c.Clamped().RGB255()
	ri, gi, bi := nearest(float64(r)), nearest(float64(g)), nearest(float64(b))
	cube := colorful.Color{R: levels[ri] / 255, G: levels[gi] / 255, B: levels[bi] / 255}

	grey := int((float64(r)+float64(g)+float64(b))/3-8) / 10
	if grey < 0 {
		grey = 0
	} else if grey > 23 {
		grey = 23
	}
	gv := float64(8+grey*10) / 255
	ramp := colorful.Color{R: gv, G: gv, B: gv}

	if c.DistanceLab(ramp) < c.DistanceLab(cube) {
		return 232 + grey
	}
	return 16 + 36*ri + 6*gi + bi
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// StripANSI removes ANSI escape sequences from a string
func StripANSI(s string) string {
	var result strings.Builder
	inEscape := false
	for _, c := range s {
		if inEscape {
			if c == 'm' {
				inEscape = false
			}
		} else if c == '\033' {
			inEscape = true
		} else {
			result.WriteRune(c)
		}
	}
	return result.String()
}

// VisibleWidth is the number of terminal cells s occupies.
func VisibleWidth(s string) int {
	return utf8.RuneCountInString(StripANSI(s))
}

// WrapText wraps text to a specified width
func WrapText(text string, width int) []string {
	if width < 10 {
		width = 40
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var result []string
	var line string
	for _, word := range words {
		switch {
		case line == "":
			line = word
		case utf8.RuneCountInString(line)+1+utf8.RuneCountInString(word) <= width:
			line += " " + word
		default:
			result = append(result, line)
			line = word
		}
	}
	if line != "" {
		result = append(result, line)
	}
	return result
}

// SideBySide places info lines to the right of art, indented by two spaces.
func SideBySide(art string, info []string) string {
	artLines := strings.Split(strings.TrimRight(art, "\n"), "\n")
	if art == "" {
		artLines = nil
	}
	artWidth := 0
	for _, line := range artLines {
		if w := VisibleWidth(line); w > artWidth {
			artWidth = w
		}
	}

	const spacing = 4
	infoCol := artWidth + spacing
	if artWidth == 0 {
		infoCol = 0
	}

	var b strings.Builder
	for i := 0; i < max(len(artLines), len(info)); i++ {
		b.WriteString("  ")
		if i < len(artLines) {
			b.WriteString(artLines[i])
			b.WriteString(strings.Repeat(" ", infoCol-VisibleWidth(artLines[i])))
		} else {
			b.WriteString(strings.Repeat(" ", infoCol))
		}
		if i < len(info) {
			b.WriteString(info[i])
		}
		b.WriteString("\n")
	}
	return b.String()
}

// InfoWidth is the room left for text beside art of artWidth cells.
func InfoWidth(termWidth, artWidth int) int {
	w := termWidth - artWidth - 8
	if w < 20 {
		w = 20
	}
	return w
}
