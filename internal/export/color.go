package export

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// parseColor converts the CSS colors produced by the palette (hex, rgb(a),
// hsl(a) and linear-gradient) into a drawing color. Gradients use their
// first stop. Unknown input falls back to blue.
func parseColor(s string) drawing.Color {
	s = strings.TrimSpace(strings.ToLower(s))
	if strings.HasPrefix(s, "linear-gradient(") {
		for _, fn := range []string{"hsla(", "hsl(", "rgba(", "rgb(", "#"} {
			if i := strings.Index(s, fn); i >= 0 {
				return parseColor(firstColorAt(s[i:]))
			}
		}
		return chart.ColorBlue
	}
	switch {
	case strings.HasPrefix(s, "#"):
		hex := strings.TrimPrefix(s, "#")
		if len(hex) != 3 && len(hex) != 6 {
			return chart.ColorBlue
		}
		return drawing.ColorFromHex(hex)
	case strings.HasPrefix(s, "rgb"):
		args, ok := funcArgs(s)
		if !ok || len(args) < 3 {
			return chart.ColorBlue
		}
		c := drawing.Color{
			R: clampByte(args[0]),
			G: clampByte(args[1]),
			B: clampByte(args[2]),
			A: 255,
		}
		if len(args) > 3 {
			c.A = clampByte(args[3] * 255)
		}
		return c
	case strings.HasPrefix(s, "hsl"):
		args, ok := funcArgs(s)
		if !ok || len(args) < 3 {
			return chart.ColorBlue
		}
		r, g, b := hslToRGB(args[0], args[1]/100, args[2]/100)
		c := drawing.Color{R: clampByte(r * 255), G: clampByte(g * 255), B: clampByte(b * 255), A: 255}
		if len(args) > 3 {
			c.A = clampByte(args[3] * 255)
		}
		return c
	}
	return chart.ColorBlue
}

// firstColorAt cuts the color function or hex code at the start of s.
func firstColorAt(s string) string {
	if strings.HasPrefix(s, "#") {
		end := 1
		for end < len(s) && strings.ContainsRune("0123456789abcdef", rune(s[end])) {
			end++
		}
		return s[:end]
	}
	if i := strings.IndexByte(s, ')'); i >= 0 {
		return s[:i+1]
	}
	return s
}

func funcArgs(s string) ([]float64, bool) {
	open, closing := strings.IndexByte(s, '('), strings.LastIndexByte(s, ')')
	if open < 0 || closing < open {
		return nil, false
	}
	parts := strings.Split(s[open+1:closing], ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSuffix(strings.TrimSpace(p), "%")
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, false
		}
		out = append(out, f)
	}
	return out, true
}

func hslToRGB(h, s, l float64) (float64, float64, float64) {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := l - c/2
	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return r + m, g + m, b + m
}

func clampByte(v float64) uint8 {
	switch {
	case v <= 0 || math.IsNaN(v):
		return 0
	case v >= 255:
		return 255
	}
	return uint8(math.Round(v))
}

// HexColor converts a palette color to "#rrggbb", dropping alpha, for
// renderers that only understand hex such as terminal styles.
func HexColor(css string) string {
	c := parseColor(css)
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
