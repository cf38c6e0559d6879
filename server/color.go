package server

import (
	"math"
	"strconv"
	"strings"
)

// LabelTextColor picks black or white text for a label rendered on the
// given background color, whichever contrasts better. Unparseable colors
// fall back to black on the assumption of a light theme.
func LabelTextColor(background string) string {
	r, g, b, ok := parseHexColor(background)
	if !ok {
		return "#000000"
	}

	luminance := 0.2126*linearize(r) + 0.7152*linearize(g) + 0.0722*linearize(b)
	if luminance > 0.179 {
		return "#000000"
	}
	return "#ffffff"
}

func parseHexColor(s string) (r, g, b uint8, ok bool) {
	s = strings.TrimPrefix(s, "#")

	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return 0, 0, 0, false
	}

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}

	return uint8(v >> 16), uint8(v >> 8), uint8(v), true
}

// linearize converts an sRGB channel to its linear value for the WCAG
// relative luminance formula.
func linearize(c uint8) float64 {
	v := float64(c) / 255
	if v <= 0.04045 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}
