package editconfig

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// NormalizeColor converts an HTML color literal to lowercase #rrggbb.
// Accepted forms are #rgb, #rrggbb, rgb(r, g, b) and the SVG named colors.
func NormalizeColor(s string) (string, error) {
	c := strings.ToLower(strings.TrimSpace(s))
	if c == "" {
		return "", fmt.Errorf("empty color")
	}

	switch {
	case strings.HasPrefix(c, "#"):
		return normalizeHex(c)
	case strings.HasPrefix(c, "rgb(") && strings.HasSuffix(c, ")"):
		return normalizeRGB(c)
	}

	if rgba, ok := colornames.Map[c]; ok {
		return fmt.Sprintf("#%02x%02x%02x", rgba.R, rgba.G, rgba.B), nil
	}
	return "", fmt.Errorf("unknown color %q", s)
}

// SameColor reports whether two color literals render the same.
// Unparsable literals never match anything.
func SameColor(a, b string) bool {
	na, err := NormalizeColor(a)
	if err != nil {
		return false
	}
	nb, err := NormalizeColor(b)
	if err != nil {
		return false
	}
	return na == nb
}

func normalizeHex(c string) (string, error) {
	digits := c[1:]
	for i := 0; i < len(digits); i++ {
		if !isHexDigit(digits[i]) {
			return "", fmt.Errorf("invalid hex color %q", c)
		}
	}
	switch len(digits) {
	case 3:
		var b strings.Builder
		b.WriteByte('#')
		for i := 0; i < 3; i++ {
			b.WriteByte(digits[i])
			b.WriteByte(digits[i])
		}
		return b.String(), nil
	case 6:
		return c, nil
	default:
		return "", fmt.Errorf("invalid hex color %q", c)
	}
}

func normalizeRGB(c string) (string, error) {
	inner := strings.TrimSuffix(strings.TrimPrefix(c, "rgb("), ")")
	parts := strings.Split(inner, ",")
	if len(parts) != 3 {
		return "", fmt.Errorf("invalid rgb color %q", c)
	}
	var rgb [3]int
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || v < 0 || v > 255 {
			return "", fmt.Errorf("invalid rgb component %q in %q", strings.TrimSpace(part), c)
		}
		rgb[i] = v
	}
	return fmt.Sprintf("#%02x%02x%02x", rgb[0], rgb[1], rgb[2]), nil
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f')
}
