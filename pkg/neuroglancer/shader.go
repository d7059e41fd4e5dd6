package neuroglancer

import (
	"fmt"
	"regexp"
	"strconv"
)

var bareHex = regexp.MustCompile(`^[0-9A-Fa-f]{6}$`)

// Shader returns a Neuroglancer shader with a color picker defaulted to color
// and an intensity window over [min, max].
//
// A color of exactly six hex digits gets a leading "#". Any other value is
// used as given.
func Shader(color string, min, max float64) string {
	if bareHex.MatchString(color) {
		color = "#" + color
	}
	return fmt.Sprintf("#uicontrol vec3 color color(default=\"%s\")\n"+
		"#uicontrol invlerp normalized(range=[%s, %s])\n"+
		"void main() { emitRGB(color * normalized()); }",
		color, formatNumber(min), formatNumber(max))
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
