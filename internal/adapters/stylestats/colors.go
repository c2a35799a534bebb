package stylestats

import (
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/tdewolff/parse/v2/css"
)

// colorAt parses the color starting at values[i]: a hex token, an rgb(a) or
// hsl(a) function, or a named color. Alpha is dropped; the result is the
// lowercase #rrggbb form and the index of the color's last token.
func colorAt(values []token, i int) (string, int, bool) {
	tok := values[i]
	switch tok.tt {
	case css.HashToken:
		hex, ok := expandHex(tok.text)
		return hex, i, ok
	case css.IdentToken:
		hex, ok := namedColors[strings.ToLower(tok.text)]
		return hex, i, ok
	case css.FunctionToken:
		name := strings.ToLower(strings.TrimSuffix(tok.text, "("))
		if name != "rgb" && name != "rgba" && name != "hsl" && name != "hsla" {
			return "", i, false
		}
		end := closing(values, i)
		args := numericArgs(values[i+1 : end])
		if len(args) < 3 {
			return "", end, false
		}
		var c colorful.Color
		if strings.HasPrefix(name, "rgb") {
			c = colorful.Color{R: channel(args[0], 255), G: channel(args[1], 255), B: channel(args[2], 255)}
		} else {
			c = colorful.Hsl(hue(args[0]), channel(args[1], 100), channel(args[2], 100))
		}
		return c.Clamped().Hex(), end, true
	default:
		return "", i, false
	}
}

// expandHex accepts #rgb, #rgba, #rrggbb and #rrggbbaa.
func expandHex(text string) (string, bool) {
	digits := strings.ToLower(strings.TrimPrefix(text, "#"))
	for _, r := range digits {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return "", false
		}
	}
	switch len(digits) {
	case 3, 4:
		return string([]byte{'#', digits[0], digits[0], digits[1], digits[1], digits[2], digits[2]}), true
	case 6, 8:
		return "#" + digits[:6], true
	default:
		return "", false
	}
}

// numericArgs keeps the number, percentage and dimension tokens of a function.
func numericArgs(tokens []token) []token {
	var out []token
	for _, tok := range tokens {
		switch tok.tt {
		case css.NumberToken, css.PercentageToken, css.DimensionToken:
			out = append(out, tok)
		}
	}
	return out
}

// channel scales a number or percentage to [0,1], where scale is the value of
// a full channel written as a plain number.
func channel(tok token, scale float64) float64 {
	if tok.tt == css.PercentageToken {
		return clamp(number(strings.TrimSuffix(tok.text, "%")) / 100)
	}
	return clamp(number(tok.text) / scale)
}

// hue returns degrees for a plain number or a deg, rad, grad or turn dimension.
func hue(tok token) float64 {
	text := strings.ToLower(tok.text)
	var deg float64
	switch {
	case strings.HasSuffix(text, "grad"):
		deg = number(strings.TrimSuffix(text, "grad")) * 0.9
	case strings.HasSuffix(text, "rad"):
		deg = number(strings.TrimSuffix(text, "rad")) * 180 / math.Pi
	case strings.HasSuffix(text, "turn"):
		deg = number(strings.TrimSuffix(text, "turn")) * 360
	default:
		deg = number(strings.TrimSuffix(text, "deg"))
	}
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

func number(text string) float64 {
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0
	}
	return v
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// namedColors are the CSS color keywords.
var namedColors = map[string]string{
	"aliceblue": "#f0f8ff", "antiquewhite": "#faebd7", "aqua": "#00ffff", "aquamarine": "#7fffd4",
	"azure": "#f0ffff", "beige": "#f5f5dc", "bisque": "#ffe4c4", "black": "#000000",
	"blanchedalmond": "#ffebcd", "blue": "#0000ff", "blueviolet": "#8a2be2", "brown": "#a52a2a",
	"burlywood": "#deb887", "cadetblue": "#5f9ea0", "chartreuse": "#7fff00", "chocolate": "#d2691e",
	"coral": "#ff7f50", "cornflowerblue": "#6495ed", "cornsilk": "#fff8dc", "crimson": "#dc143c",
	"cyan": "#00ffff", "darkblue": "#00008b", "darkcyan": "#008b8b", "darkgoldenrod": "#b8860b",
	"darkgray": "#a9a9a9", "darkgreen": "#006400", "darkgrey": "#a9a9a9", "darkkhaki": "#bdb76b",
	"darkmagenta": "#8b008b", "darkolivegreen": "#556b2f", "darkorange": "#ff8c00", "darkorchid": "#9932cc",
	"darkred": "#8b0000", "darksalmon": "#e9967a", "darkseagreen": "#8fbc8f", "darkslateblue": "#483d8b",
	"darkslategray": "#2f4f4f", "darkslategrey": "#2f4f4f", "darkturquoise": "#00ced1", "darkviolet": "#9400d3",
	"deeppink": "#ff1493", "deepskyblue": "#00bfff", "dimgray": "#696969", "dimgrey": "#696969",
	"dodgerblue": "#1e90ff", "firebrick": "#b22222", "floralwhite": "#fffaf0", "forestgreen": "#228b22",
	"fuchsia": "#ff00ff", "gainsboro": "#dcdcdc", "ghostwhite": "#f8f8ff", "gold": "#ffd700",
	"goldenrod": "#daa520", "gray": "#808080", "green": "#008000", "greenyellow": "#adff2f",
	"grey": "#808080", "honeydew": "#f0fff0", "hotpink": "#ff69b4", "indianred": "#cd5c5c",
	"indigo": "#4b0082", "ivory": "#fffff0", "khaki": "#f0e68c", "lavender": "#e6e6fa",
	"lavenderblush": "#fff0f5", "lawngreen": "#7cfc00", "lemonchiffon": "#fffacd", "lightblue": "#add8e6",
	"lightcoral": "#f08080", "lightcyan": "#e0ffff", "lightgoldenrodyellow": "#fafad2", "lightgray": "#d3d3d3",
	"lightgreen": "#90ee90", "lightgrey": "#d3d3d3", "lightpink": "#ffb6c1", "lightsalmon": "#ffa07a",
	"lightseagreen": "#20b2aa", "lightskyblue": "#87cefa", "lightslategray": "#778899", "lightslategrey": "#778899",
	"lightsteelblue": "#b0c4de", "lightyellow": "#ffffe0", "lime": "#00ff00", "limegreen": "#32cd32",
	"linen": "#faf0e6", "magenta": "#ff00ff", "maroon": "#800000", "mediumaquamarine": "#66cdaa",
	"mediumblue": "#0000cd", "mediumorchid": "#ba55d3", "mediumpurple": "#9370db", "mediumseagreen": "#3cb371",
	"mediumslateblue": "#7b68ee", "mediumspringgreen": "#00fa9a", "mediumturquoise": "#48d1cc", "mediumvioletred": "#c71585",
	"midnightblue": "#191970", "mintcream": "#f5fffa", "mistyrose": "#ffe4e1", "moccasin": "#ffe4b5",
	"navajowhite": "#ffdead", "navy": "#000080", "oldlace": "#fdf5e6", "olive": "#808000",
	"olivedrab": "#6b8e23", "orange": "#ffa500", "orangered": "#ff4500", "orchid": "#da70d6",
	"palegoldenrod": "#eee8aa", "palegreen": "#98fb98", "paleturquoise": "#afeeee", "palevioletred": "#db7093",
	"papayawhip": "#ffefd5", "peachpuff": "#ffdab9", "peru": "#cd853f", "pink": "#ffc0cb",
	"plum": "#dda0dd", "powderblue": "#b0e0e6", "purple": "#800080", "rebeccapurple": "#663399",
	"red": "#ff0000", "rosybrown": "#bc8f8f", "royalblue": "#4169e1", "saddlebrown": "#8b4513",
	"salmon": "#fa8072", "sandybrown": "#f4a460", "seagreen": "#2e8b57", "seashell": "#fff5ee",
	"sienna": "#a0522d", "silver": "#c0c0c0", "skyblue": "#87ceeb", "slateblue": "#6a5acd",
	"slategray": "#708090", "slategrey": "#708090", "snow": "#fffafa", "springgreen": "#00ff7f",
	"steelblue": "#4682b4", "tan": "#d2b48c", "teal": "#008080", "thistle": "#d8bfd8",
	"tomato": "#ff6347", "turquoise": "#40e0d0", "violet": "#ee82ee", "wheat": "#f5deb3",
	"white": "#ffffff", "whitesmoke": "#f5f5f5", "yellow": "#ffff00", "yellowgreen": "#9acd32",
}
