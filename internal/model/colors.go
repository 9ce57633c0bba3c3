package model

import "strings"

// DefaultColorName is used whenever a counter's color is blank or unknown.
const DefaultColorName = "Blue"

// ColorNames is the fixed, ordered palette offered to users.
var ColorNames = []string{
	"Blue",
	"Red",
	"Green",
	"Yellow",
	"Purple",
	"Orange",
	"Teal",
	"Pink",
	"Gray",
	"Indigo",
}

var colorHexByName = map[string]string{
	"Blue":   "#1565C0",
	"Red":    "#C62828",
	"Green":  "#2E7D32",
	"Yellow": "#F9A825",
	"Purple": "#6A1B9A",
	"Orange": "#EF6C00",
	"Teal":   "#00695C",
	"Pink":   "#AD1457",
	"Gray":   "#455A64",
	"Indigo": "#283593",
}

// AvailableColors returns a copy of the palette in display order.
func AvailableColors() []string {
	names := make([]string, len(ColorNames))
	copy(names, ColorNames)
	return names
}

// IsKnownColor reports whether name is an exact palette key.
func IsKnownColor(name string) bool {
	_, ok := colorHexByName[name]
	return ok
}

// ColorHex returns the hex for a palette name, falling back to the default
// color's hex when the name is not in the palette.
func ColorHex(name string) string {
	if hex, ok := colorHexByName[name]; ok {
		return hex
	}
	return colorHexByName[DefaultColorName]
}

// ResolveColor maps a requested color name to a palette entry.
// Blank or unrecognized names collapse to the default color.
func ResolveColor(name string) (string, string) {
	name = strings.TrimSpace(name)
	if !IsKnownColor(name) {
		name = DefaultColorName
	}
	return name, colorHexByName[name]
}

// CanonicalColorName matches user input against the palette ignoring case,
// e.g. "red" -> "Red". Unmatched input is returned trimmed but otherwise as-is.
func CanonicalColorName(input string) string {
	input = strings.TrimSpace(input)
	for _, name := range ColorNames {
		if strings.EqualFold(name, input) {
			return name
		}
	}
	return input
}
