package model

import (
	"strconv"
	"strings"
)

// DefaultCounterName is used when a counter is created with a blank name.
const DefaultCounterName = "Counter"

// Counter is a named, colored tally with a remembered initial value.
// The JSON field names match the counters.json file format.
type Counter struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name"`
	InitialValue int64  `json:"initialValue"`
	Value        int64  `json:"value"`
	ColorName    string `json:"colorName"`
	ColorHex     string `json:"colorHex"`
}

// NewCounter builds a counter from raw user input, applying the creation
// defaults: trimmed name (or "Counter"), initial value parsed from text
// (0 on failure), and a palette color (default on blank/unknown).
func NewCounter(name, initialValueText, colorName string) *Counter {
	initial := ParseInitialValue(initialValueText)
	colorName, colorHex := ResolveColor(colorName)
	return &Counter{
		Name:         NormalizeName(name),
		InitialValue: initial,
		Value:        initial,
		ColorName:    colorName,
		ColorHex:     colorHex,
	}
}

// NormalizeName trims a counter name, substituting the default when blank.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultCounterName
	}
	return name
}

// ParseInitialValue parses user-entered text as an integer, returning 0 when
// the text is not a valid integer.
func ParseInitialValue(text string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// NormalizeLoaded fills color fields for a counter read from disk.
// A blank or unrecognized color name collapses to the default color and its
// hex. For a recognized name, a blank hex is derived from the palette and a
// stored hex is left alone.
func (c *Counter) NormalizeLoaded() {
	if !IsKnownColor(c.ColorName) {
		c.ColorName = DefaultColorName
		c.ColorHex = ColorHex(DefaultColorName)
		return
	}
	if strings.TrimSpace(c.ColorHex) == "" {
		c.ColorHex = ColorHex(c.ColorName)
	}
}

// SetColor replaces the counter's color, collapsing unknown names to the default.
func (c *Counter) SetColor(colorName string) {
	c.ColorName, c.ColorHex = ResolveColor(colorName)
}
