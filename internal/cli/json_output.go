package cli

import (
	"encoding/json"
	"fmt"

	"github.com/amterp/tally/internal/model"
)

// counterJson represents a counter with its list position for JSON output.
//
// SYNC WARNING: This struct must stay in sync with model.Counter fields.
// If you add fields to model.Counter, add them here too. See TestCounterJsonFieldSync.
type counterJson struct {
	ID           string `json:"id"`
	Position     int    `json:"position"`
	Name         string `json:"name"`
	InitialValue int64  `json:"initial_value"`
	Value        int64  `json:"value"`
	ColorName    string `json:"color_name"`
	ColorHex     string `json:"color_hex"`
}

func counterToJson(c model.Counter, position int) counterJson {
	return counterJson{
		ID:           c.ID,
		Position:     position,
		Name:         c.Name,
		InitialValue: c.InitialValue,
		Value:        c.Value,
		ColorName:    c.ColorName,
		ColorHex:     c.ColorHex,
	}
}

// CounterOutput wraps a single counter for JSON output.
type CounterOutput struct {
	Counter counterJson `json:"counter"`
}

// NewCounterOutput creates a CounterOutput from a counter and its 1-based position.
func NewCounterOutput(counter model.Counter, position int) CounterOutput {
	return CounterOutput{Counter: counterToJson(counter, position)}
}

// ListOutput wraps the counter list for JSON output.
type ListOutput struct {
	Counters []counterJson `json:"counters"`
}

// NewListOutput creates a ListOutput from the ordered collection.
// Always returns an empty array (not null) when there are no counters.
func NewListOutput(counters []model.Counter) ListOutput {
	result := make([]counterJson, 0, len(counters))
	for i, c := range counters {
		result = append(result, counterToJson(c, i+1))
	}
	return ListOutput{Counters: result}
}

// DeleteOutput reports a removed counter for JSON output.
type DeleteOutput struct {
	Deleted counterJson `json:"deleted"`
}

// ColorInfo represents one palette entry for JSON output.
type ColorInfo struct {
	Name string `json:"name"`
	Hex  string `json:"hex"`
}

// ColorsOutput wraps the palette for JSON output.
type ColorsOutput struct {
	Colors []ColorInfo `json:"colors"`
}

// NewColorsOutput creates a ColorsOutput from palette names in display order.
func NewColorsOutput(names []string) ColorsOutput {
	colors := make([]ColorInfo, 0, len(names))
	for _, name := range names {
		colors = append(colors, ColorInfo{Name: name, Hex: model.ColorHex(name)})
	}
	return ColorsOutput{Colors: colors}
}

// printJson marshals the value as indented JSON and prints it to stdout.
func printJson(v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(output))
	return nil
}

// warnJsonNotSupported prints a warning to stderr when --json is used on an unsupported command.
func warnJsonNotSupported(command string) {
	PrintWarning("--json is not supported for '%s' (flag ignored)", command)
}
