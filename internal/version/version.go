package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Current schema versions - bump these when making breaking changes.
//
// counters.json has no version stamp: it is a bare array and is read with
// best-effort defaulting, so only the global config is versioned.
//
// CHECKLIST when bumping a version:
//  1. Update the constant below
//  2. Add entry to MinTallyVersion map (tested by TestMinTallyVersionCompleteness)
const (
	CurrentGlobalVersion = 1
)

// GlobalSchemaPrefix prefixes the tally_schema value of the global config.
const GlobalSchemaPrefix = "global/"

// MinTallyVersion maps schema identifiers to the minimum tally version required.
// Used to provide helpful upgrade messages when encountering newer schemas.
var MinTallyVersion = map[string]string{
	"global/1": "0.1.0",
}

// FormatGlobalSchema creates a global schema string from a version number.
// Example: FormatGlobalSchema(1) returns "global/1"
func FormatGlobalSchema(v int) string {
	return fmt.Sprintf("%s%d", GlobalSchemaPrefix, v)
}

// ParseGlobalVersion extracts the version number from a global schema string.
// Returns an error if the format is invalid.
func ParseGlobalVersion(schema string) (int, error) {
	if !strings.HasPrefix(schema, GlobalSchemaPrefix) {
		return 0, fmt.Errorf("invalid global schema format: %q (expected %sN)", schema, GlobalSchemaPrefix)
	}
	versionStr := strings.TrimPrefix(schema, GlobalSchemaPrefix)
	v, err := strconv.Atoi(versionStr)
	if err != nil {
		return 0, fmt.Errorf("invalid global schema version: %q", versionStr)
	}
	if v < 1 {
		return 0, fmt.Errorf("invalid global schema version: %d (must be >= 1)", v)
	}
	return v, nil
}

// CurrentGlobalSchema returns the current global schema string.
func CurrentGlobalSchema() string {
	return FormatGlobalSchema(CurrentGlobalVersion)
}
