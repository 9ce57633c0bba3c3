package version

import (
	"fmt"
)

// SchemaVersionError indicates a schema version problem in the global config.
type SchemaVersionError struct {
	FilePath    string // Path to the problematic file
	Found       string // What was found (e.g., "missing", "global/2")
	Expected    string // What was expected (e.g., "global/1")
	MinRequired string // Minimum tally version required (if upgrade needed)
}

func (e *SchemaVersionError) Error() string {
	if e.MinRequired != "" {
		return fmt.Sprintf(
			"global config schema %s requires tally >= %s (file: %s, supports up to: %s)",
			e.Found, e.MinRequired, e.FilePath, e.Expected,
		)
	}
	if e.Found == "missing" {
		return fmt.Sprintf(
			"global config has no tally_schema (file: %s). Add tally_schema = %q.",
			e.FilePath, e.Expected,
		)
	}
	return fmt.Sprintf(
		"global config has invalid schema: found %s, expected %s (file: %s)",
		e.Found, e.Expected, e.FilePath,
	)
}

// MissingGlobalSchema creates an error for a global config missing tally_schema.
func MissingGlobalSchema(path string) error {
	return &SchemaVersionError{
		FilePath: path,
		Found:    "missing",
		Expected: CurrentGlobalSchema(),
	}
}

// InvalidGlobalSchema creates an error for a global config with unsupported schema.
func InvalidGlobalSchema(path, found string) error {
	e := &SchemaVersionError{
		FilePath: path,
		Found:    found,
		Expected: CurrentGlobalSchema(),
	}
	if v, err := ParseGlobalVersion(found); err == nil && v > CurrentGlobalVersion {
		if minTally, ok := MinTallyVersion[found]; ok {
			e.MinRequired = minTally
		} else {
			e.MinRequired = "a newer version"
		}
	}
	return e
}
