// Package id mints the short IDs that let collaborators reference a counter
// across processes.
package id

import (
	"strings"
	"time"

	fid "github.com/amterp/flexid"
)

// Millisecond ticks plus a few random characters keep IDs short. Callers
// check new IDs against the collection, so a rare collision only costs a retry.
var generator = fid.MustNewGenerator(
	fid.NewConfig().
		WithEpoch(time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)).
		WithTickSize(time.Millisecond).
		WithNumRandomChars(3),
)

// New returns a new unique counter ID.
func New() string {
	return generator.MustGenerate()
}

// Missing reports whether a stored ID needs to be assigned.
func Missing(id string) bool {
	return strings.TrimSpace(id) == ""
}
