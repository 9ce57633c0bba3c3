package resolver

import (
	"fmt"
	"strconv"
	"strings"

	tallyerr "github.com/amterp/tally/internal/errors"
	"github.com/amterp/tally/internal/model"
	"github.com/amterp/tally/internal/util"
)

// CounterLister is the read side of the counter service.
type CounterLister interface {
	GetAll() []model.Counter
}

// CounterResolver turns a user-typed reference into a counter.
type CounterResolver struct {
	counters CounterLister
}

// NewCounterResolver creates a new counter resolver.
func NewCounterResolver(counters CounterLister) *CounterResolver {
	return &CounterResolver{counters: counters}
}

// Resolve finds a counter by, in order:
//  1. exact ID
//  2. 1-based position in the list, as shown by `tally list`
//  3. case-insensitive name
//  4. name slug, whole or as a leading run of words ("push" for "Push-ups")
//
// The first rule with any match wins; more than one match within a rule is
// ambiguous.
func (r *CounterResolver) Resolve(ref string) (model.Counter, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.Counter{}, tallyerr.InvalidField("counter", "reference is empty")
	}

	all := r.counters.GetAll()

	for _, c := range all {
		if c.ID == ref {
			return c, nil
		}
	}

	if n, err := strconv.Atoi(ref); err == nil {
		if n >= 1 && n <= len(all) {
			return all[n-1], nil
		}
	}

	rules := []func(c model.Counter) bool{
		func(c model.Counter) bool { return strings.EqualFold(c.Name, ref) },
		func(c model.Counter) bool { return util.Slugify(c.Name) == util.Slugify(ref) },
		func(c model.Counter) bool { return util.SlugHasPrefix(c.Name, ref) },
	}
	for _, match := range rules {
		var found []model.Counter
		for _, c := range all {
			if match(c) {
				found = append(found, c)
			}
		}
		switch len(found) {
		case 0:
			continue
		case 1:
			return found[0], nil
		default:
			return model.Counter{}, tallyerr.AmbiguousCounter(ref, describe(found, all))
		}
	}

	return model.Counter{}, tallyerr.CounterNotFound(ref)
}

// describe labels matches with their list position so the user can pick one.
func describe(found, all []model.Counter) []string {
	out := make([]string, 0, len(found))
	for _, c := range found {
		pos := 0
		for i := range all {
			if all[i].ID == c.ID {
				pos = i + 1
				break
			}
		}
		out = append(out, fmt.Sprintf("#%d %s", pos, c.Name))
	}
	return out
}
