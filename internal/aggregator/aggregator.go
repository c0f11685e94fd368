// Package aggregator ranks the streets and intersections that collect the
// most pothole reports.
package aggregator

import "sort"

const (
	DefaultStreetLimit        = 10
	DefaultIntersectionCutoff = 10

	// minIntersectionCount drops intersections reported only once.
	minIntersectionCount = 2
)

// RankedEntry is a group key and the number of addresses that mapped to it.
type RankedEntry struct {
	Name  string
	Count int
}

// Result holds both rankings. Both slices are sorted by Count descending,
// ties in first-seen order.
type Result struct {
	Streets       []RankedEntry
	Intersections []RankedEntry
	// Skipped counts nil and blank inputs.
	Skipped int
}

// Aggregator is safe for concurrent use; Aggregate keeps no state between calls.
type Aggregator struct {
	streetLimit        int
	intersectionCutoff int
}

// New returns an Aggregator with the default limits overridden by opts.
func New(opts ...Option) (*Aggregator, error) {
	a := &Aggregator{
		streetLimit:        DefaultStreetLimit,
		intersectionCutoff: DefaultIntersectionCutoff,
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	return a, nil
}

// Aggregate classifies and counts addresses in a single pass.
//
// Streets are cut to the street limit. Intersections are cut to the
// intersection cutoff first and then filtered to entries seen at least twice,
// so the result can hold fewer than cutoff entries even when more qualifying
// intersections exist further down.
func (a *Aggregator) Aggregate(addresses []*string) Result {
	streets := newCounter()
	intersections := newCounter()
	skipped := 0

	for _, raw := range addresses {
		if raw == nil {
			skipped++
			continue
		}
		addr, ok := Normalize(*raw)
		if !ok {
			skipped++
			continue
		}

		switch addr.Kind {
		case Intersection:
			intersections.add(addr.Key)
		default:
			streets.add(addr.Key)
		}
	}

	candidates := intersections.mostCommon(a.intersectionCutoff)
	kept := make([]RankedEntry, 0, len(candidates))
	for _, e := range candidates {
		if e.Count >= minIntersectionCount {
			kept = append(kept, e)
		}
	}

	return Result{
		Streets:       streets.mostCommon(a.streetLimit),
		Intersections: kept,
		Skipped:       skipped,
	}
}

// counter remembers first-seen order so equal counts rank deterministically.
type counter struct {
	counts map[string]int
	order  []string
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(key string) {
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

func (c *counter) mostCommon(n int) []RankedEntry {
	entries := make([]RankedEntry, 0, len(c.order))
	for _, key := range c.order {
		entries = append(entries, RankedEntry{Name: key, Count: c.counts[key]})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	if len(entries) > n {
		entries = entries[:n]
	}

	return entries
}
