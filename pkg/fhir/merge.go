package fhir

import "errors"

// ErrEmptyPageSequence indicates MergeExpansionPages was called with no
// pages. This is a contract violation by the caller, not an expected
// runtime condition.
var ErrEmptyPageSequence = errors.New("empty page sequence")

// MergeExpansionPages flattens an in-order sequence of expansion pages
// into a single ValueSet. All envelope fields come from the first page
// verbatim; only the expansion contains list is replaced with the ordered
// concatenation of every page's contains list.
func MergeExpansionPages(pages []*ValueSet) (*ValueSet, error) {
	if len(pages) == 0 {
		return nil, ErrEmptyPageSequence
	}

	merged := *pages[0]
	if merged.Expansion == nil {
		return &merged, nil
	}

	expansion := *merged.Expansion
	var contains []Concept
	for _, page := range pages {
		if page.Expansion == nil {
			continue
		}
		contains = append(contains, page.Expansion.Contains...)
	}
	expansion.Contains = contains
	merged.Expansion = &expansion

	return &merged, nil
}
