package catalog

import "strings"

// Resolve maps loosely-structured order text to a catalog entry. Candidates
// are tried in the caller's priority order, normalised to upper-case trimmed
// text. Exact matches (against codes and registered aliases) are exhausted
// across all candidates before any substring matching happens, so a precise
// identifier in a low-priority field still beats fuzzy text in a high-priority
// one. Within the substring pass a candidate matches the first catalog code it
// contains, scanning codes longest-first.
//
// The substring pass can false-positive when a catalog code appears inside
// unrelated free text. That is an accepted limitation of text-based matching:
// hosted-button checkouts carry product identity only as inconsistent prose.
func (c *Catalog) Resolve(candidates ...string) (Entry, bool) {
	if c == nil || len(c.entries) == 0 {
		return Entry{}, false
	}

	normalized := make([]string, 0, len(candidates))
	for _, cand := range candidates {
		if v := normalize(cand); v != "" {
			normalized = append(normalized, v)
		}
	}

	for _, cand := range normalized {
		if e, ok := c.entries[cand]; ok {
			return e, true
		}
		if code, ok := c.aliases[cand]; ok {
			return c.entries[code], true
		}
	}

	for _, cand := range normalized {
		for _, code := range c.codes {
			if strings.Contains(cand, code) {
				return c.entries[code], true
			}
		}
	}

	return Entry{}, false
}
