package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Entry describes a single sellable product. Code is the short internal
// identifier used on purchase units; Aliases carry provider-specific opaque
// identifiers (for example hosted-button ids) that should resolve to the
// same product.
type Entry struct {
	Code     string   `json:"code"`
	Name     string   `json:"name"`
	Price    string   `json:"price"`
	Currency string   `json:"currency"`
	URL      string   `json:"url,omitempty"`
	ImageURL string   `json:"imageUrl,omitempty"`
	Aliases  []string `json:"aliases,omitempty"`
}

// Catalog is a read-only product mapping built once at startup.
type Catalog struct {
	entries map[string]Entry
	aliases map[string]string
	codes   []string
}

// New constructs a catalog from the provided entries. Codes and aliases are
// normalised to upper-case; duplicates are rejected.
func New(entries []Entry) (*Catalog, error) {
	c := &Catalog{
		entries: make(map[string]Entry, len(entries)),
		aliases: make(map[string]string),
	}
	for _, e := range entries {
		code := normalize(e.Code)
		if code == "" {
			return nil, fmt.Errorf("catalog: entry %q has an empty code", e.Name)
		}
		if _, exists := c.entries[code]; exists {
			return nil, fmt.Errorf("catalog: duplicate code %s", code)
		}
		e.Code = code
		c.entries[code] = e
		c.codes = append(c.codes, code)
		for _, alias := range e.Aliases {
			a := normalize(alias)
			if a == "" {
				continue
			}
			if prev, exists := c.aliases[a]; exists && prev != code {
				return nil, fmt.Errorf("catalog: alias %s registered for both %s and %s", a, prev, code)
			}
			c.aliases[a] = code
		}
	}
	// Longer codes first so that substring matching prefers the more
	// specific code when one is embedded in another's free text.
	sort.Slice(c.codes, func(i, j int) bool {
		if len(c.codes[i]) != len(c.codes[j]) {
			return len(c.codes[i]) > len(c.codes[j])
		}
		return c.codes[i] < c.codes[j]
	})
	return c, nil
}

// LoadFile reads catalog entries from a JSON file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}
	return New(entries)
}

// Get returns the entry for the given code.
func (c *Catalog) Get(code string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	e, ok := c.entries[normalize(code)]
	return e, ok
}

// Codes returns catalog codes ordered longest-first (the substring scan order).
func (c *Catalog) Codes() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.codes))
	copy(out, c.codes)
	return out
}

// Len reports the number of entries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

func normalize(v string) string {
	return strings.ToUpper(strings.TrimSpace(v))
}
