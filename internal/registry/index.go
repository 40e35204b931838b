// Package registry resolves human-friendly vehicle identifiers (plate,
// garage number, VIN) to provider terminal IDs. The index is built once at
// startup from a snapshot file and is read-only afterwards.
package registry

import (
	"sort"
	"strings"
	"unicode"

	"github.com/fleetpulse-io/fleetpulse/internal/pkg/util"
)

// minFuzzyQueryLen is the shortest normalized query accepted by fuzzy
// search. Substring matching below this length against a large index is
// noisy and wasteful, so it is rejected before any scan.
const minFuzzyQueryLen = 2

// VehicleDetails is descriptive metadata for one terminal ID.
type VehicleDetails struct {
	Plate string `json:"plate"`
	Name  string `json:"name"`
	Brand string `json:"brand"`
	Model string `json:"model"`
}

// Match is one fuzzy-search hit.
type Match struct {
	TerminalID string
	Key        string
}

// Index maps normalized identifier keys to terminal IDs. Immutable after
// construction, so concurrent reads need no locking.
type Index struct {
	keys    map[string]string
	order   []string
	details map[string]VehicleDetails
}

// Normalize strips all whitespace from s and upper-cases the remainder.
// Pure, total and idempotent.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}

// NewIndex builds an Index from raw key and details maps. Keys are
// normalized on insertion; colliding normalized keys overwrite.
func NewIndex(keys map[string]string, details map[string]VehicleDetails) *Index {
	idx := &Index{
		keys:    make(map[string]string, len(keys)),
		order:   make([]string, 0, len(keys)),
		details: make(map[string]VehicleDetails, len(details)),
	}
	for k, id := range keys {
		nk := Normalize(k)
		if nk == "" {
			continue
		}
		if _, seen := idx.keys[nk]; !seen {
			idx.order = append(idx.order, nk)
		}
		idx.keys[nk] = id
	}
	// Map iteration order is random; fix the scan order once so fuzzy
	// results are stable across runs.
	sort.Strings(idx.order)
	for id, d := range details {
		idx.details[id] = d
	}
	return idx
}

// ResolveExact returns the terminal ID for the normalized form of text, or
// util.ErrNotFound.
func (idx *Index) ResolveExact(text string) (string, error) {
	if id, ok := idx.keys[Normalize(text)]; ok {
		return id, nil
	}
	return "", util.ErrNotFound
}

// ResolveFuzzy returns up to limit distinct terminal IDs whose any key
// contains the normalized query as a substring, in first-encountered key
// order, de-duplicated by terminal ID. Queries shorter than two normalized
// characters are rejected before any scan.
func (idx *Index) ResolveFuzzy(text string, limit int) ([]Match, error) {
	q := Normalize(text)
	if len([]rune(q)) < minFuzzyQueryLen {
		return nil, util.NewValidationError("search query must have at least %d characters", minFuzzyQueryLen)
	}
	if limit <= 0 {
		return nil, nil
	}

	var matches []Match
	seen := make(map[string]struct{})
	for _, key := range idx.order {
		if !strings.Contains(key, q) {
			continue
		}
		id := idx.keys[key]
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		matches = append(matches, Match{TerminalID: id, Key: key})
		if len(matches) >= limit {
			break
		}
	}
	return matches, nil
}

// Details returns the descriptive metadata for a terminal ID. The zero
// value is returned for unknown IDs.
func (idx *Index) Details(terminalID string) VehicleDetails {
	return idx.details[terminalID]
}

// TerminalIDs returns every distinct terminal ID known to the details map.
func (idx *Index) TerminalIDs() []string {
	ids := make([]string, 0, len(idx.details))
	for id := range idx.details {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len reports the number of indexed keys.
func (idx *Index) Len() int { return len(idx.keys) }
