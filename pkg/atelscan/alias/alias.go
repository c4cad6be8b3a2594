// Package alias resolves canonical astronomical-object identifiers from
// free text using an externally supplied alias table.
package alias

import "strings"

// Alias maps one alternate textual name to a canonical object identifier.
// Both sides are matched case-insensitively.
type Alias struct {
	Name     string
	ObjectID string
}

// Snapshot is an immutable, match-ready view of one alias-table read.
// Build one per batch and share it freely; a Snapshot never changes after
// construction, so resolving against it is safe from any number of
// goroutines.
type Snapshot struct {
	entries []snapshotEntry
}

type snapshotEntry struct {
	name     string
	objectID string
}

// NewSnapshot builds a Snapshot from the alias table in its given order.
func NewSnapshot(aliases []Alias) *Snapshot {
	entries := make([]snapshotEntry, 0, len(aliases))
	for _, a := range aliases {
		entries = append(entries, snapshotEntry{
			name:     strings.ToLower(a.Name),
			objectID: strings.ToLower(a.ObjectID),
		})
	}
	return &Snapshot{entries: entries}
}

// Len returns the number of alias entries in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.entries)
}

// Resolve returns the canonical object ids found in the text. For each
// table entry, the alias name is searched first and the object id second;
// an entry contributes at most one id. The result is de-duplicated
// preserving first-occurrence order.
func (s *Snapshot) Resolve(text string) []string {
	padded := " " + strings.ToLower(text) + " "

	var out []string
	seen := make(map[string]struct{})
	for _, e := range s.entries {
		if !containsToken(padded, e.name) && !containsToken(padded, e.objectID) {
			continue
		}
		if _, ok := seen[e.objectID]; ok {
			continue
		}
		seen[e.objectID] = struct{}{}
		out = append(out, e.objectID)
	}
	return out
}

// containsToken reports whether token occurs in padded bounded by
// non-alphanumeric characters on both sides. This is a plain substring
// scan rather than a per-entry regular expression, so a snapshot can be
// matched against many documents without recompilation.
func containsToken(padded, token string) bool {
	if token == "" {
		return false
	}
	for from := 0; ; {
		i := strings.Index(padded[from:], token)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(token)
		before := byte(' ')
		if start > 0 {
			before = padded[start-1]
		}
		after := byte(' ')
		if end < len(padded) {
			after = padded[end]
		}
		if !isAlphanumeric(before) && !isAlphanumeric(after) {
			return true
		}
		from = start + 1
	}
}

func isAlphanumeric(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9'
}
