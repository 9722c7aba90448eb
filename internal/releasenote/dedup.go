package releasenote

// Dedup drops entries whose rendered form was already seen, keeping the
// first occurrence and the original order. Matching is exact: entries that
// differ only in whitespace or punctuation are kept apart.
func Dedup(entries []Entry) []Entry {
	seen := make(map[string]bool, len(entries))
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		key := e.Render()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e)
	}
	return out
}

// DedupStrings is Dedup for already rendered entries
func DedupStrings(entries []string) []string {
	seen := make(map[string]bool, len(entries))
	out := make([]string, 0, len(entries))
	for _, s := range entries {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
