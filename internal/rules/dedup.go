package rules

// Dedup keeps one violation per path: the one with the strictly largest
// SortKey. On ties the earliest one wins. Output preserves the order in
// which paths were first seen.
func Dedup(violations []Violation) []Violation {
	if len(violations) == 0 {
		return nil
	}

	index := make(map[string]int, len(violations))
	out := make([]Violation, 0, len(violations))
	for _, v := range violations {
		i, seen := index[v.Path]
		if !seen {
			index[v.Path] = len(out)
			out = append(out, v)
			continue
		}
		if v.SortKey > out[i].SortKey {
			out[i] = v
		}
	}
	return out
}

// Merge combines live-tree and history findings. Live findings go first so
// they win ties against history.
func Merge(live, history []Violation) []Violation {
	all := make([]Violation, 0, len(live)+len(history))
	all = append(all, live...)
	all = append(all, history...)
	return Dedup(all)
}
