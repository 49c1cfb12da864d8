package changelog

const DefaultContextRadius = 3

// Window reduces a diff to its changed entries plus radius entries of context on each side.
// One separator entry is inserted wherever two kept entries are not adjacent in diff.
// The result is for display only and cannot be used to rebuild file content.
func Window(diff []DiffSegment, radius int) []DiffSegment {
	if radius < 0 {
		radius = 0
	}

	keep := make([]bool, len(diff))
	changed := false
	for i, seg := range diff {
		if !seg.Kind.IsChange() {
			continue
		}
		changed = true
		for j := max(0, i-radius); j <= min(len(diff)-1, i+radius); j++ {
			keep[j] = true
		}
	}
	if !changed {
		return diff
	}

	windowed := make([]DiffSegment, 0, len(diff))
	last := -1
	for i, seg := range diff {
		if !keep[i] {
			continue
		}
		if last >= 0 && i-last > 1 {
			windowed = append(windowed, DiffSegment{Kind: KindSeparator, Text: SeparatorText})
		}
		windowed = append(windowed, seg)
		last = i
	}
	return windowed
}
