package diff

import "github.com/mcncl/treediff/internal/models"

// pair couples an element of the before array with one of the after array.
type pair struct {
	before, after int
}

// arrayMatch is the outcome of pairing the elements of two arrays.
type arrayMatch struct {
	removed []int
	added   []int
	changed []pair
	same    []pair
}

// compareArrays emits the children of two arrays in four groups: removed
// elements, added elements, similar pairs and equal pairs. One index counter
// runs across the groups, so child keys are unique and increasing.
func (b *Builder) compareArrays(node *Node, before, after models.Array, depth int) error {
	var m arrayMatch
	if b.opts.ArrayMatching == MatchExclusive {
		m = matchExclusive(before, after)
	} else {
		m = matchPermissive(before, after)
	}

	index := 0
	emit := func(bv, av models.Value) error {
		path := IndexPath(node.Path, index)
		key := IndexPath(node.Key, index)
		index++
		return b.appendChild(node, bv, av, path, key, depth)
	}

	for _, i := range m.removed {
		if err := emit(before[i], nil); err != nil {
			return err
		}
	}
	for _, j := range m.added {
		if err := emit(nil, after[j]); err != nil {
			return err
		}
	}
	for _, p := range m.changed {
		if err := emit(before[p.before], after[p.after]); err != nil {
			return err
		}
	}
	for _, p := range m.same {
		if err := emit(before[p.before], after[p.after]); err != nil {
			return err
		}
	}
	return nil
}

// matchPermissive compares every element against every element of the other
// side. This is an approximation: with repeated shapes an element can take
// part in several pairs, and nothing is consumed once matched. An element
// with an equal counterpart is settled and never forms a similar pair, so
// equal arrays produce equal pairs only.
func matchPermissive(before, after models.Array) arrayMatch {
	var m arrayMatch
	settledBefore := settled(before, after)
	settledAfter := settled(after, before)

	for i, bv := range before {
		if !settledBefore[i] && !hasSimilar(bv, after, settledAfter) {
			m.removed = append(m.removed, i)
		}
	}
	for j, av := range after {
		if !settledAfter[j] && !hasSimilar(av, before, settledBefore) {
			m.added = append(m.added, j)
		}
	}
	for i, bv := range before {
		if settledBefore[i] {
			continue
		}
		for j, av := range after {
			if !settledAfter[j] && models.SameShape(bv, av) {
				m.changed = append(m.changed, pair{i, j})
			}
		}
	}
	for i, bv := range before {
		for j, av := range after {
			if models.Equal(bv, av) {
				m.same = append(m.same, pair{i, j})
			}
		}
	}
	return m
}

// settled marks the elements of values that are equal to some candidate.
func settled(values, candidates models.Array) []bool {
	marks := make([]bool, len(values))
	for i, v := range values {
		for _, c := range candidates {
			if models.Equal(v, c) {
				marks[i] = true
				break
			}
		}
	}
	return marks
}

// hasSimilar reports whether v shares its shape with an unsettled candidate.
func hasSimilar(v models.Value, candidates models.Array, settled []bool) bool {
	for k, c := range candidates {
		if !settled[k] && models.SameShape(v, c) {
			return true
		}
	}
	return false
}

// matchExclusive pairs each element at most once. Equal elements are paired
// first so that a similar-but-different element cannot steal an exact match;
// remaining elements are then paired with the first free similar element.
func matchExclusive(before, after models.Array) arrayMatch {
	var m arrayMatch
	usedBefore := make([]bool, len(before))
	usedAfter := make([]bool, len(after))

	for i, bv := range before {
		for j, av := range after {
			if !usedAfter[j] && models.Equal(bv, av) {
				m.same = append(m.same, pair{i, j})
				usedBefore[i], usedAfter[j] = true, true
				break
			}
		}
	}
	for i, bv := range before {
		if usedBefore[i] {
			continue
		}
		for j, av := range after {
			if !usedAfter[j] && models.SameShape(bv, av) {
				m.changed = append(m.changed, pair{i, j})
				usedBefore[i], usedAfter[j] = true, true
				break
			}
		}
	}
	for i := range before {
		if !usedBefore[i] {
			m.removed = append(m.removed, i)
		}
	}
	for j := range after {
		if !usedAfter[j] {
			m.added = append(m.added, j)
		}
	}
	return m
}
