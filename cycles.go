package statecharts

// Graph walks used by the verifier and the scenario synthesizer. Adjacency
// is always scanned in declaration order and cycles are rooted at their
// lowest-index vertex, so enumeration order is a pure function of the input.

// Reachable returns the set of states reachable from start.
func Reachable(start *State) map[*State]bool {
	var seen = map[*State]bool{start: true}
	var queue = []*State{start}
	for len(queue) != 0 {
		var state = queue[0]
		queue = queue[1:]
		for _, tr := range state.out {
			if !seen[tr.dst] {
				seen[tr.dst] = true
				queue = append(queue, tr.dst)
			}
		}
	}
	return seen
}

// SimpleCycles enumerates every simple cycle of at most maxLen edges whose
// edges all satisfy follow. Each cycle is reported once, rooted at the state
// with the lowest declaration index.
func SimpleCycles(m *Machine, maxLen int, follow func(*Transition) bool) [][]*Transition {
	var index = make(map[*State]int, len(m.states))
	for idx, state := range m.states {
		index[state] = idx
	}

	var cycles [][]*Transition
	var path []*Transition
	var onPath = make(map[*State]bool)

	var walk func(root, state *State)
	walk = func(root, state *State) {
		for _, tr := range state.out {
			if follow != nil && !follow(tr) {
				continue
			}
			if tr.dst == root {
				var cycle = make([]*Transition, len(path)+1)
				copy(cycle, path)
				cycle[len(path)] = tr
				cycles = append(cycles, cycle)
				continue
			}
			if index[tr.dst] < index[root] || onPath[tr.dst] || len(path)+1 >= maxLen {
				continue
			}
			path = append(path, tr)
			onPath[tr.dst] = true
			walk(root, tr.dst)
			delete(onPath, tr.dst)
			path = path[:len(path)-1]
		}
	}

	for _, root := range m.states {
		if root.kind != KindNormal {
			// Pseudo-states cannot sit on a cycle: the initial vertex has no
			// incoming edges and the final vertex no outgoing ones.
			continue
		}
		onPath[root] = true
		walk(root, root)
		delete(onPath, root)
	}
	return cycles
}

// SimplePaths enumerates every simple path of at most maxLen edges from
// start to a state satisfying stop.
func SimplePaths(start *State, maxLen int, stop func(*State) bool) [][]*Transition {
	var paths [][]*Transition
	var path []*Transition
	var onPath = map[*State]bool{start: true}

	var walk func(state *State)
	walk = func(state *State) {
		for _, tr := range state.out {
			if onPath[tr.dst] || len(path) >= maxLen {
				continue
			}
			path = append(path, tr)
			if stop(tr.dst) {
				var found = make([]*Transition, len(path))
				copy(found, path)
				paths = append(paths, found)
			} else {
				onPath[tr.dst] = true
				walk(tr.dst)
				delete(onPath, tr.dst)
			}
			path = path[:len(path)-1]
		}
	}
	walk(start)
	return paths
}
