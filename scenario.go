package statecharts

import (
	"sort"
	"strings"
)

// ScenarioKind orders the suite: the reset case first, then cycles, then
// source-to-sink paths.
type ScenarioKind int

const (
	ResetScenario ScenarioKind = iota
	CycleScenario
	PathScenario
)

// GuardOutcome fixes the value one opaque guard expression must report
// while a scenario runs. The emitter turns these into stub hooks.
type GuardOutcome struct {
	Expr  string
	Value bool
}

// Scenario is one synthesized test case: drive the events in order, then
// assert the terminal state.
type Scenario struct {
	Kind   ScenarioKind
	Title  string
	Steps  []*Transition
	Events []string
	Guards []GuardOutcome
	// Expect is the asserted terminal state. The reset scenario instead
	// asserts membership in ExpectAny, because guards decide which initial
	// transition wins.
	Expect    *State
	ExpectAny []*State
}

// Synthesize enumerates the bounded test suite of §4.4: the reset scenario,
// every usable simple cycle up to maxCycle edges and every initial-to-sink
// simple path up to maxPath edges. Every scenario is replayed through the
// interpreter first; a walk whose simulation diverges (or loops) is dropped.
func Synthesize(m *Machine, maxCycle, maxPath int) []Scenario {
	if maxCycle <= 0 {
		maxCycle = len(m.states)
	}
	if maxPath <= 0 {
		maxPath = 2 * len(m.states)
	}

	var scenarios = []Scenario{resetScenario(m)}
	scenarios = append(scenarios, cycleScenarios(m, maxCycle)...)
	scenarios = append(scenarios, pathScenarios(m, maxPath)...)
	logger.Debug("synthesized", "scenarios", len(scenarios))
	return scenarios
}

func resetScenario(m *Machine) Scenario {
	var scen = Scenario{Kind: ResetScenario, Title: "reset"}
	var seen = make(map[*State]bool)
	for _, tr := range m.initial.out {
		if !seen[tr.dst] {
			seen[tr.dst] = true
			scen.ExpectAny = append(scen.ExpectAny, tr.dst)
		}
	}
	return scen
}

func cycleScenarios(m *Machine, maxCycle int) []Scenario {
	var scenarios []Scenario
	for _, cycle := range SimpleCycles(m, maxCycle, nil) {
		if steps, ok := rotateToReset(m, cycle); ok {
			if scen, ok := makeScenario(m, CycleScenario, steps, steps[0].src); ok {
				scenarios = append(scenarios, scen)
			}
		}
	}
	sortScenarios(scenarios)
	return scenarios
}

func pathScenarios(m *Machine, maxPath int) []Scenario {
	var scenarios []Scenario
	var seen = make(map[*State]bool)
	for _, start := range m.initial.out {
		if seen[start.dst] {
			continue
		}
		seen[start.dst] = true
		var paths = SimplePaths(start.dst, maxPath, func(state *State) bool {
			return state.kind == KindFinal || state.IsSink()
		})
		for _, steps := range paths {
			if scen, ok := makeScenario(m, PathScenario, steps, start.dst); ok {
				scenarios = append(scenarios, scen)
			}
		}
	}
	sortScenarios(scenarios)
	return scenarios
}

// rotateToReset reorders a cycle so it starts on a state the machine can
// reach by reset alone. Cycles that touch no reset destination are dropped:
// the generated test could never enter them.
func rotateToReset(m *Machine, cycle []*Transition) ([]*Transition, bool) {
	var dests = make(map[*State]bool)
	for _, tr := range m.initial.out {
		dests[tr.dst] = true
	}
	for idx, tr := range cycle {
		if dests[tr.src] {
			return append(append([]*Transition{}, cycle[idx:]...), cycle[:idx]...), true
		}
	}
	return nil, false
}

func makeScenario(m *Machine, kind ScenarioKind, steps []*Transition, entry *State) (Scenario, bool) {
	var outcomes = newOutcomeSet()
	if !forceReset(m, entry, outcomes) {
		return Scenario{}, false
	}
	for _, tr := range steps {
		if !forceStep(tr, outcomes) {
			return Scenario{}, false
		}
	}

	var scen = Scenario{Kind: kind, Steps: steps, Guards: outcomes.list()}
	for _, tr := range steps {
		if !tr.event.IsCompletion() {
			scen.Events = append(scen.Events, tr.event.name)
		}
	}
	if kind == CycleScenario {
		scen.Expect = entry
	} else {
		scen.Expect = steps[len(steps)-1].dst
	}
	scen.Title = title(kind, entry, steps)

	// Replay through the driver. A scenario the interpreter cannot finish in
	// the expected state would emit a failing test.
	var ip = NewInterp(m, outcomes.values)
	if err := ip.Reset(); err != nil || ip.State() != entry {
		logger.Debug("scenario dropped at reset", "title", scen.Title)
		return Scenario{}, false
	}
	for _, event := range scen.Events {
		if err := ip.Send(event); err != nil {
			logger.Debug("scenario dropped", "title", scen.Title, "err", err)
			return Scenario{}, false
		}
	}
	if ip.State() != scen.Expect {
		logger.Debug("scenario dropped: simulation diverged",
			"title", scen.Title, "want", scen.Expect.Name(), "got", ip.State().Name())
		return Scenario{}, false
	}
	return scen, true
}

func title(kind ScenarioKind, entry *State, steps []*Transition) string {
	var names = []string{entry.Name()}
	for _, tr := range steps {
		names = append(names, tr.dst.Name())
	}
	if kind == CycleScenario {
		return "cycle " + strings.Join(names, " ")
	}
	return "path " + strings.Join(names, " ")
}

// sortScenarios orders by (length, lexicographic event sequence), falling
// back to the title so equal event sequences stay stable.
func sortScenarios(scenarios []Scenario) {
	sort.SliceStable(scenarios, func(i, j int) bool {
		if len(scenarios[i].Steps) != len(scenarios[j].Steps) {
			return len(scenarios[i].Steps) < len(scenarios[j].Steps)
		}
		var lhs = strings.Join(scenarios[i].Events, " ")
		var rhs = strings.Join(scenarios[j].Events, " ")
		if lhs != rhs {
			return lhs < rhs
		}
		return scenarios[i].Title < scenarios[j].Title
	})
}

// outcomeSet accumulates guard outcomes for one scenario and refuses
// contradictions.
type outcomeSet struct {
	order  []string
	values map[string]bool
}

func newOutcomeSet() *outcomeSet {
	return &outcomeSet{values: make(map[string]bool)}
}

func (set *outcomeSet) assign(expr string, value bool) bool {
	if have, ok := set.values[expr]; ok {
		return have == value
	}
	set.order = append(set.order, expr)
	set.values[expr] = value
	return true
}

func (set *outcomeSet) list() []GuardOutcome {
	var list []GuardOutcome
	for _, expr := range set.order {
		list = append(list, GuardOutcome{Expr: expr, Value: set.values[expr]})
	}
	return list
}

// forceReset fixes the initial guards so reset lands on entry: everything
// declared before the entry transition must reject, the entry one accepts.
func forceReset(m *Machine, entry *State, outcomes *outcomeSet) bool {
	for _, tr := range m.initial.out {
		if tr.dst == entry {
			if tr.HasGuard() {
				return outcomes.assign(tr.guard, true)
			}
			return true
		}
		if !tr.HasGuard() {
			// An earlier unguarded initial transition always wins.
			return false
		}
		if !outcomes.assign(tr.guard, false) {
			return false
		}
	}
	return false
}

// forceStep fixes the guards so the driver picks exactly this transition
// among the candidates for its (state, event) pair.
func forceStep(tr *Transition, outcomes *outcomeSet) bool {
	var candidates []*Transition
	if tr.event.IsCompletion() {
		for _, out := range tr.src.out {
			if out.event.IsCompletion() {
				candidates = append(candidates, out)
			}
		}
	} else {
		candidates = tr.src.OutFor(tr.event.name)
	}
	for _, cand := range candidates {
		if cand == tr {
			if tr.HasGuard() {
				return outcomes.assign(tr.guard, true)
			}
			return true
		}
		if !cand.HasGuard() {
			return false
		}
		if !outcomes.assign(cand.guard, false) {
			return false
		}
	}
	return false
}
