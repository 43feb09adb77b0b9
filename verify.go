package statecharts

import (
	"strings"
)

// Verify runs the structural checks on a frozen machine. All findings are
// collected; the caller aborts emission when the report holds errors.
func Verify(m *Machine, rep *Report) {
	var checker = verifier{m: m, rep: rep}
	if !checker.checkInitial() {
		return
	}
	checker.checkReachability()
	checker.checkSinks()
	checker.checkCompletionCycles()
	checker.checkDeterminism()
	checker.checkIdentifiers()
	logger.Debug("verified", "diags", len(rep.diags))
}

type verifier struct {
	m   *Machine
	rep *Report
}

func (checker *verifier) errorf(format string, args ...interface{}) {
	checker.rep.Errorf(StructuralError, Pos{}, format, args...)
}

func (checker *verifier) warnf(format string, args ...interface{}) {
	checker.rep.Errorf(StructuralWarning, Pos{}, format, args...)
}

// checkInitial covers rules 1 and 7: the machine needs exactly one initial
// pseudo-state with outgoing completion transitions and no incoming edges.
func (checker *verifier) checkInitial() bool {
	var initial = checker.m.initial
	if initial == nil || len(initial.out) == 0 {
		checker.errorf("missing initial state: no transition leaves [*]")
		return false
	}
	if len(initial.in) != 0 {
		checker.errorf("initial pseudo-state has %d incoming transitions", len(initial.in))
	}
	for _, tr := range initial.out {
		if !tr.event.IsCompletion() {
			checker.errorf("transition [*] -> %s must not carry event %q: initial transitions fire on reset",
				tr.dst.Name(), tr.event.name)
		}
	}
	return true
}

func (checker *verifier) checkReachability() {
	var seen = Reachable(checker.m.initial)
	for _, state := range checker.m.states {
		if state.kind == KindInitial || seen[state] {
			continue
		}
		checker.errorf("state %s is unreachable from the initial state", state.Name())
	}
}

// checkSinks covers rule 3: a non-final state that cannot be left deadlocks
// the machine, one that can only conditionally be left might.
func (checker *verifier) checkSinks() {
	for _, state := range checker.m.states {
		if state.kind != KindNormal {
			continue
		}
		if len(state.out) == 0 {
			checker.warnf("state %s has no outgoing transition: the machine deadlocks there", state.Name())
			continue
		}
		var unguarded = false
		for _, tr := range state.out {
			if !tr.HasGuard() {
				unguarded = true
			}
		}
		if !unguarded {
			checker.warnf("state %s has only guarded outgoing transitions: possible deadlock", state.Name())
		}
	}
}

// checkCompletionCycles covers rule 4: a cycle of completion transitions
// loops forever at run time unless a guard can break it.
func (checker *verifier) checkCompletionCycles() {
	var cycles = SimpleCycles(checker.m, len(checker.m.states), func(tr *Transition) bool {
		return tr.event.IsCompletion()
	})
	for _, cycle := range cycles {
		var names []string
		var guarded = false
		for _, tr := range cycle {
			names = append(names, tr.src.Name())
			if tr.HasGuard() {
				guarded = true
			}
		}
		var route = strings.Join(names, " -> ")
		if guarded {
			checker.warnf("completion cycle %s may loop forever depending on its guards", route)
		} else {
			checker.errorf("completion cycle %s loops forever: no event, no guard", route)
		}
	}
}

// checkDeterminism covers rule 5: for one (state, event) pair at most one
// outgoing transition may be unguarded.
func (checker *verifier) checkDeterminism() {
	for _, state := range checker.m.states {
		var unguarded = make(map[string]int)
		for _, tr := range state.out {
			if !tr.HasGuard() {
				unguarded[tr.event.name]++
			}
		}
		for _, tr := range state.out {
			if unguarded[tr.event.name] > 1 {
				var trigger = "completion"
				if !tr.event.IsCompletion() {
					trigger = "event " + tr.event.name
				}
				checker.errorf("state %s is non-deterministic: %d unguarded transitions on %s",
					state.Name(), unguarded[tr.event.name], trigger)
				unguarded[tr.event.name] = 0
			}
		}
	}
}

// checkIdentifiers covers rule 6. Names that are not plain identifiers stay
// a warning: the backend escaping is invertible.
func (checker *verifier) checkIdentifiers() {
	for _, state := range checker.m.states {
		if state.kind == KindNormal && !IsIdent(state.name) {
			checker.warnf("state name %q is not an identifier and will be escaped", state.name)
		}
	}
	for _, name := range checker.m.EventNames() {
		if !IsIdent(name) {
			checker.warnf("event name %q is not an identifier and will be escaped", name)
		}
	}
}
