package statecharts

import (
	"github.com/google/uuid"
)

// StateKind distinguishes the [*] pseudo-states from ordinary named states.
type StateKind int

const (
	KindNormal StateKind = iota
	KindInitial
	KindFinal
)

// TransitionKind follows the UML split: external transitions run exit/entry,
// internal ones do not, completion ones have no triggering event.
type TransitionKind int

const (
	External TransitionKind = iota
	Internal
	Completion
)

// Event is a trigger name plus its opaque parameter list text.
type Event struct {
	name   string
	params string
}

func (event Event) Name() string {
	return event.name
}

func (event Event) Params() string {
	return event.params
}

func (event Event) IsCompletion() bool {
	return event.name == ""
}

type State struct {
	name    string
	kind    StateKind
	comment string
	entry   []string
	exit    []string
	out     []*Transition
	in      []*Transition
}

func (state *State) Name() string {
	if state.kind != KindNormal {
		return "[*]"
	}
	return state.name
}

func (state *State) Kind() StateKind {
	return state.kind
}

func (state *State) Comment() string {
	return state.comment
}

func (state *State) Entry() []string {
	return state.entry
}

func (state *State) Exit() []string {
	return state.exit
}

func (state *State) Out() []*Transition {
	return state.out
}

func (state *State) In() []*Transition {
	return state.in
}

// OutFor returns the outgoing transitions triggered by the given event name,
// guarded ones first so that the unguarded fallback is tried last.
func (state *State) OutFor(event string) []*Transition {
	var list []*Transition
	for _, tr := range state.out {
		if tr.event.name == event && tr.HasGuard() {
			list = append(list, tr)
		}
	}
	for _, tr := range state.out {
		if tr.event.name == event && !tr.HasGuard() {
			list = append(list, tr)
		}
	}
	return list
}

// EventNames returns the distinct external event names leaving this state,
// sorted.
func (state *State) EventNames() []string {
	var all []string
	for _, tr := range state.out {
		if !tr.event.IsCompletion() {
			all = append(all, tr.event.name)
		}
	}
	return StringSet(all)
}

// IsSink reports whether the state has no outgoing edge other than
// self-loops.
func (state *State) IsSink() bool {
	for _, tr := range state.out {
		if tr.dst != state {
			return false
		}
	}
	return true
}

type Transition struct {
	id     uuid.UUID
	src    *State
	dst    *State
	event  Event
	guard  string
	action string
	kind   TransitionKind
}

func (tr *Transition) ID() uuid.UUID {
	return tr.id
}

func (tr *Transition) Src() *State {
	return tr.src
}

func (tr *Transition) Dst() *State {
	return tr.dst
}

func (tr *Transition) Event() Event {
	return tr.event
}

func (tr *Transition) Guard() string {
	return tr.guard
}

func (tr *Transition) Action() string {
	return tr.action
}

func (tr *Transition) Kind() TransitionKind {
	return tr.kind
}

func (tr *Transition) HasGuard() bool {
	return tr.guard != ""
}

// Slots are the embedded-code fragments bound to the machine, injected
// verbatim into the emitted artifacts.
type Slots struct {
	Brief  []string
	Header []string
	Footer []string
	Param  []string
	Cons   []string
	Init   []string
	Code   []string
	Test   []string
}

// Machine is the frozen multigraph the verifier, synthesizer and emitter
// read. States and transitions keep declaration order so every downstream
// walk is deterministic.
type Machine struct {
	name        string
	file        string
	states      []*State
	byName      map[string]*State
	transitions []*Transition
	initial     *State
	final       *State
	slots       Slots
}

func (m *Machine) Name() string {
	return m.name
}

func (m *Machine) File() string {
	return m.file
}

// States returns the named states in declaration order, pseudo-states
// excluded.
func (m *Machine) States() []*State {
	var list []*State
	for _, state := range m.states {
		if state.kind == KindNormal {
			list = append(list, state)
		}
	}
	return list
}

func (m *Machine) AllStates() []*State {
	return m.states
}

func (m *Machine) Lookup(name string) *State {
	return m.byName[name]
}

func (m *Machine) Transitions() []*Transition {
	return m.transitions
}

func (m *Machine) Initial() *State {
	return m.initial
}

func (m *Machine) Final() *State {
	return m.final
}

func (m *Machine) Slots() Slots {
	return m.slots
}

// EventNames returns all distinct external event names, sorted.
func (m *Machine) EventNames() []string {
	var all []string
	for _, tr := range m.transitions {
		if !tr.event.IsCompletion() {
			all = append(all, tr.event.name)
		}
	}
	return StringSet(all)
}

// EventParams returns the parameter list text recorded for an event name.
// The first declaration wins; later declarations of the same event reuse it.
func (m *Machine) EventParams(name string) string {
	for _, tr := range m.transitions {
		if tr.event.name == name {
			return tr.event.params
		}
	}
	return ""
}

// TransitionsFor returns the sparse dispatch rows for one event name: every
// transition triggered by it, in declaration order.
func (m *Machine) TransitionsFor(name string) []*Transition {
	var list []*Transition
	for _, tr := range m.transitions {
		if tr.event.name == name {
			list = append(list, tr)
		}
	}
	return list
}
