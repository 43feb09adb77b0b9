package statecharts

import (
	"fmt"

	"github.com/google/uuid"
)

// Namespace for synthetic transition ids. Edge ids are uuid v5 digests of
// (source, destination, event, ordinal), so two runs over the same input
// always mint the same ids.
var edgeNamespace = uuid.MustParse("8a4b1df2-0f6e-4c1a-9e61-2f6d35c9a0b7")

// Build folds the declaration list into a Machine. It stops on the first
// shape error: a malformed graph is not worth verifying.
func Build(name, file string, decls []Decl, rep *Report) *Machine {
	var builder = graphBuilder{
		machine: &Machine{name: name, file: file, byName: make(map[string]*State)},
		edges:   make(map[string]bool),
		rep:     rep,
	}
	for _, decl := range decls {
		if !builder.add(decl) {
			return nil
		}
	}
	logger.Debug("graph built",
		"states", len(builder.machine.states),
		"transitions", len(builder.machine.transitions))
	return builder.machine
}

type graphBuilder struct {
	machine *Machine
	edges   map[string]bool
	rep     *Report
}

func (builder *graphBuilder) add(decl Decl) bool {
	switch decl := decl.(type) {
	case TransitionDecl:
		return builder.addTransition(decl)
	case StateDecl:
		return builder.addState(decl)
	case ReactionDecl:
		return builder.addReaction(decl)
	case CodeDecl:
		builder.addCode(decl)
	}
	return true
}

// intern returns the named state, creating it on first mention.
func (builder *graphBuilder) intern(name string) *State {
	if state, ok := builder.machine.byName[name]; ok {
		return state
	}
	var state = &State{name: name}
	builder.machine.byName[name] = state
	builder.machine.states = append(builder.machine.states, state)
	return state
}

func (builder *graphBuilder) pseudo(kind StateKind) *State {
	var m = builder.machine
	if kind == KindInitial {
		if m.initial == nil {
			m.initial = &State{kind: KindInitial}
			m.states = append(m.states, m.initial)
		}
		return m.initial
	}
	if m.final == nil {
		m.final = &State{kind: KindFinal}
		m.states = append(m.states, m.final)
	}
	return m.final
}

func (builder *graphBuilder) addTransition(decl TransitionDecl) bool {
	var lhs, rhs = decl.Lhs, decl.Rhs
	if decl.Arrow == "<-" || decl.Arrow == "<--" {
		// The glyph length carries no meaning, only the orientation does.
		lhs, rhs = rhs, lhs
	}
	var src, dst *State
	if lhs.Pseudo {
		src = builder.pseudo(KindInitial)
	} else {
		src = builder.intern(lhs.Name)
	}
	if rhs.Pseudo {
		dst = builder.pseudo(KindFinal)
	} else {
		dst = builder.intern(rhs.Name)
	}

	var kind = External
	if decl.Event == "" {
		kind = Completion
	} else if src == dst {
		kind = Internal
	}
	return builder.link(decl.Pos, src, dst, Event{decl.Event, decl.Params}, decl.Guard, decl.Action, kind)
}

func (builder *graphBuilder) addReaction(decl ReactionDecl) bool {
	// An internal reaction is a self-edge that never runs entry/exit. The
	// edge is materialized so cycle and path walks see it.
	var state = builder.intern(decl.State)
	return builder.link(decl.Pos, state, state, Event{decl.Event, decl.Params}, decl.Guard, decl.Action, Internal)
}

func (builder *graphBuilder) link(pos Pos, src, dst *State, event Event, guard, action string, kind TransitionKind) bool {
	var key = src.Name() + "\x00" + dst.Name() + "\x00" + event.name
	if builder.edges[key] {
		builder.rep.Errorf(ShapeError, pos, "duplicate transition %s -> %s on event %q",
			src.Name(), dst.Name(), event.name)
		return false
	}
	builder.edges[key] = true

	var m = builder.machine
	var seed = fmt.Sprintf("%s>%s:%s#%d", src.Name(), dst.Name(), event.name, len(m.transitions))
	var tr = &Transition{
		id:     uuid.NewSHA1(edgeNamespace, []byte(seed)),
		src:    src,
		dst:    dst,
		event:  event,
		guard:  guard,
		action: action,
		kind:   kind,
	}
	m.transitions = append(m.transitions, tr)
	src.out = append(src.out, tr)
	dst.in = append(dst.in, tr)
	return true
}

func (builder *graphBuilder) addState(decl StateDecl) bool {
	var state = builder.intern(decl.State)
	switch decl.Kind {
	case "entry":
		state.entry = append(state.entry, decl.Body)
	case "exit":
		state.exit = append(state.exit, decl.Body)
	case "comment":
		state.comment = decl.Body
	}
	return true
}

func (builder *graphBuilder) addCode(decl CodeDecl) {
	var slots = &builder.machine.slots
	switch decl.Tag {
	case "brief":
		slots.Brief = append(slots.Brief, decl.Text)
	case "header":
		slots.Header = append(slots.Header, decl.Text)
	case "footer":
		slots.Footer = append(slots.Footer, decl.Text)
	case "param":
		slots.Param = append(slots.Param, decl.Text)
	case "cons":
		slots.Cons = append(slots.Cons, decl.Text)
	case "init":
		slots.Init = append(slots.Init, decl.Text)
	case "code":
		slots.Code = append(slots.Code, decl.Text)
	case "test":
		slots.Test = append(slots.Test, decl.Text)
	}
}
