package statecharts

import (
	"errors"
	"fmt"
)

// maxNesting bounds the completion transitions drained for one event. The
// static cycle check rejects statically evident loops; this dynamic bound
// catches the guard-dependent ones.
const maxNesting = 16

var ErrInfiniteLoop = errors.New("infinite loop: completion queue exceeded its bound")

// Interp executes a machine with the same driver rules the emitted code
// uses: guard, state update, transition action, exit, entry, then a FIFO
// drain of pending completion transitions. The synthesizer replays every
// scenario through it before emitting a test, and the package tests use it
// to pin down the execution model.
type Interp struct {
	m       *Machine
	guards  map[string]bool
	current *State
	queue   []*Transition
	trace   []string
}

// NewInterp builds an interpreter. The guards map assigns an outcome to each
// guard expression text; a guard absent from the map evaluates to false.
func NewInterp(m *Machine, guards map[string]bool) *Interp {
	return &Interp{m: m, guards: guards}
}

func (ip *Interp) State() *State {
	return ip.current
}

// Trace returns the ordered record of guard, action, exit and entry firings
// since the last reset.
func (ip *Interp) Trace() []string {
	return ip.trace
}

// Reset puts the machine back on the initial pseudo-state, clears the queue
// and applies the first accepting initial completion transition.
func (ip *Interp) Reset() error {
	ip.current = ip.m.initial
	ip.queue = nil
	ip.trace = nil
	if tr := ip.pick(ip.m.initial.out); tr != nil {
		return ip.run(tr)
	}
	return nil
}

// Send delivers one external event. It returns once the machine is
// quiescent: the completion queue is empty or the abort path was taken.
func (ip *Interp) Send(event string) error {
	if ip.current == nil {
		return fmt.Errorf("event %s before reset", event)
	}
	var tr = ip.pick(ip.current.OutFor(event))
	if tr == nil {
		// IGNORING_EVENT: no row for this (state, event) pair accepts.
		return nil
	}
	return ip.run(tr)
}

// pick returns the first transition whose guard accepts, guards evaluated
// in the order given. An empty guard always accepts.
func (ip *Interp) pick(candidates []*Transition) *Transition {
	for _, tr := range candidates {
		if !tr.HasGuard() {
			return tr
		}
		ip.trace = append(ip.trace, "guard: "+tr.guard)
		if ip.guards[tr.guard] {
			return tr
		}
	}
	return nil
}

// run applies one transition and drains the completion queue.
func (ip *Interp) run(tr *Transition) error {
	ip.queue = append(ip.queue, tr)
	var drained = 0
	for len(ip.queue) != 0 {
		tr, ip.queue = ip.queue[0], ip.queue[1:]
		if drained++; drained > maxNesting {
			return ErrInfiniteLoop
		}
		ip.apply(tr)
	}
	return nil
}

func (ip *Interp) apply(tr *Transition) {
	var previous = ip.current
	ip.current = tr.dst
	if tr.action != "" {
		ip.trace = append(ip.trace, "action: "+tr.action)
	}
	if previous == tr.dst || tr.kind == Internal {
		// Internal or self transition: entry and exit do not fire, and the
		// state was not re-entered, so no completion is triggered either.
		return
	}
	for _, body := range previous.exit {
		ip.trace = append(ip.trace, "exit: "+body)
	}
	for _, body := range tr.dst.entry {
		ip.trace = append(ip.trace, "entry: "+body)
	}
	if next := ip.pickCompletion(tr.dst); next != nil {
		ip.queue = append(ip.queue, next)
	}
}

func (ip *Interp) pickCompletion(state *State) *Transition {
	var completions []*Transition
	for _, tr := range state.out {
		if tr.event.IsCompletion() {
			completions = append(completions, tr)
		}
	}
	return ip.pick(completions)
}
