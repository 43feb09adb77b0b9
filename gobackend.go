package statecharts

import (
	"bytes"
	"fmt"
	"strings"
)

// goBackend renders the machine as a Go package: an int-based state enum,
// method-expression dispatch tables and the same driver as the C++ form.
type goBackend struct{}

func (goBackend) Name() string {
	return "go"
}

func (goBackend) Escape(name string) string {
	return escapeIdent(name)
}

func (goBackend) Reserved() []string {
	return []string{"Constructor", "FinalState", "IgnoringEvent", "CannotHappen", "MaxStates"}
}

func (goBackend) FileNames(base string, kind OutputKind) (string, string) {
	return base + ".go", base + "_test.go"
}

func (be goBackend) stateID(state *State) string {
	switch state.kind {
	case KindInitial:
		return "Constructor"
	case KindFinal:
		return "FinalState"
	}
	return Capitalize(be.Escape(state.name))
}

func (be goBackend) trSuffix(tr *Transition) string {
	if tr.event.IsCompletion() {
		return be.stateID(tr.src) + "_" + be.stateID(tr.dst)
	}
	return be.stateID(tr.src) + "_" + be.Escape(tr.event.name) + "_" + be.stateID(tr.dst)
}

func (be goBackend) guardRef(class string, tr *Transition) string {
	if !tr.HasGuard() {
		return "nil"
	}
	return "(*" + class + ").guard" + be.trSuffix(tr)
}

func (be goBackend) actionRef(class string, tr *Transition) string {
	if tr.action == "" {
		return "nil"
	}
	return "(*" + class + ").action" + be.trSuffix(tr)
}

func (be goBackend) eventMethod(event string) string {
	return Capitalize(be.Escape(event))
}

func (be goBackend) Machine(buf *bytes.Buffer, m *Machine, kind OutputKind, cfg Config) error {
	if err := checkReserved(m, be.Reserved(), be.stateID, be.eventMethod); err != nil {
		return err
	}
	var line = lineWriter(buf, "\t")
	var class = Capitalize(be.Escape(m.name))
	var pkg = strings.ToLower(be.Escape(m.name))
	var slots = m.Slots()

	line(0, "// %s", banner)
	for _, text := range slots.Header {
		line(0, "%s", text)
	}
	line(0, "package %s", pkg)
	line(0, "")
	if cfg.ThreadSafe {
		line(0, `import "sync"`)
		line(0, "")
	}

	line(0, "type State int")
	line(0, "")
	line(0, "const (")
	line(1, "Constructor State = iota")
	for _, state := range m.States() {
		line(1, "%s", be.stateID(state))
	}
	if m.Final() != nil {
		line(1, "FinalState")
	}
	line(1, "IgnoringEvent")
	line(1, "CannotHappen")
	line(1, "MaxStates")
	line(0, ")")
	line(0, "")

	line(0, "var stateNames = [...]string{")
	line(1, `"[*]",`)
	for _, state := range m.States() {
		line(1, `"%s",`, state.name)
	}
	if m.Final() != nil {
		line(1, `"[*]",`)
	}
	line(0, "}")
	line(0, "")
	line(0, "func (state State) String() string {")
	line(1, "if int(state) < len(stateNames) {")
	line(2, "return stateNames[state]")
	line(1, "}")
	line(1, `return "?"`)
	line(0, "}")
	line(0, "")

	line(0, "type transition struct {")
	line(1, "destination State")
	line(1, "guard       func(*%s) bool", class)
	line(1, "action      func(*%s)", class)
	line(0, "}")
	line(0, "")
	line(0, "type row struct {")
	line(1, "source     State")
	line(1, "transition transition")
	line(0, "}")
	line(0, "")
	line(0, "type stateActions struct {")
	line(1, "entering func(*%s)", class)
	line(1, "leaving  func(*%s)", class)
	line(0, "}")
	line(0, "")

	for _, text := range slots.Brief {
		line(0, "// %s %s", class, text)
	}
	line(0, "type %s struct {", class)
	line(1, "current State")
	line(1, "queue   []transition")
	line(1, "busy    bool")
	if cfg.ThreadSafe {
		line(1, "mutex   sync.Mutex")
	}
	for _, tr := range m.Transitions() {
		if tr.HasGuard() {
			line(1, "// StubGuard%s forces the outcome of [ %s ] in tests.", be.trSuffix(tr), tr.guard)
			line(1, "StubGuard%s func() bool", be.trSuffix(tr))
		}
	}
	for _, text := range slots.Code {
		line(1, "%s", text)
	}
	line(0, "}")
	line(0, "")

	line(0, "func New%s(%s) *%s {", class, strings.Join(slots.Param, ", "), class)
	line(1, "var this = &%s{}", class)
	for _, text := range slots.Cons {
		line(1, "%s", text)
	}
	line(1, "this.Reset()")
	line(1, "return this")
	line(0, "}")
	line(0, "")
	line(0, "func (this *%s) State() State {", class)
	line(1, "return this.current")
	line(0, "}")
	line(0, "")

	be.emitReset(line, m, class, cfg)
	for _, event := range m.EventNames() {
		be.emitEvent(line, m, class, event, cfg)
	}
	be.emitTables(line, m, class)
	be.emitDriver(line, class)
	be.emitReactions(line, m, class)

	for _, text := range slots.Footer {
		line(0, "%s", text)
	}
	line(0, "/*")
	for _, text := range PrintMachine(m) {
		line(0, "%s", strings.ReplaceAll(text, "*/", "* /"))
	}
	line(0, "*/")
	return nil
}

func (be goBackend) emitReset(line func(int, string, ...interface{}), m *Machine, class string, cfg Config) {
	line(0, "// Reset restores the initial state, clears the queue and takes the")
	line(0, "// first accepting initial transition.")
	line(0, "func (this *%s) Reset() {", class)
	if cfg.ThreadSafe {
		line(1, "this.mutex.Lock()")
		line(1, "defer this.mutex.Unlock()")
	}
	line(1, "this.current = Constructor")
	line(1, "this.queue = nil")
	line(1, "this.busy = false")
	for _, text := range m.Slots().Init {
		line(1, "%s", text)
	}
	line(1, "for _, tr := range resetTable {")
	line(2, "if tr.guard == nil || tr.guard(this) {")
	line(3, "this.doTransition(tr)")
	line(3, "break")
	line(2, "}")
	line(1, "}")
	line(0, "}")
	line(0, "")
}

func (be goBackend) emitEvent(line func(int, string, ...interface{}), m *Machine, class, event string, cfg Config) {
	if params := m.EventParams(event); params != "" {
		line(0, "// %s is an external event. Declared parameters: %s", be.eventMethod(event), params)
	} else {
		line(0, "// %s is an external event.", be.eventMethod(event))
	}
	line(0, "func (this *%s) %s() {", class, be.eventMethod(event))
	if cfg.ThreadSafe {
		line(1, "this.mutex.Lock()")
		line(1, "defer this.mutex.Unlock()")
	}
	line(1, "this.dispatch(%sRows)", strings.ToLower(be.Escape(event)))
	line(0, "}")
	line(0, "")
}

func (be goBackend) emitTables(line func(int, string, ...interface{}), m *Machine, class string) {
	line(0, "var resetTable = []transition{")
	for _, tr := range m.Initial().Out() {
		line(1, "{%s, %s, %s},", be.stateID(tr.dst), be.guardRef(class, tr), be.actionRef(class, tr))
	}
	line(0, "}")
	line(0, "")

	for _, event := range m.EventNames() {
		line(0, "var %sRows = []row{", strings.ToLower(be.Escape(event)))
		for _, state := range m.States() {
			for _, tr := range state.OutFor(event) {
				line(1, "{%s, transition{%s, %s, %s}},", be.stateID(tr.src), be.stateID(tr.dst),
					be.guardRef(class, tr), be.actionRef(class, tr))
			}
		}
		line(0, "}")
		line(0, "")
	}

	line(0, "var completionRows = []row{")
	for _, state := range m.States() {
		for _, tr := range state.out {
			if tr.event.IsCompletion() {
				line(1, "{%s, transition{%s, %s, %s}},", be.stateID(tr.src), be.stateID(tr.dst),
					be.guardRef(class, tr), be.actionRef(class, tr))
			}
		}
	}
	line(0, "}")
	line(0, "")

	line(0, "var stateTable = [MaxStates]stateActions{")
	for _, state := range m.States() {
		if len(state.entry) == 0 && len(state.exit) == 0 {
			continue
		}
		var fields []string
		if len(state.entry) != 0 {
			fields = append(fields, fmt.Sprintf("entering: (*%s).enter%s", class, be.stateID(state)))
		}
		if len(state.exit) != 0 {
			fields = append(fields, fmt.Sprintf("leaving: (*%s).leave%s", class, be.stateID(state)))
		}
		line(1, "%s: {%s},", be.stateID(state), strings.Join(fields, ", "))
	}
	line(0, "}")
	line(0, "")
}

func (be goBackend) emitDriver(line func(int, string, ...interface{}), class string) {
	line(0, "// dispatch finds the first accepting row for the current state. No row")
	line(0, "// for the state means the event is ignored.")
	line(0, "func (this *%s) dispatch(rows []row) {", class)
	line(1, "for _, row := range rows {")
	line(2, "if row.source != this.current {")
	line(3, "continue")
	line(2, "}")
	line(2, "if row.transition.guard == nil || row.transition.guard(this) {")
	line(3, "this.doTransition(row.transition)")
	line(3, "return")
	line(2, "}")
	line(1, "}")
	line(0, "}")
	line(0, "")
	line(0, "// doTransition queues one transition and runs the driver to quiescence.")
	line(0, "// Nested calls from inside actions only enqueue; a queue deeper than 16")
	line(0, "// pending transitions is an infinite loop.")
	line(0, "func (this *%s) doTransition(tr transition) {", class)
	line(1, "if len(this.queue) >= 16 {")
	line(2, `panic("infinite loop detected in state " + this.current.String())`)
	line(1, "}")
	line(1, "this.queue = append(this.queue, tr)")
	line(1, "if this.busy {")
	line(2, "return")
	line(1, "}")
	line(1, "this.busy = true")
	line(1, "for len(this.queue) != 0 {")
	line(2, "tr, this.queue = this.queue[0], this.queue[1:]")
	line(2, "this.apply(tr)")
	line(1, "}")
	line(1, "this.busy = false")
	line(0, "}")
	line(0, "")
	line(0, "// apply is one driver step: guard, state change, action, exit, entry,")
	line(0, "// then the completion transitions of the new state.")
	line(0, "func (this *%s) apply(tr transition) {", class)
	line(1, "if tr.destination == CannotHappen {")
	line(2, `panic("forbidden event in state " + this.current.String())`)
	line(1, "}")
	line(1, "if tr.destination == IgnoringEvent {")
	line(2, "return")
	line(1, "}")
	line(1, "if tr.guard != nil && !tr.guard(this) {")
	line(2, "return")
	line(1, "}")
	line(1, "var previous = this.current")
	line(1, "this.current = tr.destination")
	line(1, "if tr.action != nil {")
	line(2, "tr.action(this)")
	line(1, "}")
	line(1, "if previous == this.current {")
	line(2, "return")
	line(1, "}")
	line(1, "if fn := stateTable[previous].leaving; fn != nil {")
	line(2, "fn(this)")
	line(1, "}")
	line(1, "if fn := stateTable[this.current].entering; fn != nil {")
	line(2, "fn(this)")
	line(1, "}")
	line(1, "this.dispatch(completionRows)")
	line(0, "}")
	line(0, "")
}

func (be goBackend) emitReactions(line func(int, string, ...interface{}), m *Machine, class string) {
	for _, tr := range m.Transitions() {
		if tr.HasGuard() {
			line(0, "// guard%s guards the transition %s -> %s.", be.trSuffix(tr), tr.src.Name(), tr.dst.Name())
			line(0, "func (this *%s) guard%s() bool {", class, be.trSuffix(tr))
			line(1, "if this.StubGuard%s != nil {", be.trSuffix(tr))
			line(2, "return this.StubGuard%s()", be.trSuffix(tr))
			line(1, "}")
			line(1, "return %s", tr.guard)
			line(0, "}")
			line(0, "")
		}
		if tr.action != "" {
			line(0, "// action%s runs on the transition %s -> %s.", be.trSuffix(tr), tr.src.Name(), tr.dst.Name())
			line(0, "func (this *%s) action%s() {", class, be.trSuffix(tr))
			line(1, "%s", tr.action)
			line(0, "}")
			line(0, "")
		}
	}
	for _, state := range m.States() {
		if len(state.entry) != 0 {
			line(0, "func (this *%s) enter%s() {", class, be.stateID(state))
			for _, body := range state.entry {
				line(1, "%s", body)
			}
			line(0, "}")
			line(0, "")
		}
		if len(state.exit) != 0 {
			line(0, "func (this *%s) leave%s() {", class, be.stateID(state))
			for _, body := range state.exit {
				line(1, "%s", body)
			}
			line(0, "}")
			line(0, "")
		}
	}
}

func (be goBackend) Tests(buf *bytes.Buffer, m *Machine, scenarios []Scenario, kind OutputKind, cfg Config) error {
	var line = lineWriter(buf, "\t")
	var class = Capitalize(be.Escape(m.name))
	var pkg = strings.ToLower(be.Escape(m.name))
	var slots = m.Slots()

	line(0, "// %s", banner)
	line(0, "package %s", pkg)
	line(0, "")
	line(0, `import "testing"`)
	line(0, "")
	for _, text := range slots.Test {
		line(0, "%s", text)
	}
	if len(slots.Test) != 0 {
		line(0, "")
	}
	if len(slots.Param) == 0 {
		line(0, "func newTestMachine() *%s {", class)
		line(1, "return New%s()", class)
		line(0, "}")
		line(0, "")
	} else {
		line(0, "// The machine takes constructor parameters: the test slot must provide")
		line(0, "// func newTestMachine() *%s.", class)
		line(0, "")
	}

	for idx, scen := range scenarios {
		line(0, "// Scenario: %s", scen.Title)
		line(0, "func TestScenario%d%s(t *testing.T) {", idx, Camel(scen.Title))
		line(1, "fsm := newTestMachine()")
		for _, outcome := range scen.Guards {
			for _, tr := range m.Transitions() {
				if tr.guard == outcome.Expr {
					line(1, "fsm.StubGuard%s = func() bool { return %v }", be.trSuffix(tr), outcome.Value)
				}
			}
		}
		line(1, "fsm.Reset()")
		for _, event := range scen.Events {
			line(1, "fsm.%s()", be.eventMethod(event))
		}
		if scen.Kind == ResetScenario {
			var checks []string
			for _, state := range scen.ExpectAny {
				checks = append(checks, fmt.Sprintf("fsm.State() == %s", be.stateID(state)))
			}
			line(1, "if !(%s) {", strings.Join(checks, " || "))
			line(2, `t.Fatalf("unexpected state after reset: %%s", fsm.State())`)
			line(1, "}")
		} else {
			line(1, "if fsm.State() != %s {", be.stateID(scen.Expect))
			line(2, `t.Fatalf("want %s, got %%s", fsm.State())`, scen.Expect.Name())
			line(1, "}")
		}
		line(0, "}")
		line(0, "")
	}
	return nil
}
