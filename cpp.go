package statecharts

import (
	"bytes"
	"fmt"
	"strings"
)

// cppBackend renders the machine as a standalone table-driven C++14 class:
// an unscoped state enum with the reserved markers, per-event dispatch
// tables, a bounded completion queue and stub hooks for guards.
type cppBackend struct{}

func (cppBackend) Name() string {
	return "cpp"
}

func (cppBackend) Escape(name string) string {
	return escapeIdent(name)
}

func (cppBackend) Reserved() []string {
	return []string{"CONSTRUCTOR", "FINAL_STATE", "IGNORING_EVENT", "CANNOT_HAPPEN", "MAX_STATES"}
}

func (cppBackend) FileNames(base string, kind OutputKind) (string, string) {
	if kind == OutHeader {
		return base + ".hpp", base + "Tests.cpp"
	}
	return base + ".cpp", base + "Tests.cpp"
}

// stateID maps a state onto its enumerant.
func (be cppBackend) stateID(state *State) string {
	switch state.kind {
	case KindInitial:
		return "CONSTRUCTOR"
	case KindFinal:
		return "FINAL_STATE"
	}
	return be.Escape(state.name)
}

// trSuffix names the guard/action members of one transition. The event is
// part of the name: two transitions may share source and destination as
// long as their events differ.
func (be cppBackend) trSuffix(tr *Transition) string {
	if tr.event.IsCompletion() {
		return be.stateID(tr.src) + "_" + be.stateID(tr.dst)
	}
	return be.stateID(tr.src) + "_" + be.Escape(tr.event.name) + "_" + be.stateID(tr.dst)
}

func (be cppBackend) guardName(tr *Transition) string {
	return "onGuardingTransition" + be.trSuffix(tr)
}

func (be cppBackend) stubName(tr *Transition) string {
	return "stubGuard" + be.trSuffix(tr)
}

func (be cppBackend) actionName(tr *Transition) string {
	return "onTransitioning" + be.trSuffix(tr)
}

// stmt terminates an opaque body like the original generator: bodies that
// already close a block or a statement are kept as given.
func stmt(body string) string {
	var trimmed = strings.TrimRight(body, " \t")
	if trimmed == "" || strings.HasSuffix(trimmed, ";") || strings.HasSuffix(trimmed, "}") {
		return trimmed
	}
	return trimmed + ";"
}

func (be cppBackend) guardRef(class string, tr *Transition) string {
	if !tr.HasGuard() {
		return "nullptr"
	}
	return "&" + class + "::" + be.guardName(tr)
}

func (be cppBackend) actionRef(class string, tr *Transition) string {
	if tr.action == "" {
		return "nullptr"
	}
	return "&" + class + "::" + be.actionName(tr)
}

func (be cppBackend) Machine(buf *bytes.Buffer, m *Machine, kind OutputKind, cfg Config) error {
	if err := checkReserved(m, be.Reserved(), be.stateID, be.Escape); err != nil {
		return err
	}
	var line = lineWriter(buf, "    ")
	var class = be.Escape(m.name)
	var enum = class + "States"
	var guard = strings.ToUpper(class) + "_HPP"
	var slots = m.Slots()

	line(0, "// %s", banner)
	for _, text := range slots.Header {
		line(0, "%s", text)
	}
	if kind == OutHeader {
		line(0, "#ifndef %s", guard)
		line(0, "#  define %s", guard)
	}
	line(0, "")
	line(0, "#include <cstdio>")
	line(0, "#include <cstdlib>")
	line(0, "#include <functional>")
	if cfg.ThreadSafe {
		line(0, "#include <mutex>")
	}
	line(0, "")

	be.emitEnum(line, m, enum)
	be.emitStringify(line, m, enum)
	be.emitClass(line, m, class, enum, cfg)

	for _, text := range slots.Footer {
		line(0, "%s", text)
	}
	if kind == OutHeader {
		line(0, "#endif // %s", guard)
	}
	line(0, "")
	line(0, "/*")
	for _, text := range PrintMachine(m) {
		line(0, "%s", strings.ReplaceAll(text, "*/", "* /"))
	}
	line(0, "*/")
	return nil
}

func (be cppBackend) emitEnum(line func(int, string, ...interface{}), m *Machine, enum string) {
	line(0, "//*****************************************************************************")
	line(0, "//! \\brief States of the state machine.")
	line(0, "//*****************************************************************************")
	line(0, "enum %s", enum)
	line(0, "{")
	line(1, "// Client states:")
	line(1, "CONSTRUCTOR,")
	for _, state := range m.States() {
		if state.comment != "" {
			line(1, "%s, //!< %s", be.stateID(state), state.comment)
		} else {
			line(1, "%s,", be.stateID(state))
		}
	}
	if m.Final() != nil {
		line(1, "FINAL_STATE,")
	}
	line(1, "// Mandatory internal states:")
	line(1, "IGNORING_EVENT, CANNOT_HAPPEN, MAX_STATES")
	line(0, "};")
	line(0, "")
}

func (be cppBackend) emitStringify(line func(int, string, ...interface{}), m *Machine, enum string) {
	line(0, "//*****************************************************************************")
	line(0, "//! \\brief Convert enum states to human readable string.")
	line(0, "//*****************************************************************************")
	line(0, "static inline const char* stringify(%s const state)", enum)
	line(0, "{")
	line(1, "static const char* s_names[] =")
	line(1, "{")
	line(2, `"[*]",`)
	for _, state := range m.States() {
		line(2, `"%s",`, state.name)
	}
	if m.Final() != nil {
		line(2, `"[*]",`)
	}
	line(1, "};")
	line(0, "")
	line(1, "return (state < %s::MAX_STATES) ? s_names[state] : \"?\";", enum)
	line(0, "}")
	line(0, "")
}

func (be cppBackend) emitClass(line func(int, string, ...interface{}), m *Machine, class, enum string, cfg Config) {
	var slots = m.Slots()

	line(0, "//*****************************************************************************")
	if len(slots.Brief) == 0 {
		line(0, "//! \\brief State machine concrete implementation.")
	}
	for _, text := range slots.Brief {
		line(0, "//! \\brief %s", text)
	}
	line(0, "//*****************************************************************************")
	line(0, "class %s", class)
	line(0, "{")
	line(0, "public:")
	line(0, "")

	be.emitConstructor(line, m, class, enum, cfg)
	be.emitReset(line, m, class, enum, cfg)

	line(1, "//-------------------------------------------------------------------------")
	line(1, "//! \\brief Current state.")
	line(1, "//-------------------------------------------------------------------------")
	line(1, "%s state() const { return m_current; }", enum)
	line(1, "const char* c_str() const { return stringify(m_current); }")
	line(0, "")

	for _, event := range m.EventNames() {
		be.emitEvent(line, m, class, enum, event, cfg)
	}
	be.emitStubs(line, m)
	for _, text := range slots.Code {
		line(1, "%s", text)
	}
	if len(slots.Code) != 0 {
		line(0, "")
	}

	line(0, "private:")
	line(0, "")
	be.emitDriver(line, m, class, enum)
	be.emitReactions(line, m, enum)

	line(1, "StateActions m_states[%s::MAX_STATES] = {};", enum)
	line(1, "%s m_current;", enum)
	line(1, "Transition m_queue[16];")
	line(1, "unsigned long m_pending = 0u;")
	line(1, "bool m_busy = false;")
	if cfg.ThreadSafe {
		line(1, "std::recursive_mutex m_mutex;")
	}
	line(0, "};")
	line(0, "")
}

func (be cppBackend) emitConstructor(line func(int, string, ...interface{}), m *Machine, class, enum string, cfg Config) {
	var slots = m.Slots()
	line(1, "//-------------------------------------------------------------------------")
	line(1, "//! \\brief Build the machine, then reset onto the initial state.")
	line(1, "//-------------------------------------------------------------------------")
	line(1, "%s(%s)", class, strings.Join(slots.Param, ", "))
	var init = ": m_current(" + enum + "::CONSTRUCTOR)"
	for _, cons := range slots.Cons {
		init += ", " + cons
	}
	line(2, "%s", init)
	line(1, "{")
	for _, state := range m.States() {
		if len(state.entry) != 0 {
			line(2, "m_states[%s::%s].entering = &%s::onEnteringState%s;", enum, be.stateID(state), class, be.stateID(state))
		}
		if len(state.exit) != 0 {
			line(2, "m_states[%s::%s].leaving = &%s::onLeavingState%s;", enum, be.stateID(state), class, be.stateID(state))
		}
	}
	line(2, "reset();")
	line(1, "}")
	line(0, "")
}

func (be cppBackend) emitReset(line func(int, string, ...interface{}), m *Machine, class, enum string, cfg Config) {
	line(1, "//-------------------------------------------------------------------------")
	line(1, "//! \\brief Restore the initial state, clear the queue and take the")
	line(1, "//! first accepting initial transition.")
	line(1, "//-------------------------------------------------------------------------")
	line(1, "void reset()")
	line(1, "{")
	if cfg.ThreadSafe {
		line(2, "std::lock_guard<std::recursive_mutex> lock(m_mutex);")
	}
	line(2, "m_current = %s::CONSTRUCTOR;", enum)
	line(2, "m_pending = 0u;")
	line(2, "m_busy = false;")
	for _, text := range m.Slots().Init {
		line(2, "%s", stmt(text))
	}
	var resets = m.Initial().Out()
	line(2, "static const Transition s_reset[%d] =", len(resets))
	line(2, "{")
	for _, tr := range resets {
		line(3, "{ %s::%s, %s, %s },", enum, be.stateID(tr.dst), be.guardRef(class, tr), be.actionRef(class, tr))
	}
	line(2, "};")
	line(2, "for (unsigned long i = 0u; i < %du; ++i)", len(resets))
	line(2, "{")
	line(3, "if ((s_reset[i].guard == nullptr) || (this->*(s_reset[i].guard))())")
	line(3, "{")
	line(4, "doTransition(s_reset[i]);")
	line(4, "break;")
	line(3, "}")
	line(2, "}")
	line(1, "}")
	line(0, "")
}

func (be cppBackend) emitEvent(line func(int, string, ...interface{}), m *Machine, class, enum, event string, cfg Config) {
	line(1, "//-------------------------------------------------------------------------")
	if params := m.EventParams(event); params != "" {
		line(1, "//! \\brief External event. Declared parameters: %s", params)
	} else {
		line(1, "//! \\brief External event.")
	}
	line(1, "//-------------------------------------------------------------------------")
	line(1, "void %s()", be.Escape(event))
	line(1, "{")
	if cfg.ThreadSafe {
		line(2, "std::lock_guard<std::recursive_mutex> lock(m_mutex);")
	}
	var rows []*Transition
	for _, state := range m.States() {
		rows = append(rows, state.OutFor(event)...)
	}
	line(2, "static const Row s_rows[%d] =", len(rows))
	line(2, "{")
	for _, tr := range rows {
		line(3, "{ %s::%s, { %s::%s, %s, %s } },", enum, be.stateID(tr.src), enum, be.stateID(tr.dst),
			be.guardRef(class, tr), be.actionRef(class, tr))
	}
	line(2, "};")
	line(2, "dispatch(s_rows, %du);", len(rows))
	line(1, "}")
	line(0, "")
}

func (be cppBackend) emitStubs(line func(int, string, ...interface{}), m *Machine) {
	var guarded []*Transition
	for _, tr := range m.Transitions() {
		if tr.HasGuard() {
			guarded = append(guarded, tr)
		}
	}
	if len(guarded) == 0 {
		return
	}
	line(1, "// Test stubs: when set, a stub decides the guard outcome instead of")
	line(1, "// the guard expression.")
	for _, tr := range guarded {
		line(1, "std::function<bool()> %s; //!< [ %s ]", be.stubName(tr), tr.guard)
	}
	line(0, "")
}

func (be cppBackend) emitDriver(line func(int, string, ...interface{}), m *Machine, class, enum string) {
	line(1, "typedef bool (%s::*GuardPtr)();", class)
	line(1, "typedef void (%s::*ActionPtr)();", class)
	line(0, "")
	line(1, "struct Transition")
	line(1, "{")
	line(2, "%s destination;", enum)
	line(2, "GuardPtr guard;")
	line(2, "ActionPtr action;")
	line(1, "};")
	line(0, "")
	line(1, "struct Row")
	line(1, "{")
	line(2, "%s source;", enum)
	line(2, "Transition transition;")
	line(1, "};")
	line(0, "")
	line(1, "struct StateActions")
	line(1, "{")
	line(2, "ActionPtr entering;")
	line(2, "ActionPtr leaving;")
	line(1, "};")
	line(0, "")
	line(1, "//-------------------------------------------------------------------------")
	line(1, "//! \\brief Find the first accepting row for the current state. No row")
	line(1, "//! for the state means the event is ignored.")
	line(1, "//-------------------------------------------------------------------------")
	line(1, "void dispatch(Row const* rows, unsigned long count)")
	line(1, "{")
	line(2, "for (unsigned long i = 0u; i < count; ++i)")
	line(2, "{")
	line(3, "if (rows[i].source != m_current)")
	line(4, "continue;")
	line(3, "if ((rows[i].transition.guard == nullptr) || (this->*(rows[i].transition.guard))())")
	line(3, "{")
	line(4, "doTransition(rows[i].transition);")
	line(4, "return;")
	line(3, "}")
	line(2, "}")
	line(1, "}")
	line(0, "")
	line(1, "//-------------------------------------------------------------------------")
	line(1, "//! \\brief Queue one transition and run the driver to quiescence.")
	line(1, "//! Nested calls from inside actions only enqueue; a queue deeper than")
	line(1, "//! 16 pending transitions is an infinite loop and aborts.")
	line(1, "//-------------------------------------------------------------------------")
	line(1, "void doTransition(Transition const& tr)")
	line(1, "{")
	line(2, "if (m_pending >= 16u)")
	line(2, "{")
	line(3, `std::fprintf(stderr, "[%%s] infinite loop detected, aborting\n", c_str());`)
	line(3, "std::abort();")
	line(2, "}")
	line(2, "m_queue[m_pending++] = tr;")
	line(2, "if (m_busy)")
	line(3, "return;")
	line(2, "m_busy = true;")
	line(2, "for (unsigned long i = 0u; i < m_pending; ++i)")
	line(3, "apply(m_queue[i]);")
	line(2, "m_pending = 0u;")
	line(2, "m_busy = false;")
	line(1, "}")
	line(0, "")
	line(1, "//-------------------------------------------------------------------------")
	line(1, "//! \\brief One driver step: guard, state change, action, exit, entry,")
	line(1, "//! then the completion transitions of the new state.")
	line(1, "//-------------------------------------------------------------------------")
	line(1, "void apply(Transition const& tr)")
	line(1, "{")
	line(2, "if (tr.destination == %s::CANNOT_HAPPEN)", enum)
	line(2, "{")
	line(3, `std::fprintf(stderr, "[%%s] forbidden event, aborting\n", c_str());`)
	line(3, "std::abort();")
	line(2, "}")
	line(2, "if (tr.destination == %s::IGNORING_EVENT)", enum)
	line(3, "return;")
	line(2, "if ((tr.guard != nullptr) && !(this->*(tr.guard))())")
	line(3, "return;")
	line(2, "%s const previous = m_current;", enum)
	line(2, "m_current = tr.destination;")
	line(2, "if (tr.action != nullptr)")
	line(3, "(this->*(tr.action))();")
	line(2, "if (previous == m_current)")
	line(3, "return;")
	line(2, "if (m_states[previous].leaving != nullptr)")
	line(3, "(this->*(m_states[previous].leaving))();")
	line(2, "if (m_states[m_current].entering != nullptr)")
	line(3, "(this->*(m_states[m_current].entering))();")
	line(2, "onCompletion();")
	line(1, "}")
	line(0, "")

	var completions []*Transition
	for _, state := range m.States() {
		for _, tr := range state.out {
			if tr.event.IsCompletion() {
				completions = append(completions, tr)
			}
		}
	}
	line(1, "//-------------------------------------------------------------------------")
	line(1, "//! \\brief Take the first accepting completion transition leaving the")
	line(1, "//! current state, if any.")
	line(1, "//-------------------------------------------------------------------------")
	line(1, "void onCompletion()")
	line(1, "{")
	if len(completions) != 0 {
		line(2, "static const Row s_rows[%d] =", len(completions))
		line(2, "{")
		for _, tr := range completions {
			line(3, "{ %s::%s, { %s::%s, %s, %s } },", enum, be.stateID(tr.src), enum, be.stateID(tr.dst),
				be.guardRef(class, tr), be.actionRef(class, tr))
		}
		line(2, "};")
		line(2, "dispatch(s_rows, %du);", len(completions))
	}
	line(1, "}")
	line(0, "")
}

func (be cppBackend) emitReactions(line func(int, string, ...interface{}), m *Machine, enum string) {
	for _, tr := range m.Transitions() {
		if tr.HasGuard() {
			line(1, "//-------------------------------------------------------------------------")
			line(1, "//! \\brief Guard the transition %s -> %s.", tr.src.Name(), tr.dst.Name())
			line(1, "//-------------------------------------------------------------------------")
			line(1, "bool %s()", be.guardName(tr))
			line(1, "{")
			line(2, "if (%s)", be.stubName(tr))
			line(3, "return %s();", be.stubName(tr))
			line(2, "return ( %s );", tr.guard)
			line(1, "}")
			line(0, "")
		}
		if tr.action != "" {
			line(1, "//-------------------------------------------------------------------------")
			line(1, "//! \\brief Action of the transition %s -> %s.", tr.src.Name(), tr.dst.Name())
			line(1, "//-------------------------------------------------------------------------")
			line(1, "void %s()", be.actionName(tr))
			line(1, "{")
			line(2, "%s", stmt(tr.action))
			line(1, "}")
			line(0, "")
		}
	}
	for _, state := range m.States() {
		if len(state.entry) != 0 {
			line(1, "//-------------------------------------------------------------------------")
			line(1, "//! \\brief Entering state %s.", state.name)
			line(1, "//-------------------------------------------------------------------------")
			line(1, "void onEnteringState%s()", be.stateID(state))
			line(1, "{")
			for _, body := range state.entry {
				line(2, "%s", stmt(body))
			}
			line(1, "}")
			line(0, "")
		}
		if len(state.exit) != 0 {
			line(1, "//-------------------------------------------------------------------------")
			line(1, "//! \\brief Leaving state %s.", state.name)
			line(1, "//-------------------------------------------------------------------------")
			line(1, "void onLeavingState%s()", be.stateID(state))
			line(1, "{")
			for _, body := range state.exit {
				line(2, "%s", stmt(body))
			}
			line(1, "}")
			line(0, "")
		}
	}
}

func (be cppBackend) Tests(buf *bytes.Buffer, m *Machine, scenarios []Scenario, kind OutputKind, cfg Config) error {
	var line = lineWriter(buf, "    ")
	var class = be.Escape(m.name)
	var enum = class + "States"
	var primary, _ = be.FileNames(class, kind)
	var args = strings.ToUpper(class) + "_TEST_ARGS"

	line(0, "// %s", banner)
	line(0, "#include \"%s\"", primary)
	line(0, "#include <cassert>")
	line(0, "#include <cstring>")
	line(0, "#include <iostream>")
	line(0, "")
	for _, text := range m.Slots().Test {
		line(0, "%s", text)
	}
	if len(m.Slots().Test) != 0 {
		line(0, "")
	}
	line(0, "// Constructor arguments for the machine under test.")
	line(0, "#ifndef %s", args)
	line(0, "#  define %s", args)
	line(0, "#endif")
	line(0, "")

	for idx, scen := range scenarios {
		line(0, "//*****************************************************************************")
		line(0, "//! \\brief Scenario: %s", scen.Title)
		line(0, "//*****************************************************************************")
		line(0, "static void testScenario%d%s()", idx, Camel(scen.Title))
		line(0, "{")
		line(1, "%s fsm %s;", class, args)
		for _, outcome := range scen.Guards {
			for _, tr := range m.Transitions() {
				if tr.guard == outcome.Expr {
					line(1, "fsm.%s = []() { return %v; };", be.stubName(tr), outcome.Value)
				}
			}
		}
		line(1, "fsm.reset();")
		for _, event := range scen.Events {
			line(1, "fsm.%s();", be.Escape(event))
		}
		if scen.Kind == ResetScenario {
			var checks []string
			for _, state := range scen.ExpectAny {
				checks = append(checks, fmt.Sprintf("(fsm.state() == %s::%s)", enum, be.stateID(state)))
			}
			line(1, "assert(%s);", strings.Join(checks, " || "))
		} else {
			line(1, "assert(fsm.state() == %s::%s);", enum, be.stateID(scen.Expect))
			line(1, `assert(std::strcmp(fsm.c_str(), "%s") == 0);`, scen.Expect.Name())
		}
		line(0, "}")
		line(0, "")
	}

	line(0, "int main()")
	line(0, "{")
	for idx, scen := range scenarios {
		line(1, "testScenario%d%s();", idx, Camel(scen.Title))
	}
	line(1, `std::cout << "All %d scenarios passed" << std::endl;`, len(scenarios))
	line(1, "return 0;")
	line(0, "}")
	return nil
}
