package statecharts

import (
	"fmt"
	"strings"
)

// PrintMachine renders the canonical form of a machine: one line per state
// attribute, one per transition, aliases resolved and arrows normalized.
// Backends echo this rendering into the artifact so two sources describing
// the same machine generate the same code.
func PrintMachine(m *Machine) []string {
	var lines = []string{"@startuml"}
	for _, state := range m.States() {
		lines = append(lines, PrintState(state)...)
	}
	for _, tr := range m.Transitions() {
		lines = append(lines, PrintTransition(tr))
	}
	lines = append(lines, "@enduml")
	return lines
}

func PrintState(state *State) (lines []string) {
	var line = func(format string, args ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}
	if state.comment != "" {
		line("%s : comment / %s", state.name, state.comment)
	}
	for _, body := range state.entry {
		line("%s : entry / %s", state.name, body)
	}
	for _, body := range state.exit {
		line("%s : exit / %s", state.name, body)
	}
	return
}

func PrintTransition(tr *Transition) string {
	var label strings.Builder
	if !tr.event.IsCompletion() {
		label.WriteString(" " + tr.event.name + tr.event.params)
	}
	if tr.HasGuard() {
		label.WriteString(" [ " + tr.guard + " ]")
	}
	if tr.action != "" {
		label.WriteString(" / " + tr.action)
	}
	if tr.kind == Internal {
		return tr.src.Name() + " : on" + label.String()
	}
	if label.Len() == 0 {
		return tr.src.Name() + " --> " + tr.dst.Name()
	}
	return tr.src.Name() + " --> " + tr.dst.Name() + " :" + label.String()
}
