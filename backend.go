package statecharts

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"
)

// OutputKind selects the form of the primary artifact. For the C++ backend
// it is a translation unit or a header-only file; other backends may ignore
// it.
type OutputKind int

const (
	OutSource OutputKind = iota
	OutHeader
)

// Backend renders a verified machine and its scenarios into target-language
// sources. Upstream components never depend on a concrete backend.
type Backend interface {
	Name() string

	// Escape maps an input name onto a target identifier. Plain identifiers
	// pass through verbatim; everything else is rewritten invertibly.
	Escape(name string) string

	// Reserved lists the identifiers the backend refuses to escape around.
	// A machine using one of them is rejected with an EmitError.
	Reserved() []string

	// FileNames returns the primary and secondary artifact names for the
	// given base name.
	FileNames(base string, kind OutputKind) (string, string)

	Machine(buf *bytes.Buffer, m *Machine, kind OutputKind, cfg Config) error
	Tests(buf *bytes.Buffer, m *Machine, scenarios []Scenario, kind OutputKind, cfg Config) error
}

// BackendFor resolves the CLI selector. cpp and hpp select the C++ backend
// in its two output forms.
func BackendFor(selector string) (Backend, OutputKind, error) {
	switch selector {
	case "cpp":
		return cppBackend{}, OutSource, nil
	case "hpp":
		return cppBackend{}, OutHeader, nil
	case "go":
		return goBackend{}, OutSource, nil
	}
	return nil, OutSource, fmt.Errorf("unknown backend selector %q (want cpp, hpp or go)", selector)
}

// escapeIdent is the shared invertible escaping: underscores double, any
// rune outside letter/digit becomes _uXXXX, a leading digit gets a guard
// underscore. Names that already are identifiers stay untouched.
func escapeIdent(name string) string {
	if IsIdent(name) {
		return name
	}
	var buf strings.Builder
	for idx, chr := range name {
		switch {
		case chr == '_':
			buf.WriteString("__")
		case unicode.IsLetter(chr):
			buf.WriteRune(chr)
		case unicode.IsDigit(chr):
			if idx == 0 {
				buf.WriteString("_")
			}
			buf.WriteRune(chr)
		default:
			fmt.Fprintf(&buf, "_u%04X", chr)
		}
	}
	return buf.String()
}

// lineWriter is the indentation-aware printf the backends write through.
func lineWriter(buf *bytes.Buffer, indent string) func(int, string, ...interface{}) {
	return func(idt int, format string, args ...interface{}) {
		fmt.Fprintf(buf, strings.Repeat(indent, idt))
		fmt.Fprintf(buf, format, args...)
		fmt.Fprintf(buf, "\n")
	}
}

// checkReserved rejects machines whose rendered names collide with the
// backend's reserved identifiers. The mapping functions are the same ones
// the backend renders with.
func checkReserved(m *Machine, words []string, mapState func(*State) string, mapEvent func(string) string) error {
	var reserved = make(map[string]bool)
	for _, word := range words {
		reserved[word] = true
	}
	for _, state := range m.States() {
		if reserved[mapState(state)] {
			return fmt.Errorf("state name %q collides with a reserved identifier", state.Name())
		}
	}
	for _, name := range m.EventNames() {
		if reserved[mapEvent(name)] {
			return fmt.Errorf("event name %q collides with a reserved identifier", name)
		}
	}
	return nil
}

// banner is the fixed first line of every artifact. No timestamp: emission
// must be byte-identical across runs.
const banner = "Generated by PlantUMLStatecharts. Do not edit."
