package statecharts

import (
	"bytes"
)

// Artifact is one generated source, named relative to the output directory.
type Artifact struct {
	Name string
	Data []byte
}

// Emit renders the machine and its scenarios through the backend: the
// primary machine source and the secondary test source. A backend refusal
// becomes an EmitError and suppresses both artifacts.
func Emit(m *Machine, scenarios []Scenario, be Backend, kind OutputKind, cfg Config, rep *Report) []Artifact {
	var base = be.Escape(m.Name())
	var primary, secondary = be.FileNames(base, kind)

	var machine = bytes.NewBuffer(nil)
	if err := be.Machine(machine, m, kind, cfg); err != nil {
		rep.Errorf(EmitError, Pos{}, "%s backend: %s", be.Name(), err)
		return nil
	}
	var tests = bytes.NewBuffer(nil)
	if err := be.Tests(tests, m, scenarios, kind, cfg); err != nil {
		rep.Errorf(EmitError, Pos{}, "%s backend: %s", be.Name(), err)
		return nil
	}
	logger.Debug("emitted", "backend", be.Name(), "primary", primary, "secondary", secondary)
	return []Artifact{
		{Name: primary, Data: machine.Bytes()},
		{Name: secondary, Data: tests.Bytes()},
	}
}
