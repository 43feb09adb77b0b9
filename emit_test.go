package statecharts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func runPipeline(t *testing.T, src, selector string, cfg Config) ([]Artifact, *Report) {
	t.Helper()
	var be, kind, err = BackendFor(selector)
	require.NoError(t, err)
	var rep = NewReport("gumball.puml")
	return Pipeline("gumball.puml", src, be, kind, cfg, rep), rep
}

func TestEmitProducesBothArtifacts(t *testing.T) {
	var artifacts, rep = runPipeline(t, gumballSrc, "cpp", Config{})
	require.False(t, rep.HasErrors())
	require.Len(t, artifacts, 2)
	require.Equal(t, "Gumball.cpp", artifacts[0].Name)
	require.Equal(t, "GumballTests.cpp", artifacts[1].Name)
}

func TestEmitHeaderForm(t *testing.T) {
	var artifacts, rep = runPipeline(t, gumballSrc, "hpp", Config{})
	require.False(t, rep.HasErrors())
	require.Equal(t, "Gumball.hpp", artifacts[0].Name)
	var text = string(artifacts[0].Data)
	require.Contains(t, text, "#ifndef GUMBALL_HPP")
	require.Contains(t, text, "#endif // GUMBALL_HPP")
}

func TestEmitPrefixAppliesToTypeAndFiles(t *testing.T) {
	var artifacts, rep = runPipeline(t, gumballSrc, "cpp", Config{Prefix: "My"})
	require.False(t, rep.HasErrors())
	require.Equal(t, "MyGumball.cpp", artifacts[0].Name)
	require.Contains(t, string(artifacts[0].Data), "class MyGumball")
}

func TestEmitDeterministic(t *testing.T) {
	var first, _ = runPipeline(t, gumballSrc, "cpp", Config{})
	var second, _ = runPipeline(t, gumballSrc, "cpp", Config{})
	require.Equal(t, first[0].Data, second[0].Data)
	require.Equal(t, first[1].Data, second[1].Data)
}

func TestEmitRoundTripsIdentifiers(t *testing.T) {
	var artifacts, _ = runPipeline(t, gumballSrc, "cpp", Config{})
	var text = string(artifacts[0].Data)
	for _, name := range []string{"NoQuarter", "HasQuarter", "GumballSold", "OutOfGumballs",
		"insertQuarter", "turnCrank"} {
		require.Contains(t, text, name)
	}
}

func TestEmitReservedMarkers(t *testing.T) {
	var artifacts, _ = runPipeline(t, gumballSrc, "cpp", Config{})
	var text = string(artifacts[0].Data)
	require.Contains(t, text, "IGNORING_EVENT, CANNOT_HAPPEN, MAX_STATES")
	require.Contains(t, text, "enum GumballStates")
	require.Contains(t, text, "stringify")
}

func TestEmitAliasEquivalence(t *testing.T) {
	// entering/leaving must render exactly like entry/exit.
	var aliased = `@startuml
[*] --> S
S : entering / a ( )
S : leaving / b ( )
S --> S : tick
@enduml`
	var plain = strings.ReplaceAll(strings.ReplaceAll(aliased, "entering", "entry"), "leaving", "exit")

	var be, kind, err = BackendFor("cpp")
	require.NoError(t, err)
	var fromAlias = Pipeline("s.puml", aliased, be, kind, Config{}, NewReport("s.puml"))
	var fromPlain = Pipeline("s.puml", plain, be, kind, Config{}, NewReport("s.puml"))
	require.Len(t, fromAlias, 2)
	require.Equal(t, fromPlain[0].Data, fromAlias[0].Data)
}

func TestEmitInjectsSlots(t *testing.T) {
	var src = `@startuml
'[brief] Counts things.
'[header] #include <cstdint>
'[footer] // the end
'[param] int count
'[cons] m_count ( count )
'[init] ticks = 0
'[code] int ticks;
'[test] static int probes = 0;
[*] --> A
A --> A : tick
@enduml`
	var artifacts, rep = runPipeline(t, src, "cpp", Config{})
	require.False(t, rep.HasErrors())
	var machine = string(artifacts[0].Data)
	require.Contains(t, machine, "//! \\brief Counts things.")
	require.Contains(t, machine, "#include <cstdint>")
	require.Contains(t, machine, "// the end")
	require.Contains(t, machine, "Gumball(int count)")
	require.Contains(t, machine, ", m_count ( count )")
	require.Contains(t, machine, "ticks = 0;")
	require.Contains(t, machine, "int ticks;")
	require.Contains(t, string(artifacts[1].Data), "static int probes = 0;")
}

func TestEmitEchoesSource(t *testing.T) {
	var artifacts, _ = runPipeline(t, gumballSrc, "cpp", Config{})
	require.Contains(t, string(artifacts[0].Data), "@startuml")
}

func TestEmitReservedCollision(t *testing.T) {
	var src = `@startuml
[*] --> CANNOT_HAPPEN
CANNOT_HAPPEN --> Done : go
Done --> Done : loop
@enduml`
	var artifacts, rep = runPipeline(t, src, "cpp", Config{})
	require.Nil(t, artifacts)
	require.Equal(t, 1, rep.CountKind(EmitError))
}

func TestEmitThreadSafeSwitch(t *testing.T) {
	var artifacts, _ = runPipeline(t, gumballSrc, "cpp", Config{ThreadSafe: true})
	var text = string(artifacts[0].Data)
	require.Contains(t, text, "#include <mutex>")
	require.Contains(t, text, "std::lock_guard<std::recursive_mutex> lock(m_mutex);")
}

func TestEmitTestsCarryScenarios(t *testing.T) {
	var artifacts, _ = runPipeline(t, gumballSrc, "cpp", Config{})
	var tests = string(artifacts[1].Data)
	require.Contains(t, tests, `#include "Gumball.cpp"`)
	require.Contains(t, tests, "testScenario0")
	require.Contains(t, tests, "fsm.insertQuarter();")
	require.Contains(t, tests, "fsm.turnCrank();")
	require.Contains(t, tests, "GumballStates::NoQuarter")
	require.Contains(t, tests, "int main()")
}

func TestEmitStubsForGuards(t *testing.T) {
	var artifacts, _ = runPipeline(t, gumballSrc, "cpp", Config{})
	var machine = string(artifacts[0].Data)
	require.Contains(t, machine, "std::function<bool()> stubGuard")
	var tests = string(artifacts[1].Data)
	require.Contains(t, tests, "= []() { return true; };")
}

func TestEmitGoBackend(t *testing.T) {
	var artifacts, rep = runPipeline(t, gumballSrc, "go", Config{})
	require.False(t, rep.HasErrors())
	require.Equal(t, "Gumball.go", artifacts[0].Name)
	require.Equal(t, "Gumball_test.go", artifacts[1].Name)

	var machine = string(artifacts[0].Data)
	require.Contains(t, machine, "package gumball")
	require.Contains(t, machine, "type Gumball struct")
	require.Contains(t, machine, "func (this *Gumball) InsertQuarter()")
	require.Contains(t, machine, "CannotHappen")

	var tests = string(artifacts[1].Data)
	require.Contains(t, tests, "func TestScenario0Reset(t *testing.T)")
	require.Contains(t, tests, "fsm.InsertQuarter()")
}

func TestEmitGoDeterministic(t *testing.T) {
	var first, _ = runPipeline(t, gumballSrc, "go", Config{})
	var second, _ = runPipeline(t, gumballSrc, "go", Config{})
	require.Equal(t, first[0].Data, second[0].Data)
}

func TestBackendForRejectsUnknown(t *testing.T) {
	var _, _, err = BackendFor("rust")
	require.Error(t, err)
}

func TestEscapeIdentInvertibleForms(t *testing.T) {
	require.Equal(t, "Plain", escapeIdent("Plain"))
	require.Equal(t, "Wait_u002DHere", escapeIdent("Wait-Here"))
	require.Equal(t, "a__b_u0020c", escapeIdent("a_b c"))
	require.NotEqual(t, escapeIdent("a-b"), escapeIdent("a.b"))
}
