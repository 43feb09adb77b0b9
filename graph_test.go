package statecharts

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func buildMachine(t *testing.T, src string) (*Machine, *Report) {
	t.Helper()
	var rep = NewReport("test.puml")
	var decls = Parse(src, rep)
	require.False(t, rep.HasErrors(), "parse: %v", rep.Diags())
	var m = Build("Test", "test.puml", decls, rep)
	return m, rep
}

func TestBuildGraphFidelity(t *testing.T) {
	// One declaration, one edge, with matching text on every attribute.
	var m, rep = buildMachine(t, `@startuml
[*] --> A
A --> B : go [ x > 0 ] / fire ( )
@enduml`)
	require.False(t, rep.HasErrors())
	require.Len(t, m.Transitions(), 2)

	var tr = m.Transitions()[1]
	require.Equal(t, "A", tr.Src().Name())
	require.Equal(t, "B", tr.Dst().Name())
	require.Equal(t, "go", tr.Event().Name())
	require.Equal(t, "x > 0", tr.Guard())
	require.Equal(t, "fire ( )", tr.Action())
	require.Equal(t, External, tr.Kind())
}

func TestBuildNormalizesArrowDirection(t *testing.T) {
	var forward, _ = buildMachine(t, "@startuml\n[*] --> A\nA --> B : go\n@enduml")
	var backward, _ = buildMachine(t, "@startuml\nA <-- [*]\nB <-- A : go\n@enduml")
	for _, m := range []*Machine{forward, backward} {
		var tr = m.Transitions()[1]
		require.Equal(t, "A", tr.Src().Name())
		require.Equal(t, "B", tr.Dst().Name())
	}
}

func TestBuildPseudoStatesByPosition(t *testing.T) {
	var m, _ = buildMachine(t, "@startuml\n[*] --> A\nA --> [*] : stop\n@enduml")
	require.NotNil(t, m.Initial())
	require.NotNil(t, m.Final())
	require.Equal(t, KindInitial, m.Transitions()[0].Src().Kind())
	require.Equal(t, KindFinal, m.Transitions()[1].Dst().Kind())
}

func TestBuildTransitionKinds(t *testing.T) {
	var m, _ = buildMachine(t, `@startuml
[*] --> A
A --> B : go
B --> B : tick
B --> A
@enduml`)
	var kinds []TransitionKind
	for _, tr := range m.Transitions() {
		kinds = append(kinds, tr.Kind())
	}
	require.Equal(t, []TransitionKind{Completion, External, Internal, Completion}, kinds)
}

func TestBuildFoldsInternalReaction(t *testing.T) {
	var m, _ = buildMachine(t, `@startuml
[*] --> A
A : on ping [ ready ] / pong ( )
A --> B : go
@enduml`)
	var reaction = m.Transitions()[1]
	require.Equal(t, Internal, reaction.Kind())
	require.Equal(t, "A", reaction.Src().Name())
	require.Equal(t, "A", reaction.Dst().Name())
	require.Equal(t, "ping", reaction.Event().Name())
	require.Equal(t, "pong ( )", reaction.Action())
}

func TestBuildConcatenatesEntryExit(t *testing.T) {
	var m, _ = buildMachine(t, `@startuml
[*] --> A
A : entry / first ( )
A : entry / second ( )
A : exit / bye ( )
A --> B : go
@enduml`)
	var state = m.Lookup("A")
	require.Equal(t, []string{"first ( )", "second ( )"}, state.Entry())
	require.Equal(t, []string{"bye ( )"}, state.Exit())
}

func TestBuildRejectsDuplicateTriple(t *testing.T) {
	var rep = NewReport("test.puml")
	var decls = Parse(`@startuml
[*] --> A
A --> B : go
A --> B : go [ x ] / y
@enduml`, rep)
	require.False(t, rep.HasErrors())
	var m = Build("Test", "test.puml", decls, rep)
	require.Nil(t, m)
	require.Equal(t, 1, rep.CountKind(ShapeError))
	require.Contains(t, rep.Diags()[0].Msg, "duplicate transition")
}

func TestBuildAllowsParallelEdgesWithDistinctEvents(t *testing.T) {
	var m, rep = buildMachine(t, `@startuml
[*] --> A
A --> B : go
A --> B : jump
@enduml`)
	require.False(t, rep.HasErrors())
	require.Len(t, m.Transitions(), 3)
}

func TestBuildBindsCodeSlots(t *testing.T) {
	var m, _ = buildMachine(t, `@startuml
'[brief] A tiny machine.
'[header] #include <cstdint>
'[param] int count
'[cons] counter ( count )
'[init] ticks = 0
'[code] int ticks;
'[test] static int probes = 0;
'[footer] // tail
[*] --> A
@enduml`)
	var slots = m.Slots()
	require.Equal(t, []string{"A tiny machine."}, slots.Brief)
	require.Equal(t, []string{"#include <cstdint>"}, slots.Header)
	require.Equal(t, []string{"int count"}, slots.Param)
	require.Equal(t, []string{"counter ( count )"}, slots.Cons)
	require.Equal(t, []string{"ticks = 0"}, slots.Init)
	require.Equal(t, []string{"int ticks;"}, slots.Code)
	require.Equal(t, []string{"static int probes = 0;"}, slots.Test)
	require.Equal(t, []string{"// tail"}, slots.Footer)
}

func TestBuildEdgeIDsAreDeterministic(t *testing.T) {
	var src = "@startuml\n[*] --> A\nA --> B : go\n@enduml"
	var first, _ = buildMachine(t, src)
	var second, _ = buildMachine(t, src)
	for idx := range first.Transitions() {
		require.Equal(t, first.Transitions()[idx].ID(), second.Transitions()[idx].ID())
	}
	require.NotEqual(t, first.Transitions()[0].ID(), first.Transitions()[1].ID())
}

func TestOutForOrdersGuardedFirst(t *testing.T) {
	var m, _ = buildMachine(t, `@startuml
[*] --> A
A --> B : go
A --> C : go [ x ]
@enduml`)
	var rows = m.Lookup("A").OutFor("go")
	require.Len(t, rows, 2)
	require.True(t, rows[0].HasGuard())
	require.False(t, rows[1].HasGuard())
}
