package statecharts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func verifyMachine(t *testing.T, src string) *Report {
	t.Helper()
	var m, rep = buildMachine(t, src)
	require.NotNil(t, m)
	Verify(m, rep)
	return rep
}

func diagMessages(rep *Report) []string {
	var msgs []string
	for _, diag := range rep.Diags() {
		msgs = append(msgs, diag.Msg)
	}
	return msgs
}

func requireDiag(t *testing.T, rep *Report, kind Kind, substr string) {
	t.Helper()
	for _, diag := range rep.Diags() {
		if diag.Kind == kind && strings.Contains(diag.Msg, substr) {
			return
		}
	}
	t.Fatalf("no %v diagnostic containing %q in %v", kind, substr, diagMessages(rep))
}

func TestVerifyMissingInitial(t *testing.T) {
	var rep = verifyMachine(t, `@startuml
A --> B : go
B --> A : back
@enduml`)
	requireDiag(t, rep, StructuralError, "missing initial state")
}

func TestVerifyUnreachableState(t *testing.T) {
	var rep = verifyMachine(t, `@startuml
[*] --> A
A --> A : tick
Lost --> A : find
@enduml`)
	requireDiag(t, rep, StructuralError, "Lost is unreachable")
}

func TestVerifyDeadlockWarnings(t *testing.T) {
	var rep = verifyMachine(t, `@startuml
[*] --> A
A --> Stuck : go
A --> Maybe : jump
Maybe --> A : back [ x ]
@enduml`)
	requireDiag(t, rep, StructuralWarning, "Stuck has no outgoing transition")
	requireDiag(t, rep, StructuralWarning, "Maybe has only guarded outgoing transitions")
	require.False(t, rep.HasErrors())
}

func TestVerifyUnguardedCompletionCycleIsError(t *testing.T) {
	// Two states ping-ponging on unguarded completion transitions loop
	// forever at run time.
	var rep = verifyMachine(t, `@startuml
[*] --> A
A --> B
B --> A
@enduml`)
	requireDiag(t, rep, StructuralError, "loops forever")
	require.True(t, rep.HasErrors())
}

func TestVerifyGuardedCompletionCycleIsWarning(t *testing.T) {
	var rep = verifyMachine(t, `@startuml
[*] --> A
A --> B : [ x ]
B --> A : [ y ]
@enduml`)
	requireDiag(t, rep, StructuralWarning, "may loop forever")
	require.False(t, rep.HasErrors())
}

func TestVerifyGuardedCompletionSelfLoopIsWarning(t *testing.T) {
	var rep = verifyMachine(t, `@startuml
[*] --> Pocket
Pocket --> Pocket : [ quarters < 10 ] / incr ( quarters )
Pocket --> Rich : [ quarters >= 10 ]
@enduml`)
	requireDiag(t, rep, StructuralWarning, "may loop forever")
	require.False(t, rep.HasErrors())
}

func TestVerifyBadSwitch(t *testing.T) {
	// Two unguarded completion transitions leaving the same state cannot be
	// told apart.
	var rep = verifyMachine(t, `@startuml
[*] --> A
A --> B
A --> C
@enduml`)
	requireDiag(t, rep, StructuralError, "non-deterministic")
}

func TestVerifyTwoUnguardedOnSameEvent(t *testing.T) {
	var rep = verifyMachine(t, `@startuml
[*] --> A
A --> B : go
A --> C : go
@enduml`)
	requireDiag(t, rep, StructuralError, "non-deterministic")
}

func TestVerifyGuardedAlternativesAreFine(t *testing.T) {
	var rep = verifyMachine(t, `@startuml
[*] --> A
A --> B : go [ x ]
A --> C : go
B --> A : back
C --> A : back
@enduml`)
	require.False(t, rep.HasErrors())
}

func TestVerifySelfLoopMachinePasses(t *testing.T) {
	var rep = verifyMachine(t, `@startuml
[*] --> A
A --> A : tick
@enduml`)
	require.False(t, rep.HasErrors())
}

func TestVerifyInitialTransitionMustBeCompletion(t *testing.T) {
	var rep = verifyMachine(t, `@startuml
[*] --> A : boot
A --> A : tick
@enduml`)
	requireDiag(t, rep, StructuralError, "must not carry event")
}

func TestVerifyIdentifierWarning(t *testing.T) {
	var rep = verifyMachine(t, `@startuml
[*] --> Wait-Here
Wait-Here --> Wait-Here : tick
@enduml`)
	requireDiag(t, rep, StructuralWarning, "not an identifier")
	require.False(t, rep.HasErrors())
}

func TestVerifyGumballPasses(t *testing.T) {
	var rep = verifyMachine(t, gumballSrc)
	require.False(t, rep.HasErrors())
}

const gumballSrc = `@startuml
[*] --> NoQuarter : [ gumballs > 0 ]
[*] --> OutOfGumballs : [ gumballs == 0 ]
NoQuarter --> HasQuarter : insertQuarter
HasQuarter --> GumballSold : turnCrank / --gumballs
GumballSold --> NoQuarter : [ gumballs > 0 ]
GumballSold --> OutOfGumballs : [ gumballs == 0 ]
@enduml`

const motorSrc = `@startuml
[*] --> Idle
Idle --> Starting : setSpeed
Starting --> Spinning : setSpeed
Starting --> Stopping : halt
Spinning --> Stopping : halt
Stopping --> Idle
@enduml`

const richManSrc = `@startuml
[*] --> Pocket
Pocket --> Pocket : [ quarters < 10 ] / incr ( quarters )
Pocket --> Rich : [ quarters >= 10 ]
@enduml`

func TestVerifyMotorPasses(t *testing.T) {
	var rep = verifyMachine(t, motorSrc)
	require.False(t, rep.HasErrors())
}
