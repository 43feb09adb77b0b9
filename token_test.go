package statecharts

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenizeSplitsOnBlanks(t *testing.T) {
	var lines = Tokenize("@startuml\nA --> B : go\n@enduml\n")
	require.Len(t, lines, 3)
	require.Equal(t, []string{"A", "-->", "B", ":", "go"}, texts(lines[1]))
	require.Equal(t, 2, lines[1].Num)
}

func TestTokenizeColumnsAreOneBased(t *testing.T) {
	var lines = Tokenize("@startuml\n  A -> B\n@enduml")
	require.Equal(t, 3, lines[1].Tokens[0].Col)
	require.Equal(t, 5, lines[1].Tokens[1].Col)
}

func TestTokenizeKeepsSeparatorsInsideWords(t *testing.T) {
	// The separators only separate when whitespace-surrounded: [gumballs>0]
	// stays one opaque token.
	var lines = Tokenize("@startuml\nA --> B : ev [gumballs>0]\n@enduml")
	require.Equal(t, []string{"A", "-->", "B", ":", "ev", "[gumballs>0]"}, texts(lines[1]))
}

func TestTokenizeActionContinuation(t *testing.T) {
	var lines = Tokenize(`@startuml` + "\n" + `A --> B : ev \n--\n doIt ( )` + "\n@enduml")
	require.Equal(t, []string{"A", "-->", "B", ":", "ev", "/", "doIt", "(", ")"}, texts(lines[1]))
}

func TestTokenizeDropsBlankLines(t *testing.T) {
	var lines = Tokenize("@startuml\n\n   \n@enduml\n")
	require.Len(t, lines, 2)
}

func TestRawFromCapturesVerbatim(t *testing.T) {
	var lines = Tokenize("'[header] #include  <cmath>  \n")
	require.Equal(t, "#include  <cmath>", lines[0].RawFrom(1))
}

func texts(line Line) []string {
	var list []string
	for _, token := range line.Tokens {
		list = append(list, token.Text)
	}
	return list
}
