package statecharts

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCamel(t *testing.T) {
	require.Equal(t, "SetSpeed", Camel("set speed"))
	require.Equal(t, "Gumballs", Camel("--gumballs"))
}

func TestStringSetSortsAndDedupes(t *testing.T) {
	require.Equal(t, []string{"a", "b", "c"}, StringSet([]string{"c", "a", "b", "a"}))
}

func TestIsIdent(t *testing.T) {
	require.True(t, IsIdent("NoQuarter"))
	require.True(t, IsIdent("_x9"))
	require.False(t, IsIdent(""))
	require.False(t, IsIdent("9lives"))
	require.False(t, IsIdent("Wait-Here"))
}

func TestBasename(t *testing.T) {
	require.Equal(t, "Gumball", Basename("examples/gumball.puml"))
	require.Equal(t, "Motor", Basename("motor.plantuml"))
	require.Equal(t, "Raw", Basename("raw"))
}
