package agentname

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"Wellington Silva de Souza - 6373": "WELLINGTON SILVA DE SOUZA",
		"KLEBER ALVES JARENKO- 6372":       "KLEBER ALVES JARENKO",
		"Plácido Júnior":                   "PLACIDO JUNIOR",
		"  maria   clara  ":                "MARIA CLARA",
		"João  Pedro":                      "JOAO PEDRO",
	}
	for in, want := range cases {
		require.Equal(t, want, Normalize(in), "input %q", in)
	}
}

func TestClean(t *testing.T) {
	require.Equal(t, Unknown, Clean(""))
	require.Equal(t, "ANA PAULA", Clean("Ana Paula - Filial Centro"))
	require.Equal(t, "WELLINGTON SILVA DE SOUZA", Clean("Wellington Silva de Souza - 6373"))
}

func TestResolver_VariantsResolveToSameKey(t *testing.T) {
	r := DefaultResolver()

	variants := []string{
		"Plácido Júnior",
		"PLÁCIDO JÚNIOR",
		"Placido Portal De Sousa Junior",
		"PLACIDO PORTAL DE SOUSA JUNIOR",
		"Placido Junior",
	}
	for _, v := range variants {
		require.Equal(t, "PLACIDO JUNIOR", r.Resolve(v), "variant %q", v)
	}

	// Truncated telephony spelling maps back to the full name.
	require.Equal(t, "MARCIA REGINA VENTURA RODRIGUES", r.Resolve("MARCIA REGINA VENTURA RODRIGUE"))
}

func TestResolver_Stable(t *testing.T) {
	r := DefaultResolver()
	first := r.Resolve("GISELLE ALMEIDA RODRIGUES DA S")
	for i := 0; i < 5; i++ {
		require.Equal(t, first, r.Resolve("GISELLE ALMEIDA RODRIGUES DA S"))
	}
}

func TestResolver_UnknownNameIsItsOwnKey(t *testing.T) {
	r := DefaultResolver()
	require.Equal(t, "FULANO DE TAL", r.Resolve("Fulano de Tal"))
	require.False(t, r.IsKnown("Fulano de Tal"))
	require.True(t, r.IsKnown("Wellington Silva de Souza - 6373"))
}

func TestNewResolver_SyntheticRoster(t *testing.T) {
	r := NewResolver(Roster{Agents: map[string][]string{
		"Fulana Completa Da Silva": {"FULANA COMPLETA DA S"},
	}})
	require.Equal(t, "FULANA COMPLETA DA SILVA", r.Resolve("FULANA COMPLETA DA S"))
	require.True(t, r.IsKnown("Fulana Completa Da Silva"))
}

func TestDisplay(t *testing.T) {
	require.Equal(t, "Placido Junior", Display("PLACIDO JUNIOR"))
}
