package shift

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func ts(hour int) time.Time {
	return time.Date(2024, 3, 10, hour, 30, 0, 0, time.UTC)
}

func TestFromTime(t *testing.T) {
	cases := map[int]Shift{
		0:  Madrugada,
		5:  Madrugada,
		6:  Manha,
		11: Manha,
		12: Tarde,
		17: Tarde,
		18: Noite,
		23: Noite,
	}
	for hour, want := range cases {
		require.Equal(t, want, FromTime(ts(hour)), "hour %d", hour)
	}
}

func TestPredominant(t *testing.T) {
	s, ok := Predominant(map[Shift]int{Tarde: 7, Noite: 3})
	require.True(t, ok)
	require.Equal(t, Tarde, s)

	_, ok = Predominant(nil)
	require.False(t, ok)
}

func TestPredominant_TieBreaksOnLabel(t *testing.T) {
	// Equal counts must always yield the same winner.
	for i := 0; i < 20; i++ {
		s, ok := Predominant(map[Shift]int{Noite: 4, Tarde: 4, Manha: 4})
		require.True(t, ok)
		require.Equal(t, Manha, s)
	}
}
