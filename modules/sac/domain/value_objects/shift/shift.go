package shift

import (
	"sort"
	"time"
)

// Shift is one of the four fixed time-of-day bands an interaction falls in.
type Shift string

const (
	Madrugada Shift = "Madrugada" // 00–05h
	Manha     Shift = "Manhã"     // 06–11h
	Tarde     Shift = "Tarde"     // 12–17h
	Noite     Shift = "Noite"     // 18–23h
)

func All() []Shift {
	return []Shift{Madrugada, Manha, Tarde, Noite}
}

func (s Shift) String() string {
	return string(s)
}

func IsValid(s Shift) bool {
	switch s {
	case Madrugada, Manha, Tarde, Noite:
		return true
	}
	return false
}

// FromTime derives the band from the hour. The result is persisted on the
// fact row at write time and never recomputed afterwards.
func FromTime(t time.Time) Shift {
	switch hour := t.Hour(); {
	case hour <= 5:
		return Madrugada
	case hour <= 11:
		return Manha
	case hour <= 17:
		return Tarde
	default:
		return Noite
	}
}

// Predominant picks the band with the highest count. Ties break on the
// lexicographically smaller label so the result is deterministic regardless
// of map iteration order.
func Predominant(counts map[Shift]int) (Shift, bool) {
	if len(counts) == 0 {
		return "", false
	}
	labels := make([]Shift, 0, len(counts))
	for s := range counts {
		labels = append(labels, s)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })

	best := labels[0]
	for _, s := range labels[1:] {
		if counts[s] > counts[best] {
			best = s
		}
	}
	return best, true
}
