// Package agentname resolves the many spellings of an agent's name coming
// from the omnichannel, telephony and Voalle exports into one canonical key.
package agentname

import (
	_ "embed"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Unknown is the fallback display name for rows without an agent.
const Unknown = "Desconhecido"

// ramalPattern matches a trailing extension number, e.g.
// "Wellington Silva de Souza - 6373" or "KLEBER ALVES JARENKO- 6372".
var ramalPattern = regexp.MustCompile(`\s*-?\s*\d{4,5}\s*$`)

var titleCaser = cases.Title(language.BrazilianPortuguese)

func stripAccents(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Normalize produces the canonical lookup key: no ramal suffix, no accents,
// uppercase, single spaces.
func Normalize(name string) string {
	name = strings.TrimSpace(ramalPattern.ReplaceAllString(name, ""))
	name = stripAccents(name)
	return strings.Join(strings.Fields(strings.ToUpper(name)), " ")
}

// Clean prepares a raw agent cell for resolution: drops any " - <branch>"
// suffix and normalizes. Empty input yields Unknown.
func Clean(name string) string {
	if name == "" {
		return Unknown
	}
	base, _, _ := strings.Cut(name, " - ")
	return Normalize(strings.TrimSpace(base))
}

// Display renders a normalized key the way the dashboard shows it.
func Display(key string) string {
	return titleCaser.String(strings.ToLower(key))
}

// Roster is the curated canonical-name → known-variants table. It ships as a
// versioned data file embedded in the binary; tests may build synthetic ones.
type Roster struct {
	Agents map[string][]string `toml:"agents"`
}

//go:embed roster.toml
var defaultRosterData []byte

// Resolver maps any known variant to its canonical key. Immutable after
// construction; resolution is deterministic across restarts.
type Resolver struct {
	variants map[string]string
}

func NewResolver(roster Roster) *Resolver {
	variants := make(map[string]string, len(roster.Agents)*2)
	for canonical, alts := range roster.Agents {
		key := Normalize(canonical)
		variants[key] = key
		for _, alt := range alts {
			variants[Normalize(alt)] = key
		}
	}
	return &Resolver{variants: variants}
}

var defaultResolver = sync.OnceValue(func() *Resolver {
	var roster Roster
	if err := toml.Unmarshal(defaultRosterData, &roster); err != nil {
		panic("agentname: invalid embedded roster: " + err.Error())
	}
	return NewResolver(roster)
})

// DefaultResolver returns the resolver built from the embedded roster.
func DefaultResolver() *Resolver {
	return defaultResolver()
}

// Resolve returns the canonical key for any variant of a name. Unknown names
// resolve to their own normalized form, so the first-seen spelling becomes
// canonical.
func (r *Resolver) Resolve(raw string) string {
	key := Normalize(raw)
	if canonical, ok := r.variants[key]; ok {
		return canonical
	}
	return key
}

// IsKnown reports whether the name (or any variant of it) belongs to a
// rostered SAC agent. The Voalle import uses this to gate rows, since that
// export carries no department column.
func (r *Resolver) IsKnown(raw string) bool {
	_, ok := r.variants[Normalize(raw)]
	return ok
}
