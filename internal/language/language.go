package language

import (
	"regexp"
	"slices"
	"strings"
)

type entry struct {
	display string   // Human-readable name
	aliases []string // Lowercase release tokens, full word first
}

var languages = []entry{
	{"Tamil", []string{"tamil", "tam"}},
	{"Telugu", []string{"telugu", "tel"}},
	{"Hindi", []string{"hindi", "hin"}},
	{"English", []string{"english", "eng"}},
	{"Malayalam", []string{"malayalam", "mal"}},
	{"Kannada", []string{"kannada", "kan"}},
	{"Bengali", []string{"bengali", "ben"}},
	{"Punjabi", []string{"punjabi"}},
	{"Marathi", []string{"marathi"}},
	{"Korean", []string{"korean"}},
	{"Japanese", []string{"japanese"}},
	{"Chinese", []string{"chinese"}},
	{"French", []string{"french"}},
	{"Spanish", []string{"spanish"}},
	{"Arabic", []string{"arabic"}},
	{"Russian", []string{"russian"}},
	{"German", []string{"german"}},
	{"Italian", []string{"italian"}},
	{"Portuguese", []string{"portuguese"}},
}

type scanner struct {
	display string
	pattern *regexp.Regexp
}

// Index structures built at init time.
var (
	byAlias  map[string]string
	scanners []scanner
)

func init() {
	byAlias = make(map[string]string, len(languages)*2)
	for _, e := range languages {
		for _, alias := range e.aliases {
			byAlias[alias] = e.display
			scanners = append(scanners, scanner{
				display: e.display,
				pattern: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(alias) + `\b`),
			})
		}
	}
}

// Lookup maps a single token to its display name.
func Lookup(token string) (string, bool) {
	display, ok := byAlias[strings.ToLower(strings.TrimSpace(token))]
	return display, ok
}

// Scan reports every language whose alias appears as a whole word in text,
// in table order, without duplicates.
func Scan(text string) []string {
	var found []string
	for _, s := range scanners {
		if slices.Contains(found, s.display) {
			continue
		}
		if s.pattern.MatchString(text) {
			found = append(found, s.display)
		}
	}
	return found
}

// Names returns the display names in table order.
func Names() []string {
	out := make([]string, 0, len(languages))
	for _, e := range languages {
		out = append(out, e.display)
	}
	return out
}

