// Package normalize turns provider-supplied football names into stable
// comparison keys. The same function must be applied to both sides of every
// comparison; matching two names normalized by different rules is the most
// common source of false negatives.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type Kind string

const (
	KindTeam   Kind = "team"
	KindLeague Kind = "league"
)

// Generic club tokens carry no identity on their own. They are stripped only
// when at least one distinguishing token remains.
var teamStopTokens = map[string]struct{}{
	"fc": {}, "cf": {}, "afc": {}, "cfc": {}, "fk": {}, "sk": {}, "bk": {},
	"sc": {}, "ac": {}, "as": {}, "ss": {}, "ssc": {}, "rc": {}, "rcd": {},
	"ud": {}, "cd": {}, "nk": {}, "if": {}, "club": {}, "cp": {},
	"de": {}, "del": {}, "the": {}, "fussball": {}, "futbol": {},
	"calcio": {}, "spor": {}, "kulubu": {},
}

var leagueStopTokens = map[string]struct{}{
	"league": {}, "liga": {}, "ligue": {}, "lega": {}, "division": {},
	"the": {}, "de": {}, "del": {},
}

var countryAliases = map[string]string{
	"espana":         "spain",
	"deutschland":    "germany",
	"italia":         "italy",
	"nederland":      "netherlands",
	"holland":        "netherlands",
	"brasil":         "brazil",
	"turkiye":        "turkey",
	"england":        "england",
	"united kingdom": "england",
}

var diacriticFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Name produces the comparison key for a provider-supplied name. It is pure
// and total: garbage input folds to the empty string.
func Name(raw string, kind Kind) string {
	folded := fold(raw)
	if folded == "" {
		return ""
	}

	tokens := strings.Fields(folded)
	if len(tokens) == 0 {
		return ""
	}

	stop := teamStopTokens
	if kind == KindLeague {
		stop = leagueStopTokens
	}

	kept := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, generic := stop[token]; generic {
			continue
		}
		kept = append(kept, token)
	}
	// A name made entirely of generic tokens keeps them all; "FC" alone must
	// not normalize to the same key as "CF" alone's empty result.
	if len(kept) == 0 {
		kept = tokens
	}

	return strings.Join(kept, " ")
}

// Country folds a country name to a canonical comparison key, resolving
// common alternate spellings ("España" and "Spain" share one key).
func Country(raw string) string {
	folded := fold(raw)
	if folded == "" {
		return ""
	}
	folded = strings.Join(strings.Fields(folded), " ")
	if canonical, ok := countryAliases[folded]; ok {
		return canonical
	}
	return folded
}

func fold(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return ""
	}

	if stripped, _, err := transform.String(diacriticFolder, value); err == nil {
		value = stripped
	}
	value = strings.ToLower(value)

	var builder strings.Builder
	builder.Grow(len(value))
	lastSpace := true
	for _, r := range value {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			builder.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				builder.WriteByte(' ')
				lastSpace = true
			}
		}
	}

	return strings.TrimSpace(builder.String())
}
