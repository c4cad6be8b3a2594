// Package patterns holds the static, ordered tables the extraction
// pipeline matches against: date grammars, concrete timestamp layouts and
// the fixed keyword vocabulary. All tables are compiled once at package
// init and never mutated, so they are safe for concurrent use without
// synchronization.
package patterns

import (
	"regexp"
	"strings"
)

// timeTail is the optional time-of-day suffix shared by every date
// grammar: hh:mm or hh:mm:ss, with an optional semicolon separator.
const timeTail = `(?:;?\s(?:[0-2]\d|[1-9]):[0-5]\d(?::[0-5]\d)?)?`

const (
	monthsLong  = `(?:january|february|march|april|may|june|july|august|september|october|november|december)`
	monthsShort = `(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)`
	dayNum      = `(?:[0-3]\d|[1-9])`
	monthNum    = `(?:[0-1]\d|[1-9])`
	yearFull    = `[1-2]\d\d\d`
	yearAny     = `(?:[1-2]\d\d\d|\d\d)`
)

// grammarSources lists the date grammars in priority order. A candidate is
// only recognized when it is not embedded inside a longer digit run, which
// the scanner enforces by bounding each grammar with non-digit characters.
var grammarSources = []string{
	dayNum + `\s` + monthsLong + `\s` + yearFull + timeTail,   // 01 february 1999
	dayNum + `\s` + monthsShort + `\s` + yearFull + timeTail,  // 01 feb 1999
	monthsLong + `\s` + dayNum + `,\s` + yearFull + timeTail,  // february 01, 1999
	dayNum + `-` + monthsShort + `-` + yearAny + timeTail,     // 01-feb-99, 01-feb-1999
	dayNum + `-` + monthNum + `-` + yearAny + timeTail,        // 01-02-99, 01-02-1999
	dayNum + `/` + monthNum + `/` + yearAny + timeTail,        // 01/02/99, 01/02/1999
	monthNum + `/` + dayNum + `/` + yearAny + timeTail,        // 02/01/99, 02/01/1999
	yearAny + `/` + monthNum + `/` + dayNum + timeTail,        // 99/02/01, 1999/02/01
	dayNum + `\.` + monthNum + `\.` + yearFull + timeTail,     // 01.02.1999
	yearFull + `-` + monthNum + `-` + dayNum + timeTail,       // 1999-02-01
}

// Grammar pairs the bounded form used for scanning with the bare form
// used to strip the injected boundary characters from a match.
type Grammar struct {
	Bounded *regexp.Regexp
	Bare    *regexp.Regexp
}

var grammars = compileGrammars()

func compileGrammars() []Grammar {
	out := make([]Grammar, len(grammarSources))
	for i, src := range grammarSources {
		out[i] = Grammar{
			Bounded: regexp.MustCompile(`[^\d]` + src + `[^\d]`),
			Bare:    regexp.MustCompile(src),
		}
	}
	return out
}

// DateGrammars returns the date grammars in priority order. The returned
// slice is shared and must not be modified.
func DateGrammars() []Grammar {
	return grammars
}

// dateBases lists the concrete date layouts in priority order: the ten
// four-digit-year forms first, then the five two-digit-year forms.
//
// Two-digit years follow Go's time.Parse pivot: 00-68 map to the 2000s and
// 69-99 to the 1900s, matching the POSIX rule the original data was
// normalized under.
var dateBases = []string{
	"2 January 2006",
	"2 Jan 2006",
	"January 2, 2006",
	"2-Jan-2006",
	"2-1-2006",
	"2/1/2006",
	"1/2/2006",
	"2006/1/2",
	"2.1.2006",
	"2006-1-2",
	"2-Jan-06",
	"2-1-06",
	"2/1/06",
	"1/2/06",
	"06/1/2",
}

// timeSuffixes are applied to every date base, most specific first. The
// empty suffix (date only) comes last so a trailing time is never ignored.
var timeSuffixes = []string{
	"; 15:04:05",
	" 15:04:05",
	"; 15:04",
	" 15:04",
	"",
}

var layouts = buildLayouts()

func buildLayouts() []string {
	out := make([]string, 0, len(dateBases)*len(timeSuffixes))
	for _, suffix := range timeSuffixes {
		for _, base := range dateBases {
			out = append(out, base+suffix)
		}
	}
	return out
}

// TimestampLayouts returns the ordered list of concrete timestamp layouts
// a raw date candidate is tried against. The returned slice is shared and
// must not be modified.
func TimestampLayouts() []string {
	return layouts
}

// SubmissionLayout is the fixed format of a bulletin's declared
// submission timestamp, e.g. "11 Feb 2007; 09:48 UT".
const SubmissionLayout = "2 Jan 2006; 15:04 UT"

// vocabulary is the fixed keyword vocabulary in definition order. Keyword
// output is always ordered by this table, not by text position.
var vocabulary = []string{
	"radio",
	"millimeter",
	"sub-millimeter",
	"far-infra-red",
	"infra-red",
	"optical",
	"ultra-violet",
	"x-ray",
	"gamma ray",
	"> gev",
	"tev",
	"vhe",
	"uhe",
	"neutrinos",
	"a comment",
	"agn",
	"asteroid",
	"asteroid(binary)",
	"binary",
	"black hole",
	"blazar",
	"cataclysmic variable",
	"comet",
	"cosmic rays",
	"direct collapse event",
	"exoplanet",
	"fast radio burst",
	"gamma-ray burst",
	"globular cluster",
	"gravitational lensing",
	"gravitational waves",
	"magnetar",
	"meteor",
	"microlensing event",
	"near-earth object",
	"neutron star",
	"nova",
	"planet",
	"planet(minor)",
	"potentially hazardous asteroid",
	"pre-main-sequence star",
	"pulsar",
	"quasar",
	"request for observations",
	"soft gamma-ray repeater",
	"solar system object",
	"star",
	"supernova remnant",
	"supernovae",
	"the sun",
	"tidal disruption event",
	"transient",
	"variables",
	"young stellar object",
}

var vocabularySet = buildVocabularySet()

func buildVocabularySet() map[string]struct{} {
	set := make(map[string]struct{}, len(vocabulary))
	for _, kw := range vocabulary {
		set[kw] = struct{}{}
	}
	return set
}

// Vocabulary returns the fixed keyword vocabulary in definition order.
// The returned slice is shared and must not be modified.
func Vocabulary() []string {
	return vocabulary
}

// ValidKeyword reports whether the given string is a member of the fixed
// vocabulary. Case insensitive.
func ValidKeyword(keyword string) bool {
	_, ok := vocabularySet[strings.ToLower(keyword)]
	return ok
}

// KeywordPattern returns the regular-expression source matching one
// vocabulary entry literally.
func KeywordPattern(label string) string {
	return regexp.QuoteMeta(label)
}
