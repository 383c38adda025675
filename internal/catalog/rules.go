package catalog

// rules.go holds the product-name cleaning chain.
//
// The chain is an ordered table. Each rule runs on the output of the
// previous one, so moving a rule changes results: sizes must go before the
// bare-number sweep, and whitespace is collapsed only after every removal.
// Rules sharing a Step belong to the same logical stage and are tested
// together.

import (
	"regexp"
	"strings"
	"unicode"
)

// Rule is one step of the name cleaning chain. Either Pattern (with
// Replace as a literal replacement) or Fn is set.
type Rule struct {
	Step    int
	Name    string
	Pattern *regexp.Regexp
	Replace string
	Fn      func(string) string
}

// Apply runs the rule on s.
func (r Rule) Apply(s string) string {
	if r.Fn != nil {
		return r.Fn(s)
	}
	return r.Pattern.ReplaceAllLiteralString(s, r.Replace)
}

// space matches the whitespace set of the sheet's tooling: ASCII
// whitespace plus the Unicode space separators, line/paragraph separators
// and U+FEFF. Exports often carry NBSP (U+00A0) between words and sizes.
const space = `[\t\n\v\f\r \p{Zs}\x{FEFF}\x{2028}\x{2029}]`

// NameRules is the ordered cleaning chain applied by CleanName.
var NameRules = []Rule{
	// 1. sizes: 750ml, 750 ml, 1L, 1lt
	{Step: 1, Name: "size", Pattern: regexp.MustCompile(`(?i)\b[0-9]+` + space + `*(ml|l|lt)\b`)},
	{Step: 1, Name: "size-ml", Pattern: regexp.MustCompile(`(?i)[0-9]+ml`)},
	{Step: 1, Name: "size-l", Pattern: regexp.MustCompile(`(?i)[0-9]+l`)},
	{Step: 1, Name: "size-lt", Pattern: regexp.MustCompile(`(?i)[0-9]+lt`)},

	// 2. packaging filler
	{Step: 2, Name: "packaging", Pattern: regexp.MustCompile(`(?i)\b(botella|caja|pieza|pza|pzas|piezas|unidad|pack|6pack)\b`)},
	{Step: 2, Name: "litro", Pattern: regexp.MustCompile(`(?i)\blitro?s?\b`)},

	// 3. alcohol content
	{Step: 3, Name: "percent", Pattern: regexp.MustCompile(`[0-9]+%`)},
	{Step: 3, Name: "vol", Pattern: regexp.MustCompile(`(?i)[0-9]+ ?vol`)},

	// 4. multipacks (12/4, 1//) and ranges (6-1)
	{Step: 4, Name: "fraction", Pattern: regexp.MustCompile(space + `?\d+` + space + `*(?:/{1,2}` + space + `*\d*)+`)},
	{Step: 4, Name: "range", Pattern: regexp.MustCompile(`\d+-\d+`)},

	// 5. separators
	{Step: 5, Name: "separators", Pattern: regexp.MustCompile(`[/\-•–—]+`), Replace: " "},

	// 6. leftover numbers
	{Step: 6, Name: "numbers", Pattern: regexp.MustCompile(`\b[0-9]+\b`)},

	// 7. whitespace
	{Step: 7, Name: "collapse-space", Pattern: regexp.MustCompile(space + `{2,}`), Replace: " "},
	{Step: 7, Name: "trim", Fn: trimSpace},

	// 8. capitalization
	{Step: 8, Name: "title-case", Fn: TitleCase},
}

// CleanName derives the display name from a product description by
// running every rule in NameRules in order. The result may be empty.
func CleanName(desc string) string {
	return ApplyRules(desc, NameRules)
}

// ApplyRules runs rules over s in order.
func ApplyRules(s string, rules []Rule) string {
	for _, r := range rules {
		s = r.Apply(s)
	}
	return s
}

// RulesForStep returns the rules of a single step, in order.
func RulesForStep(step int) []Rule {
	var out []Rule
	for _, r := range NameRules {
		if r.Step == step {
			out = append(out, r)
		}
	}
	return out
}

// presentationPattern finds the first size token. Alternatives are tried
// left to right, so "1LT" yields "1L".
var presentationPattern = regexp.MustCompile(`(?i)([0-9]+ ?m?l|[0-9]+ ?l|[0-9]+ ?lt)`)

// ExtractPresentation returns the first size token in desc with spaces
// removed and lowercased ("750 ML" -> "750ml"), or "" when there is none.
func ExtractPresentation(desc string) string {
	m := presentationPattern.FindString(desc)
	if m == "" {
		return ""
	}
	return strings.ToLower(strings.ReplaceAll(m, " ", ""))
}

// TitleCase lowercases s and uppercases the first letter of every word.
// Letters, digits and underscores are word characters.
func TitleCase(s string) string {
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	inWord := false
	for _, r := range s {
		if !inWord {
			r = unicode.ToUpper(r)
		}
		b.WriteRune(r)
		inWord = isWordRune(r)
	}
	return b.String()
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
