// Package extract scans free-form text for candidate entity mentions
// using lexical heuristics: proper-noun runs, verb/preposition context
// patterns, and a static alias table. Extraction is deterministic and
// performs no I/O; every result is a hint for the resolver, not a
// verdict.
package extract

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/scrypster/grounder/pkg/types"
)

// contextRadius is the number of bytes captured on each side of a
// mention for the type-inference window.
const contextRadius = 40

// properNounRe matches runs of 1-3 consecutive capitalized words.
var properNounRe = regexp.MustCompile(`\b[A-Z][a-z]+(?: [A-Z][a-z]+){0,2}\b`)

// contextPattern pairs a compiled "action/preposition near a name"
// regex with the capture group holding the name and a type hint.
type contextPattern struct {
	re   *regexp.Regexp
	hint types.EntityType
}

// nameCapture allows a capitalized first word followed by up to one
// more word that may be lowercase, so misspelled surnames ("Scott
// lease") are still captured; trailing function words are trimmed
// afterwards.
const nameCapture = `([A-Z][a-z]+(?: [A-Za-z][a-z]+)?)`

var contextPatterns = []contextPattern{
	{regexp.MustCompile(`\b(?:[Cc]all|[Ee]mail|[Tt]ext|[Mm]eet|[Cc]ontact) ` + nameCapture), types.EntityTypePerson},
	{regexp.MustCompile(`\b(?:[Ww]ith|[Aa]bout|[Ff]or|[Ff]rom) ` + nameCapture), types.EntityTypeUnknown},
	{regexp.MustCompile(nameCapture + ` (?:said|told|mentioned)\b`), types.EntityTypePerson},
	{regexp.MustCompile(`\b[Cc]heck on ` + nameCapture), types.EntityTypeUnknown},
	{regexp.MustCompile(`\b[Uu]pdate (?:on )?` + nameCapture), types.EntityTypeUnknown},
}

// Mentions extracts candidate entity mentions from input. Three
// passes run independently (proper-noun scan, context patterns,
// alias table) and their merged results are deduplicated by
// case-folded text, first occurrence kept.
func Mentions(input string) []types.EntityMention {
	var merged []types.EntityMention
	merged = append(merged, scanProperNouns(input)...)
	merged = append(merged, scanContextPatterns(input)...)
	merged = append(merged, scanAliases(input)...)

	seen := make(map[string]bool, len(merged))
	var out []types.EntityMention
	for _, m := range merged {
		if len(m.Text) < 2 {
			continue
		}
		key := strings.ToLower(m.Text)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, m)
	}
	return out
}

// scanProperNouns finds runs of capitalized words and filters them
// through the stop-list and sentence-position heuristics.
func scanProperNouns(input string) []types.EntityMention {
	var mentions []types.EntityMention

	for _, loc := range properNounRe.FindAllStringIndex(input, -1) {
		start, end := loc[0], loc[1]
		text := input[start:end]

		// Shed leading stop words and grammatical sentence-start
		// capitals ("Call Scott" keeps only "Scott"); a run reduced
		// to nothing is discarded.
		for text != "" {
			firstWord := text
			if i := strings.IndexByte(text, ' '); i >= 0 {
				firstWord = text[:i]
			}
			drop := len(firstWord) == 1 || stopWords[firstWord] ||
				(sentenceInitialWords[firstWord] && atSentenceStart(input, start))
			if !drop {
				break
			}
			if len(firstWord) == len(text) {
				text = ""
				break
			}
			start += len(firstWord) + 1
			text = input[start:end]
		}
		if text == "" {
			continue
		}

		window := contextWindow(input, start, end)
		mentions = append(mentions, types.EntityMention{
			Text:         text,
			StartIndex:   start,
			EndIndex:     end,
			Context:      window,
			InferredType: typeHintFromWindow(window),
		})
	}

	return mentions
}

// scanContextPatterns finds names adjacent to action verbs and
// prepositions, carrying each pattern's type hint.
func scanContextPatterns(input string) []types.EntityMention {
	var mentions []types.EntityMention

	for _, p := range contextPatterns {
		for _, loc := range p.re.FindAllStringSubmatchIndex(input, -1) {
			// Group 1 is the name capture.
			start, end := loc[2], loc[3]
			if start < 0 {
				continue
			}

			text, trimmedEnd := trimTrailingStopWord(input[start:end], end)
			if text == "" || stopWords[text] {
				continue
			}

			mentions = append(mentions, types.EntityMention{
				Text:         text,
				StartIndex:   start,
				EndIndex:     trimmedEnd,
				Context:      contextWindow(input, start, trimmedEnd),
				InferredType: p.hint,
			})
		}
	}

	return mentions
}

// scanAliases searches for known informal names and misspellings,
// substituting the canonical project name as the mention text.
// Aliases are visited in sorted order so extraction stays
// deterministic when several aliases of one entity appear.
func scanAliases(input string) []types.EntityMention {
	lower := strings.ToLower(input)
	var mentions []types.EntityMention

	aliases := make([]string, 0, len(aliasTable))
	for alias := range aliasTable {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)

	for _, alias := range aliases {
		canonical := aliasTable[alias]
		idx := strings.Index(lower, alias)
		if idx < 0 {
			continue
		}
		end := idx + len(alias)
		mentions = append(mentions, types.EntityMention{
			Text:         canonical,
			StartIndex:   idx,
			EndIndex:     end,
			Context:      contextWindow(input, idx, end),
			InferredType: types.EntityTypeProject,
		})
	}

	return mentions
}

// trimTrailingStopWord drops a captured second word when it is a
// function word, returning the trimmed text and its new end offset.
func trimTrailingStopWord(text string, end int) (string, int) {
	i := strings.IndexByte(text, ' ')
	if i < 0 {
		return text, end
	}
	second := text[i+1:]
	if trailingStopWords[strings.ToLower(second)] {
		return text[:i], end - len(second) - 1
	}
	return text, end
}

// atSentenceStart reports whether offset sits at the beginning of the
// input or immediately after sentence-terminating punctuation.
func atSentenceStart(input string, offset int) bool {
	if offset == 0 {
		return true
	}
	i := offset - 1
	for i >= 0 && (input[i] == ' ' || input[i] == '\n' || input[i] == '\t') {
		i--
	}
	if i < 0 {
		return true
	}
	switch input[i] {
	case '.', '!', '?':
		return true
	}
	return false
}

// contextWindow returns a fixed-radius window of text around the
// [start, end) span, clamped to rune boundaries.
func contextWindow(input string, start, end int) string {
	lo := start - contextRadius
	if lo < 0 {
		lo = 0
	}
	hi := end + contextRadius
	if hi > len(input) {
		hi = len(input)
	}
	for lo > 0 && !utf8.RuneStart(input[lo]) {
		lo--
	}
	for hi < len(input) && !utf8.RuneStart(input[hi]) {
		hi++
	}
	return input[lo:hi]
}
