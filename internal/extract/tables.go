package extract

import (
	"strings"

	"github.com/scrypster/grounder/pkg/types"
)

// stopWords are common capitalized words that the proper-noun scan
// must never treat as entity mentions: days, months, pronouns, and
// frequent sentence-openers. Read-only after init.
var stopWords = map[string]bool{
	// Days and months
	"Monday": true, "Tuesday": true, "Wednesday": true, "Thursday": true,
	"Friday": true, "Saturday": true, "Sunday": true,
	"January": true, "February": true, "March": true, "April": true,
	"May": true, "June": true, "July": true, "August": true,
	"September": true, "October": true, "November": true, "December": true,

	// Relative time words
	"Today": true, "Tomorrow": true, "Yesterday": true, "Tonight": true,
	"Morning": true, "Evening": true, "Afternoon": true,

	// Pronouns and determiners
	"The": true, "This": true, "That": true, "These": true, "Those": true,
	"It": true, "He": true, "She": true, "They": true, "We": true,
	"You": true, "My": true, "Your": true, "Our": true, "Their": true,

	// Question words
	"What": true, "When": true, "Where": true, "Who": true, "Why": true,
	"Which": true, "How": true,

	// Frequent sentence verbs/fillers
	"Please": true, "Thanks": true, "Thank": true, "Hello": true, "Hi": true,
	"Remind": true, "Call": true, "Email": true, "Text": true, "Meet": true,
	"Check": true, "Update": true, "Send": true, "Get": true, "Let": true,
	"Make": true, "Need": true, "Note": true, "Also": true, "And": true,
	"But": true, "Or": true, "If": true, "Then": true, "Just": true,
	"Now": true, "Here": true, "There": true, "Yes": true, "No": true,
	"Maybe": true, "Okay": true, "New": true, "Can": true, "Could": true,
	"Would": true, "Should": true, "Will": true, "Do": true, "Does": true,
	"Is": true, "Are": true, "Was": true, "Were": true,
}

// sentenceInitialWords are words whose capitalization at a sentence
// start is a grammatical artifact, not a name signal. A proper-noun
// candidate starting with one of these is discarded when it sits at
// offset 0 or immediately after sentence-terminating punctuation.
var sentenceInitialWords = map[string]bool{
	"Remind": true, "Please": true, "Check": true, "Update": true,
	"Call": true, "Email": true, "Text": true, "Meet": true, "Send": true,
	"Get": true, "Let": true, "Make": true, "Tell": true, "Ask": true,
	"Find": true, "Schedule": true, "Set": true, "Add": true, "Create": true,
	"Show": true, "Give": true, "Put": true, "Look": true, "Go": true,
	"Try": true, "Start": true, "Stop": true, "Keep": true, "Take": true,
}

// trailingStopWords are function words a context-pattern capture must
// not keep as the second word of a name ("call Scott about" captures
// "Scott about"; the trailing "about" is dropped).
var trailingStopWords = map[string]bool{
	"about": true, "for": true, "with": true, "from": true, "on": true,
	"in": true, "at": true, "to": true, "the": true, "a": true, "an": true,
	"and": true, "or": true, "by": true, "of": true, "this": true,
	"that": true, "next": true, "last": true, "tomorrow": true,
	"today": true, "later": true, "soon": true, "now": true, "please": true,
}

// aliasTable maps informal names and common misspellings to canonical
// product/project names. Alias hits are always tagged as projects.
var aliasTable = map[string]string{
	"hanging":   "Good Hang",
	"goodhang":  "Good Hang",
	"good hang": "Good Hang",
}

// Type-inference keyword lists. The window of text around a
// proper-noun match is scanned for these, in this priority order.
var (
	companySuffixes = []string{
		"inc", "inc.", "llc", "corp", "corp.", "ltd", "ltd.", "co.",
		"gmbh", "company", "corporation", "agency", "ventures",
	}

	projectWords = []string{
		"project", "feature", "release", "sprint", "launch", "initiative",
		"roadmap", "milestone", "app", "product", "campaign", "renewal",
	}

	personVerbs = []string{
		"call", "called", "meet", "met", "email", "emailed", "text",
		"texted", "contact", "said", "told", "mentioned", "spoke",
		"talk", "talked", "asked",
	}
)

// typeHintFromWindow inspects the context window around a match for
// type signals. Company suffixes win over project words, which win
// over person verbs; no signal means unknown.
func typeHintFromWindow(window string) types.EntityType {
	for _, suffix := range companySuffixes {
		if containsWord(window, suffix) {
			return types.EntityTypeCompany
		}
	}
	for _, word := range projectWords {
		if containsWord(window, word) {
			return types.EntityTypeProject
		}
	}
	for _, verb := range personVerbs {
		if containsWord(window, verb) {
			return types.EntityTypePerson
		}
	}
	return types.EntityTypeUnknown
}

// containsWord reports whether window contains word as a whole token,
// ignoring case and surrounding punctuation.
func containsWord(window, word string) bool {
	word = strings.Trim(strings.ToLower(word), `.,;:!?()"'`)
	for _, tok := range strings.Fields(strings.ToLower(window)) {
		if strings.Trim(tok, `.,;:!?()"'`) == word {
			return true
		}
	}
	return false
}
