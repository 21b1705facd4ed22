package consensus

import "strings"

// stanceMarkers flag sentences carrying a proposal, agreement, or importance
// cue. Descriptive sentences without a marker are only used when a message
// has no marked sentence at all.
var stanceMarkers = []string{
	"important", "key", "critical", "essential", "main", "primary",
	"crucial", "vital", "significant", "fundamental", "central",
	"agree", "consensus", "concur", "support", "endorse", "approve",
	"suggest", "propose", "recommend", "advise", "advocate",
}

// agreementKeywords signal explicit alignment for the sentiment trend.
var agreementKeywords = []string{
	"agree", "consensus", "concur", "support", "endorse", "approve",
	"same page", "aligned", "common ground", "mutual agreement",
}

// synonyms folds near-equivalent stance words onto one canonical token so
// paraphrased points cluster together.
var synonyms = map[string]string{
	"crucial":     "critical",
	"vital":       "critical",
	"essential":   "critical",
	"key":         "important",
	"significant": "important",
	"fundamental": "important",
	"central":     "important",
	"main":        "primary",
	"suggest":     "propose",
	"recommend":   "propose",
	"advise":      "propose",
	"advocate":    "propose",
	"concur":      "agree",
	"support":     "agree",
	"endorse":     "agree",
	"approve":     "agree",
}

// stopwords carry no stance content and are dropped before similarity
// comparison.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"be": {}, "been": {}, "being": {}, "to": {}, "of": {}, "in": {}, "on": {},
	"at": {}, "for": {}, "with": {}, "and": {}, "or": {}, "but": {}, "so": {},
	"it": {}, "its": {}, "this": {}, "that": {}, "these": {}, "those": {},
	"i": {}, "we": {}, "you": {}, "they": {}, "he": {}, "she": {}, "my": {},
	"our": {}, "your": {}, "their": {}, "as": {}, "by": {}, "from": {},
	"should": {}, "would": {}, "could": {}, "will": {}, "can": {}, "do": {},
	"does": {}, "have": {}, "has": {}, "had": {}, "not": {}, "no": {},
	"think": {}, "believe": {}, "also": {}, "very": {}, "more": {}, "most": {},
}

// hasStanceMarker reports whether a sentence carries a stance marker.
func hasStanceMarker(sentence string) bool {
	lower := strings.ToLower(sentence)
	for _, marker := range stanceMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// splitSentences breaks message content into trimmed sentences.
func splitSentences(content string) []string {
	var sentences []string
	for _, raw := range strings.FieldsFunc(content, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	}) {
		if s := strings.TrimSpace(raw); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// contentTokens normalizes a sentence into its comparable token set:
// lowercased, punctuation stripped, stopwords removed, synonyms folded.
func contentTokens(sentence string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, word := range strings.Fields(strings.ToLower(sentence)) {
		word = strings.Trim(word, ".,;:!?\"'()[]{}")
		if word == "" {
			continue
		}
		if _, ok := stopwords[word]; ok {
			continue
		}
		if canonical, ok := synonyms[word]; ok {
			word = canonical
		}
		tokens[word] = struct{}{}
	}
	return tokens
}
