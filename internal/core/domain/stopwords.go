package domain

// stopwords lists common English function words excluded from lexical
// matching when stop-word filtering is enabled.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true,
	"was": true, "were": true, "do": true, "does": true, "did": true,
	"have": true, "has": true, "had": true, "be": true, "been": true,
	"being": true, "will": true, "would": true, "could": true, "should": true,
	"may": true, "might": true, "can": true, "shall": true, "not": true,
	"no": true, "and": true, "or": true, "but": true, "if": true,
	"then": true, "than": true, "so": true, "as": true, "at": true,
	"by": true, "for": true, "from": true, "in": true, "into": true,
	"of": true, "on": true, "to": true, "with": true, "about": true,
	"up": true, "out": true, "it": true, "its": true, "this": true,
	"that": true, "these": true, "those": true, "there": true, "their": true,
	"what": true, "which": true, "who": true, "how": true,
	"when": true, "where": true, "why": true, "you": true, "me": true,
	"i": true, "my": true, "your": true, "we": true, "our": true,
	"they": true, "he": true, "she": true, "her": true, "him": true,
	"his": true, "us": true, "them": true,
}

// IsStopword reports whether the lowercase token is a stop word.
func IsStopword(token string) bool { return stopwords[token] }
