// Package grounding scores how well a generated answer is anchored in the
// retrieved context: citation phrasing, direct quotes, acknowledged
// limitations, and the absence of generic-authority claims. The score is
// advisory telemetry, not a gate on returning the answer.
package grounding

import (
	"regexp"
	"strings"
)

// Assessment is the derived, per-answer grounding evaluation.
type Assessment struct {
	HasSourceReferences     bool `json:"hasSourceReferences"`
	HasDirectQuotes         bool `json:"hasDirectQuotes"`
	AcknowledgesLimitations bool `json:"acknowledgesLimitations"`
	AvoidsUngroundedClaims  bool `json:"avoidsUngroundedClaims"`
	Score                   int  `json:"score"`
}

// Score weights per signal. Max total is 100.
const (
	weightSourceReferences = 30
	weightDirectQuotes     = 25
	weightLimitations      = 20
	weightNoUngrounded     = 25
)

var sourceReferencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`according to`),
	regexp.MustCompile(`based on`),
	regexp.MustCompile(`the document`),
	regexp.MustCompile(`source \d+`),
	regexp.MustCompile(`from the`),
	regexp.MustCompile(`as stated in`),
	regexp.MustCompile(`the information shows`),
	regexp.MustCompile(`documents indicate`),
}

var limitationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`don't have.*information`),
	regexp.MustCompile(`not enough.*information`),
	regexp.MustCompile(`limited.*information`),
	regexp.MustCompile(`insufficient.*context`),
	regexp.MustCompile(`cannot.*determine`),
	regexp.MustCompile(`unclear.*from.*context`),
	regexp.MustCompile(`would need.*more.*information`),
}

var ungroundedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`in general`),
	regexp.MustCompile(`typically`),
	regexp.MustCompile(`usually`),
	regexp.MustCompile(`commonly`),
	regexp.MustCompile(`it is known that`),
	regexp.MustCompile(`research shows`),
	regexp.MustCompile(`studies indicate`),
	regexp.MustCompile(`experts recommend`),
}

// Assess evaluates a generated answer. Pure: only the answer text is
// inspected, never the context it was generated from.
func Assess(response string) Assessment {
	lower := strings.ToLower(response)

	a := Assessment{
		HasSourceReferences:     matchesAny(lower, sourceReferencePatterns),
		HasDirectQuotes:         strings.ContainsAny(response, `"'`),
		AcknowledgesLimitations: matchesAny(lower, limitationPatterns),
		AvoidsUngroundedClaims:  !matchesAny(lower, ungroundedPatterns),
	}

	if a.HasSourceReferences {
		a.Score += weightSourceReferences
	}
	if a.HasDirectQuotes {
		a.Score += weightDirectQuotes
	}
	if a.AcknowledgesLimitations {
		a.Score += weightLimitations
	}
	if a.AvoidsUngroundedClaims {
		a.Score += weightNoUngrounded
	}

	return a
}

func matchesAny(s string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}
