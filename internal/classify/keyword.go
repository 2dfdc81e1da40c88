package classify

import (
	"context"
	"strings"
)

// KeywordClassifier is the default heuristic: phrase lists over the lowered
// reply text, negatives checked first so "not interested" never reads as
// "interested". Anything unmatched is uncertain, never coerced.
type KeywordClassifier struct {
	positive []string
	negative []string
}

func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{
		positive: []string{
			"interested",
			"let's talk",
			"lets talk",
			"sounds good",
			"happy to chat",
			"book a call",
			"schedule a call",
			"send over",
			"tell me more",
			"calendar link",
		},
		negative: []string{
			"not interested",
			"no interest",
			"unsubscribe",
			"remove me",
			"stop emailing",
			"wrong person",
			"not the right person",
			"no longer with",
			"do not contact",
		},
	}
}

func (k *KeywordClassifier) Classify(ctx context.Context, subject, body string) (Verdict, error) {
	text := strings.ToLower(subject + "\n" + body)
	for _, phrase := range k.negative {
		if strings.Contains(text, phrase) {
			return VerdictNegative, nil
		}
	}
	for _, phrase := range k.positive {
		if strings.Contains(text, phrase) {
			return VerdictPositive, nil
		}
	}
	return VerdictUncertain, nil
}
