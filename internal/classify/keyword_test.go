package classify

import (
	"context"
	"testing"
)

func TestKeywordClassifier(t *testing.T) {
	cases := []struct {
		name    string
		subject string
		body    string
		want    Verdict
	}{
		{"positive phrase", "Re: intro", "Sounds good, send over a calendar link", VerdictPositive},
		{"positive in subject", "Let's talk next week", "", VerdictPositive},
		{"negative phrase", "Re: intro", "Please remove me from your list", VerdictNegative},
		{"negative wins over contained positive", "", "I am not interested, thanks", VerdictNegative},
		{"wrong person", "", "I'm not the right person for this", VerdictNegative},
		{"case insensitive", "", "TELL ME MORE about pricing", VerdictPositive},
		{"no signal", "Re: intro", "I will be traveling next week", VerdictUncertain},
		{"empty reply", "", "", VerdictUncertain},
	}

	k := NewKeywordClassifier()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := k.Classify(context.Background(), tc.subject, tc.body)
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if got != tc.want {
				t.Fatalf("verdict = %q, want %q", got, tc.want)
			}
		})
	}
}
