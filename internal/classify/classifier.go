// Package classify holds the pluggable reply-sentiment stage. The sync
// engine treats it as an external collaborator behind a small interface;
// the in-tree default is a keyword heuristic, but an LLM-backed or
// human-in-the-loop implementation can be swapped in without touching the
// reconciler.
package classify

import "context"

type Verdict string

const (
	VerdictPositive  Verdict = "positive"
	VerdictNegative  Verdict = "negative"
	VerdictUncertain Verdict = "uncertain"
)

// Classifier judges the sentiment of one reply body. Implementations must be
// safe for concurrent use.
type Classifier interface {
	Classify(ctx context.Context, subject, body string) (Verdict, error)
}
