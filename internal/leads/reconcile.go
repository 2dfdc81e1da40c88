package leads

import (
	"time"

	"github.com/leadpilot/leadsync/internal/provider"
)

// Reconcile computes the canonical lifecycle status and reply flags from a
// raw provider lead, relative to the lead's current local state.
//
// Precedence (highest wins, independent of arrival order so repeated runs
// converge):
//  1. closed                      -> closed_won
//  2. not_interested/wrong_person -> closed_lost
//  3. meeting booked/completed    -> meeting
//  4. reply count > 0, interested -> replied
//  5. otherwise                   -> no change
//
// A computed status with lower precedence than the current one never
// downgrades the lead. is_positive_reply requires an explicit positive signal
// (a meeting or close enumeration, or a classifier verdict applied upstream);
// a bare reply or the "interested" listing value is neutral and only promotes
// the status.
func Reconcile(lead *Lead, remote provider.RemoteLead, now time.Time) (changed bool) {
	if lead.EmailReplyCount != remote.ReplyCount {
		lead.EmailReplyCount = remote.ReplyCount
		changed = true
	}
	replied := remote.ReplyCount > 0
	if replied && !lead.HasReplied {
		lead.HasReplied = true
		changed = true
	}

	if computed, ok := statusFor(remote.Interest, replied); ok && lead.Status.Advances(computed) {
		applyStatus(lead, computed, now)
		changed = true
	}

	if positiveSignal(remote.Interest) && !lead.IsPositiveReply {
		lead.IsPositiveReply = true
		changed = true
	}
	return changed
}

func statusFor(in provider.Interest, replied bool) (Status, bool) {
	switch in {
	case provider.InterestClosed:
		return StatusClosedWon, true
	case provider.InterestNotInterested, provider.InterestWrongPerson:
		return StatusClosedLost, true
	case provider.InterestMeetingBooked, provider.InterestMeetingCompleted:
		return StatusMeeting, true
	case provider.InterestInterested:
		return StatusReplied, true
	}
	if replied {
		return StatusReplied, true
	}
	return "", false
}

// positiveSignal is deliberately narrower than "has replied": only meeting and
// close enumerations count. "interested" alone does not.
func positiveSignal(in provider.Interest) bool {
	switch in {
	case provider.InterestMeetingBooked, provider.InterestMeetingCompleted, provider.InterestClosed:
		return true
	}
	return false
}

// applyStatus advances the status and stamps the workflow timestamps the
// first time each stage is reached.
func applyStatus(lead *Lead, next Status, now time.Time) {
	lead.Status = next
	if next.rank() >= StatusReplied.rank() && lead.RespondedAt == nil {
		t := now
		lead.RespondedAt = &t
	}
	if next == StatusMeeting && lead.MeetingAt == nil {
		t := now
		lead.MeetingAt = &t
	}
	if next.Terminal() && lead.ClosedAt == nil {
		t := now
		lead.ClosedAt = &t
	}
}

// MarkPositive records a positive reply classification from the pluggable
// classifier stage. Separate from Reconcile because classification happens
// after the thread has been fetched.
func MarkPositive(lead *Lead) (changed bool) {
	if lead.IsPositiveReply {
		return false
	}
	lead.IsPositiveReply = true
	return true
}
