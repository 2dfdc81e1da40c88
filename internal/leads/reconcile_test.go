package leads

import (
	"testing"
	"time"

	"github.com/leadpilot/leadsync/internal/provider"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reconcileNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func contactedLead() *Lead {
	return &Lead{ID: "l1", CampaignID: "c1", Email: "a@x.com", Status: StatusContacted}
}

func TestReconcile_StatusFromInterest(t *testing.T) {
	cases := []struct {
		name       string
		interest   provider.Interest
		replies    int
		wantStatus Status
		wantPos    bool
	}{
		{"bare reply promotes", provider.InterestNeutral, 1, StatusReplied, false},
		{"interested is a reply, not a positive", provider.InterestInterested, 1, StatusReplied, false},
		{"interested without replies still promotes", provider.InterestInterested, 0, StatusReplied, false},
		{"meeting booked", provider.InterestMeetingBooked, 1, StatusMeeting, true},
		{"meeting completed", provider.InterestMeetingCompleted, 2, StatusMeeting, true},
		{"closed wins", provider.InterestClosed, 3, StatusClosedWon, true},
		{"not interested loses", provider.InterestNotInterested, 1, StatusClosedLost, false},
		{"wrong person loses", provider.InterestWrongPerson, 1, StatusClosedLost, false},
		{"out of office is no signal", provider.InterestOutOfOffice, 0, StatusContacted, false},
		{"unknown is no signal", provider.InterestUnknown, 0, StatusContacted, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lead := contactedLead()
			Reconcile(lead, provider.RemoteLead{Interest: tc.interest, ReplyCount: tc.replies}, reconcileNow)

			assert.Equal(t, tc.wantStatus, lead.Status)
			assert.Equal(t, tc.wantPos, lead.IsPositiveReply)
			assert.Equal(t, tc.replies, lead.EmailReplyCount)
			assert.Equal(t, tc.replies > 0, lead.HasReplied)
		})
	}
}

func TestReconcile_NeverDowngrades(t *testing.T) {
	lead := contactedLead()
	lead.Status = StatusMeeting

	changed := Reconcile(lead, provider.RemoteLead{Interest: provider.InterestInterested, ReplyCount: 0}, reconcileNow)

	assert.Equal(t, StatusMeeting, lead.Status)
	assert.False(t, changed)
}

func TestReconcile_TerminalStaysPut(t *testing.T) {
	lead := contactedLead()
	lead.Status = StatusClosedWon
	lead.IsPositiveReply = true

	Reconcile(lead, provider.RemoteLead{Interest: provider.InterestNotInterested, ReplyCount: 1}, reconcileNow)

	assert.Equal(t, StatusClosedWon, lead.Status)
}

func TestReconcile_CountersRefreshEvenWithoutStatusChange(t *testing.T) {
	lead := contactedLead()
	lead.Status = StatusClosedWon
	lead.HasReplied = true
	lead.EmailReplyCount = 2

	changed := Reconcile(lead, provider.RemoteLead{Interest: provider.InterestClosed, ReplyCount: 5}, reconcileNow)

	assert.True(t, changed)
	assert.Equal(t, 5, lead.EmailReplyCount)
	assert.Equal(t, StatusClosedWon, lead.Status)
}

func TestReconcile_Idempotent(t *testing.T) {
	lead := contactedLead()
	remote := provider.RemoteLead{Interest: provider.InterestMeetingBooked, ReplyCount: 2}

	first := Reconcile(lead, remote, reconcileNow)
	second := Reconcile(lead, remote, reconcileNow.Add(time.Hour))

	assert.True(t, first)
	assert.False(t, second, "re-applying the same remote state must be a no-op")
}

func TestReconcile_TimestampsStampedOnce(t *testing.T) {
	lead := contactedLead()

	Reconcile(lead, provider.RemoteLead{Interest: provider.InterestNeutral, ReplyCount: 1}, reconcileNow)
	require.NotNil(t, lead.RespondedAt)
	firstResponded := *lead.RespondedAt

	later := reconcileNow.Add(48 * time.Hour)
	Reconcile(lead, provider.RemoteLead{Interest: provider.InterestClosed, ReplyCount: 2}, later)

	require.NotNil(t, lead.ClosedAt)
	assert.Equal(t, firstResponded, *lead.RespondedAt, "responded_at must keep its first value")
	assert.Equal(t, later, *lead.ClosedAt)
	assert.Nil(t, lead.MeetingAt, "meeting was skipped, no stamp")
}

func TestMarkPositive(t *testing.T) {
	lead := contactedLead()
	assert.True(t, MarkPositive(lead))
	assert.True(t, lead.IsPositiveReply)
	assert.False(t, MarkPositive(lead), "second mark is a no-op")
}
