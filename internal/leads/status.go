package leads

// Status is the lead lifecycle status.
//
// State machine: contacted -> replied -> meeting -> {closed_won, closed_lost}.
// Sync passes only ever move a lead forward; terminals are left alone. The
// only backward transition is an explicit workflow override by an operator,
// which the engine exposes as a store write but never performs itself.
type Status string

const (
	StatusContacted  Status = "contacted"
	StatusReplied    Status = "replied"
	StatusMeeting    Status = "meeting"
	StatusClosedWon  Status = "closed_won"
	StatusClosedLost Status = "closed_lost"
)

func (s Status) Valid() bool {
	switch s {
	case StatusContacted, StatusReplied, StatusMeeting, StatusClosedWon, StatusClosedLost:
		return true
	}
	return false
}

// rank orders statuses by precedence. Both terminals share the top rank; a
// sync pass never flips one terminal into the other.
func (s Status) rank() int {
	switch s {
	case StatusReplied:
		return 1
	case StatusMeeting:
		return 2
	case StatusClosedWon, StatusClosedLost:
		return 3
	default:
		return 0
	}
}

// Advances reports whether moving from s to next is a forward transition.
func (s Status) Advances(next Status) bool {
	return next.rank() > s.rank()
}

// Terminal reports whether s is a terminal status under normal flow.
func (s Status) Terminal() bool {
	return s == StatusClosedWon || s == StatusClosedLost
}
