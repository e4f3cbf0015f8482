package model

// VoteChoice is one of the fixed poll options.
type VoteChoice string

const (
	VoteYes     VoteChoice = "yes"
	VoteNo      VoteChoice = "no"
	VoteAbstain VoteChoice = "abstain"
)

// VoteChoices lists the options in render order.
var VoteChoices = []VoteChoice{VoteYes, VoteNo, VoteAbstain}

// ValidVoteChoice reports whether v is one of the fixed options.
func ValidVoteChoice(v string) bool {
	switch VoteChoice(v) {
	case VoteYes, VoteNo, VoteAbstain:
		return true
	}
	return false
}

// SessionVotePoll tracks one poll, keyed by the poll message timestamp.
// Ballots maps voter ID to that voter's single current choice; Tally is
// kept equal to the aggregation of Ballots at all times.
type SessionVotePoll struct {
	Question string
	Ballots  map[string]VoteChoice
	Tally    map[VoteChoice]int
}

// Total returns the number of distinct voters holding a ballot.
func (p *SessionVotePoll) Total() int {
	return len(p.Ballots)
}
