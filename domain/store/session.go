package store

import (
	"sync"

	"github.com/Pyradex/acrputilities/domain/model"
)

// SessionStore holds live polls keyed by the poll message timestamp.
// Polls are never explicitly closed; they live until restart.
type SessionStore struct {
	mu    sync.Mutex
	polls map[string]*model.SessionVotePoll
}

func NewSessionStore() *SessionStore {
	return &SessionStore{polls: map[string]*model.SessionVotePoll{}}
}

// Create registers a new poll with an empty ballot map.
func (s *SessionStore) Create(messageTS, question string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	poll := &model.SessionVotePoll{
		Question: question,
		Ballots:  map[string]model.VoteChoice{},
		Tally:    map[model.VoteChoice]int{},
	}
	for _, c := range model.VoteChoices {
		poll.Tally[c] = 0
	}
	s.polls[messageTS] = poll
}

// Cast records the voter's choice, retracting any prior ballot first.
// Retraction and application happen under one lock so the tally always
// equals the aggregation of the ballot map, and re-votes never inflate
// the total. The returned poll is a snapshot safe to render from.
func (s *SessionStore) Cast(messageTS, voterID string, choice string) (*model.SessionVotePoll, error) {
	if !model.ValidVoteChoice(choice) {
		return nil, ErrInvalidChoice
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	poll, ok := s.polls[messageTS]
	if !ok {
		return nil, ErrPollNotTracked
	}
	if prev, voted := poll.Ballots[voterID]; voted {
		if poll.Tally[prev] > 0 {
			poll.Tally[prev]--
		}
	}
	c := model.VoteChoice(choice)
	poll.Ballots[voterID] = c
	poll.Tally[c]++
	return snapshotPoll(poll), nil
}

// Get returns a snapshot of the poll, or ErrPollNotTracked.
func (s *SessionStore) Get(messageTS string) (*model.SessionVotePoll, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	poll, ok := s.polls[messageTS]
	if !ok {
		return nil, ErrPollNotTracked
	}
	return snapshotPoll(poll), nil
}

func snapshotPoll(poll *model.SessionVotePoll) *model.SessionVotePoll {
	cp := &model.SessionVotePoll{
		Question: poll.Question,
		Ballots:  make(map[string]model.VoteChoice, len(poll.Ballots)),
		Tally:    make(map[model.VoteChoice]int, len(poll.Tally)),
	}
	for k, v := range poll.Ballots {
		cp.Ballots[k] = v
	}
	for k, v := range poll.Tally {
		cp.Tally[k] = v
	}
	return cp
}
