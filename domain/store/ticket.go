package store

import (
	"sync"

	"github.com/Pyradex/acrputilities/domain/model"
)

// TicketStore holds every open ticket keyed by channel ID. All state is
// in memory; a restart drops open tickets, which is accepted behavior.
type TicketStore struct {
	mu      sync.Mutex
	tickets map[string]*model.TicketRecord
}

func NewTicketStore() *TicketStore {
	return &TicketStore{tickets: map[string]*model.TicketRecord{}}
}

// Open inserts a new unclaimed record for the channel.
func (s *TicketStore) Open(rec *model.TicketRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	cp.ClaimedBy = ""
	s.tickets[rec.ChannelID] = &cp
}

// Get returns a copy of the record, or ErrTicketNotTracked.
func (s *TicketStore) Get(channelID string) (*model.TicketRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.tickets[channelID]
	if !ok {
		return nil, ErrTicketNotTracked
	}
	cp := *rec
	return &cp, nil
}

// Claim sets the holder if the ticket exists and is unclaimed. A ticket
// held by someone else fails with AlreadyClaimedError naming the holder;
// the record is left untouched.
func (s *TicketStore) Claim(channelID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.tickets[channelID]
	if !ok {
		return ErrTicketNotTracked
	}
	if rec.ClaimedBy != "" {
		return &AlreadyClaimedError{ClaimedBy: rec.ClaimedBy}
	}
	rec.ClaimedBy = userID
	return nil
}

// Release clears the holder.
func (s *TicketStore) Release(channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.tickets[channelID]
	if !ok {
		return ErrTicketNotTracked
	}
	rec.ClaimedBy = ""
	return nil
}

// Close removes the record and returns its final state. Eviction happens
// before the channel itself is archived so a racing claim cannot
// resurrect a record for a channel that is about to disappear.
func (s *TicketStore) Close(channelID string) (*model.TicketRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.tickets[channelID]
	if !ok {
		return nil, ErrTicketNotTracked
	}
	delete(s.tickets, channelID)
	return rec, nil
}

// Len reports the number of open tickets.
func (s *TicketStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tickets)
}
