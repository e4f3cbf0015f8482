package store

import (
	"sync"

	"github.com/Pyradex/acrputilities/domain/model"
)

// ApprovalStore holds outstanding broadcast requests keyed by the
// timestamp of the message posted in the approval channel. An entry is
// consumed by the first decision; a second decision on the same key
// fails with ErrExpiredOrUnknownRequest.
type ApprovalStore struct {
	mu       sync.Mutex
	requests map[string]*model.ApprovalRequest
}

func NewApprovalStore() *ApprovalStore {
	return &ApprovalStore{requests: map[string]*model.ApprovalRequest{}}
}

// Put registers a pending request under the approval message timestamp.
func (s *ApprovalStore) Put(messageTS string, req *model.ApprovalRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *req
	s.requests[messageTS] = &cp
}

// Resolve removes and returns the pending request. Removal and lookup
// are one step so two racing decisions cannot both succeed.
func (s *ApprovalStore) Resolve(messageTS string) (*model.ApprovalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[messageTS]
	if !ok {
		return nil, ErrExpiredOrUnknownRequest
	}
	delete(s.requests, messageTS)
	return req, nil
}

// Len reports the number of pending requests.
func (s *ApprovalStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}
