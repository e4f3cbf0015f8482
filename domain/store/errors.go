package store

import (
	"errors"
	"fmt"
)

// ErrTicketNotTracked means the channel has no ticket record, usually
// because the ticket already closed or the process restarted.
var ErrTicketNotTracked = errors.New("ticket is not tracked")

// ErrExpiredOrUnknownRequest means the approval entry is gone: already
// decided, or lost to a restart. Callers treat it as recoverable.
var ErrExpiredOrUnknownRequest = errors.New("approval request expired or unknown")

// ErrPollNotTracked means the poll message has no live vote entry.
var ErrPollNotTracked = errors.New("vote session expired or unknown")

// ErrInvalidChoice means the cast value is not one of the fixed options.
var ErrInvalidChoice = errors.New("invalid vote choice")

// ErrShiftAlreadyActive means the user already has an open shift.
var ErrShiftAlreadyActive = errors.New("shift already active")

// ErrShiftNotActive means the user has no open shift to end.
var ErrShiftNotActive = errors.New("no active shift")

// AlreadyClaimedError is returned when claiming a ticket someone else
// holds. ClaimedBy names the current holder.
type AlreadyClaimedError struct {
	ClaimedBy string
}

func (e *AlreadyClaimedError) Error() string {
	return fmt.Sprintf("ticket already claimed by %s", e.ClaimedBy)
}
