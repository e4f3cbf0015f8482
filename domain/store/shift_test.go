package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShiftStore_StartEnd(t *testing.T) {
	s := NewShiftStore()
	started := time.Now().Add(-2 * time.Hour)

	assert.NoError(t, s.Start("U1", started))

	// 開いているシフトは二重に開始できない
	assert.ErrorIs(t, s.Start("U1", time.Now()), ErrShiftAlreadyActive)

	got, err := s.End("U1")
	assert.NoError(t, err)
	assert.True(t, got.Equal(started))

	// 終了済みのシフトは終了できない
	_, err = s.End("U1")
	assert.ErrorIs(t, err, ErrShiftNotActive)

	// 終了後は再開できる
	assert.NoError(t, s.Start("U1", time.Now()))
}

func TestShiftStore_EndWithoutStart(t *testing.T) {
	s := NewShiftStore()
	_, err := s.End("U_NOBODY")
	assert.ErrorIs(t, err, ErrShiftNotActive)
}

func TestShiftStore_ActiveOldestFirst(t *testing.T) {
	s := NewShiftStore()
	base := time.Now()

	assert.NoError(t, s.Start("U_LATE", base.Add(-time.Hour)))
	assert.NoError(t, s.Start("U_EARLY", base.Add(-3*time.Hour)))
	assert.NoError(t, s.Start("U_MID", base.Add(-2*time.Hour)))

	active := s.Active()
	if assert.Len(t, active, 3) {
		assert.Equal(t, "U_EARLY", active[0].UserID)
		assert.Equal(t, "U_MID", active[1].UserID)
		assert.Equal(t, "U_LATE", active[2].UserID)
	}

	_, err := s.End("U_MID")
	assert.NoError(t, err)
	assert.Len(t, s.Active(), 2)
}
