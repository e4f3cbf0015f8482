package store

import (
	"testing"

	"github.com/Pyradex/acrputilities/domain/model"
	"github.com/stretchr/testify/assert"
)

func newApproval(target string) *model.ApprovalRequest {
	return &model.ApprovalRequest{
		TargetChannelID: target,
		Payload: model.BroadcastPayload{
			Heading:      "Server Restart",
			Body:         "Restarting in 10 minutes.",
			TeamRoleName: "Community Relations",
			RequesterID:  "U_REQ",
		},
	}
}

func TestApprovalStore_ResolveConsumesEntry(t *testing.T) {
	s := NewApprovalStore()
	s.Put("111.222", newApproval("C_TARGET"))

	req, err := s.Resolve("111.222")
	assert.NoError(t, err)
	assert.Equal(t, "C_TARGET", req.TargetChannelID)
	assert.Equal(t, "Server Restart", req.Payload.Heading)
	assert.Equal(t, 0, s.Len())

	// 二回目の決裁は失敗する
	_, err = s.Resolve("111.222")
	assert.ErrorIs(t, err, ErrExpiredOrUnknownRequest)
}

func TestApprovalStore_ResolveUnknownKey(t *testing.T) {
	s := NewApprovalStore()
	_, err := s.Resolve("999.000")
	assert.ErrorIs(t, err, ErrExpiredOrUnknownRequest)
}

func TestApprovalStore_EntriesAreIndependent(t *testing.T) {
	s := NewApprovalStore()
	s.Put("1.0", newApproval("C_A"))
	s.Put("2.0", newApproval("C_B"))

	a, err := s.Resolve("1.0")
	assert.NoError(t, err)
	assert.Equal(t, "C_A", a.TargetChannelID)

	b, err := s.Resolve("2.0")
	assert.NoError(t, err)
	assert.Equal(t, "C_B", b.TargetChannelID)
}

func TestApprovalStore_PutCopiesRequest(t *testing.T) {
	s := NewApprovalStore()
	req := newApproval("C_TARGET")
	s.Put("1.0", req)
	req.TargetChannelID = "C_TAMPER"

	got, err := s.Resolve("1.0")
	assert.NoError(t, err)
	assert.Equal(t, "C_TARGET", got.TargetChannelID)
}
