package model

// BroadcastPayload carries everything needed to rebuild the broadcast
// or the decline notice without asking the requester again.
type BroadcastPayload struct {
	Heading      string
	Body         string
	TeamRoleID   string
	TeamRoleName string
	RequesterID  string
}

// ApprovalRequest is one pending broadcast awaiting a decision, keyed
// by the timestamp of the message posted in the approval channel.
// The entry is removed on the first approve or decline; decisions are
// final.
type ApprovalRequest struct {
	TargetChannelID string
	Payload         BroadcastPayload
}
