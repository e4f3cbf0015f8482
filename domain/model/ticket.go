package model

import "time"

// TicketRecord tracks one open ticket, keyed by its channel ID.
// A ticket without a record is treated as closed even if the channel
// still exists.
type TicketRecord struct {
	ChannelID     string
	OpenerID      string
	CategoryValue string
	CategoryLabel string
	ClaimedBy     string // empty when unclaimed
	CreatedAt     time.Time
}

// Claimed reports whether a staff member currently holds the ticket.
func (t *TicketRecord) Claimed() bool {
	return t.ClaimedBy != ""
}

// TicketCategory is one selectable support category. The RoleName is
// matched against guild user groups by exact name for channel access.
type TicketCategory struct {
	Label    string
	Value    string
	RoleName string
}

// Categories is the canonical support-tier list.
var Categories = []TicketCategory{
	{Label: "General Support", Value: "general-support", RoleName: "General Support"},
	{Label: "Staff Report", Value: "staff-report", RoleName: "Staff Report"},
	{Label: "Management Support", Value: "management-support", RoleName: "Management Support"},
}

// CategoryByValue returns the category for a menu value, or nil.
func CategoryByValue(value string) *TicketCategory {
	for i := range Categories {
		if Categories[i].Value == value {
			return &Categories[i]
		}
	}
	return nil
}

// TeamRoleNames are the team groups usable as broadcast signatures.
var TeamRoleNames = []string{
	"Game Team", "Chain Team", "Support Team", "QA Team", "Media Team", "Event Team",
}
