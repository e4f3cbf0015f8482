package model

import "time"

// TicketLog is the durable mirror of a ticket closure, written to the
// audit archive alongside the log-channel entry.
type TicketLog struct {
	ID            uint   `gorm:"primary_key"`
	BotID         string `gorm:"type:varchar(50)"`
	ChannelID     string `gorm:"type:varchar(50)"`
	ChannelName   string `gorm:"type:varchar(100)"`
	OpenerID      string `gorm:"type:varchar(50)"`
	ClaimedBy     string `gorm:"type:varchar(50)"`
	ClosedBy      string `gorm:"type:varchar(50)"`
	CategoryLabel string `gorm:"type:varchar(100)"`
	Summary       string `gorm:"type:text"`
	OpenedAt      time.Time
	ClosedAt      time.Time
	CreatedAt     time.Time
}

// ModerationAction records one moderation command (warn, kick, timeout,
// untimeout) for the audit archive.
type ModerationAction struct {
	ID          uint   `gorm:"primary_key"`
	BotID       string `gorm:"type:varchar(50)"`
	Action      string `gorm:"type:varchar(20)"`
	TargetID    string `gorm:"type:varchar(50)"`
	ModeratorID string `gorm:"type:varchar(50)"`
	Reason      string `gorm:"type:text"`
	Duration    string `gorm:"type:varchar(20)"`
	CreatedAt   time.Time
}
