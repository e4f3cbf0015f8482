package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Pyradex/acrputilities/domain/store"
	"github.com/slack-go/slack"
)

// runShift handles /shift-start, /shift-end and /shift-status. Shifts
// are staff-only; starts and ends are announced in the log channel,
// status is reported back to the asker only.
func (h *Handler) runShift(cmd *slack.SlashCommand) {
	staff, err := h.isStaff(cmd.UserID)
	if err != nil {
		slog.Error("isStaff failed", slog.Any("err", err))
		h.postEphemeralText(cmd.ChannelID, cmd.UserID, ":warning: Could not verify your roles. Please try again.")
		return
	}
	if !staff {
		h.postEphemeralText(cmd.ChannelID, cmd.UserID, "🚫 Shifts are for staff members only.")
		return
	}

	switch cmd.Command {
	case "/shift-start":
		h.startShift(cmd)
	case "/shift-end":
		h.endShift(cmd)
	case "/shift-status":
		h.shiftStatus(cmd)
	}
}

func (h *Handler) startShift(cmd *slack.SlashCommand) {
	now := timeNow()
	if err := h.shifts.Start(cmd.UserID, now); err != nil {
		if errors.Is(err, store.ErrShiftAlreadyActive) {
			h.postEphemeralText(cmd.ChannelID, cmd.UserID, "You already have an open shift.")
			return
		}
		slog.Error("shift start failed", slog.Any("err", err))
		return
	}

	h.postLogAttachment(slack.Attachment{
		Color: colorGreen,
		Title: "🟢 Shift Started",
		Fields: []slack.AttachmentField{
			{Title: "Staff", Value: fmt.Sprintf("<@%s>", cmd.UserID), Short: true},
			{Title: "Started At", Value: fmtTime(now), Short: true},
		},
	})
	h.postEphemeralText(cmd.ChannelID, cmd.UserID, "Your shift has started. ✅")
}

func (h *Handler) endShift(cmd *slack.SlashCommand) {
	started, err := h.shifts.End(cmd.UserID)
	if err != nil {
		if errors.Is(err, store.ErrShiftNotActive) {
			h.postEphemeralText(cmd.ChannelID, cmd.UserID, "You have no open shift.")
			return
		}
		slog.Error("shift end failed", slog.Any("err", err))
		return
	}

	ended := timeNow()
	h.postLogAttachment(slack.Attachment{
		Color: colorYellow,
		Title: "🔴 Shift Ended",
		Fields: []slack.AttachmentField{
			{Title: "Staff", Value: fmt.Sprintf("<@%s>", cmd.UserID), Short: true},
			{Title: "Duration", Value: fmtShiftDuration(ended.Sub(started)), Short: true},
			{Title: "Started At", Value: fmtTime(started), Short: true},
			{Title: "Ended At", Value: fmtTime(ended), Short: true},
		},
	})
	h.postEphemeralText(cmd.ChannelID, cmd.UserID, "Your shift has ended. ✅")
}

func (h *Handler) shiftStatus(cmd *slack.SlashCommand) {
	active := h.shifts.Active()
	if len(active) == 0 {
		h.postEphemeralText(cmd.ChannelID, cmd.UserID, "📭 No staff currently on shift.")
		return
	}

	var b strings.Builder
	b.WriteString("*🕒 Staff currently on shift*\n")
	now := timeNow()
	for _, s := range active {
		fmt.Fprintf(&b, "• <@%s> since %s (%s)\n",
			s.UserID, fmtTime(s.StartedAt), fmtShiftDuration(now.Sub(s.StartedAt)))
	}
	h.postEphemeralText(cmd.ChannelID, cmd.UserID, b.String())
}

// fmtShiftDuration renders an elapsed shift as "3h 25m".
func fmtShiftDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Minute)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}
