package handler

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Pyradex/acrputilities/domain/model"
	"github.com/slack-go/slack"
)

// runModeration handles /ban, /warn, /kick, /timeout and /untimeout
// (/mute and /unmute are aliases for the timeout pair). Every action is
// announced in the log channel and written to the audit archive.
func (h *Handler) runModeration(cmd *slack.SlashCommand) {
	action := strings.TrimPrefix(cmd.Command, "/")
	switch action {
	case "mute":
		action = "timeout"
	case "unmute":
		action = "untimeout"
	}

	ok, err := h.isApprover(cmd.UserID)
	if err != nil {
		slog.Error("isApprover failed", slog.Any("err", err))
		h.postEphemeralText(cmd.ChannelID, cmd.UserID, ":warning: Could not verify your permissions. Please try again.")
		return
	}
	if !ok {
		h.postEphemeralText(cmd.ChannelID, cmd.UserID, "🚫 You do not have permission to use moderation commands.")
		return
	}

	fields := strings.Fields(cmd.Text)
	if len(fields) == 0 {
		h.postEphemeralText(cmd.ChannelID, cmd.UserID, moderationUsage(action))
		return
	}
	targetID := parseUserMention(fields[0])
	if targetID == "" {
		h.postEphemeralText(cmd.ChannelID, cmd.UserID, moderationUsage(action))
		return
	}

	var duration string
	rest := fields[1:]
	if action == "timeout" {
		if len(rest) == 0 {
			h.postEphemeralText(cmd.ChannelID, cmd.UserID, moderationUsage(action))
			return
		}
		// 期間はプラットフォーム操作より先に検証する
		if _, err := parseDuration(rest[0]); err != nil {
			h.postEphemeralText(cmd.ChannelID, cmd.UserID,
				fmt.Sprintf(":warning: Invalid duration %q. Use forms like `30s`, `15m`, `2h`, `1d`.", rest[0]))
			return
		}
		duration = strings.ToLower(strings.TrimSpace(rest[0]))
		rest = rest[1:]
	}
	reason := strings.TrimSpace(strings.Join(rest, " "))
	if reason == "" {
		reason = "No reason provided"
	}

	if err := h.applyModeration(cmd, action, targetID, duration, reason); err != nil {
		slog.Error("moderation failed", slog.String("action", action), slog.Any("err", err))
		h.postEphemeralText(cmd.ChannelID, cmd.UserID, fmt.Sprintf(":warning: Failed to %s <@%s>.", action, targetID))
		return
	}

	h.notifyModerated(action, targetID, duration, reason)

	att := slack.Attachment{
		Color: moderationColor(action),
		Title: fmt.Sprintf("%s %s", moderationEmoji(action), titleCase(action)),
		Fields: []slack.AttachmentField{
			{Title: "User", Value: fmt.Sprintf("<@%s>", targetID), Short: true},
			{Title: "Moderator", Value: fmt.Sprintf("<@%s>", cmd.UserID), Short: true},
			{Title: "Reason", Value: reason},
		},
		Ts: jsonTimestamp(timeNow()),
	}
	if duration != "" {
		att.Fields = append(att.Fields, slack.AttachmentField{Title: "Duration", Value: duration, Short: true})
	}
	h.postLogAttachment(att)

	if err := h.ds.SaveModerationAction(&model.ModerationAction{
		BotID:       h.getBotUserID(),
		Action:      action,
		TargetID:    targetID,
		ModeratorID: cmd.UserID,
		Reason:      reason,
		Duration:    duration,
		CreatedAt:   timeNow(),
	}); err != nil {
		slog.Error("SaveModerationAction failed", slog.Any("err", err))
	}

	h.postEphemeralText(cmd.ChannelID, cmd.UserID, fmt.Sprintf("Done. <@%s> has been %s. ✅", targetID, moderationPastTense(action)))
}

// applyModeration performs the platform side of the action. Warnings
// and timeouts are record-plus-notice operations; kick removes the user
// from the channel the command was issued in.
func (h *Handler) applyModeration(cmd *slack.SlashCommand, action, targetID, duration, reason string) error {
	switch action {
	case "ban", "kick":
		if err := h.client.KickUserFromConversation(cmd.ChannelID, targetID); err != nil {
			return fmt.Errorf("KickUserFromConversation failed: %w", err)
		}
	case "warn", "timeout", "untimeout":
		// 通知と記録のみ
	default:
		return fmt.Errorf("unknown moderation action %q", action)
	}
	return nil
}

// notifyModerated DMs the target. Best-effort; a closed DM never fails
// the action.
func (h *Handler) notifyModerated(action, targetID, duration, reason string) {
	var text string
	switch action {
	case "ban":
		text = fmt.Sprintf("🔨 You have been banned.\n*Reason:* %s", reason)
	case "warn":
		text = fmt.Sprintf("⚠️ You have received a warning.\n*Reason:* %s", reason)
	case "kick":
		text = fmt.Sprintf("👢 You have been removed from the channel.\n*Reason:* %s", reason)
	case "timeout":
		text = fmt.Sprintf("🔇 You have been timed out for %s.\n*Reason:* %s", duration, reason)
	case "untimeout":
		text = "🔊 Your timeout has been lifted."
	}
	if err := h.sendDM(targetID, text); err != nil {
		slog.Warn("Failed to DM moderated user", slog.Any("err", err))
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func moderationUsage(action string) string {
	if action == "timeout" {
		return "Usage: `/timeout @user <duration> [reason]`"
	}
	return fmt.Sprintf("Usage: `/%s @user [reason]`", action)
}

func moderationColor(action string) string {
	switch action {
	case "warn":
		return colorYellow
	case "ban", "kick", "timeout":
		return colorRed
	default:
		return colorGreen
	}
}

func moderationEmoji(action string) string {
	switch action {
	case "ban":
		return "🔨"
	case "warn":
		return "⚠️"
	case "kick":
		return "👢"
	case "timeout":
		return "🔇"
	default:
		return "🔊"
	}
}

func moderationPastTense(action string) string {
	switch action {
	case "ban":
		return "banned"
	case "warn":
		return "warned"
	case "kick":
		return "kicked"
	case "timeout":
		return "timed out"
	default:
		return "released from timeout"
	}
}
