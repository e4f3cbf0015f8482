package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/Pyradex/acrputilities/domain/model"
	"github.com/Pyradex/acrputilities/domain/store"
	"github.com/slack-go/slack"
)

const (
	colorGreen  = "#2ecc71"
	colorYellow = "#f1c40f"
	colorRed    = "#e74c3c"
	colorBlue   = "#3498db"
	colorPurple = "#8e44ad"
	colorSlate  = "#2d3436"
	colorAzure  = "#2f80ed"
)

// runSetupAssistance posts the assistance dropdown into the requested
// channel (defaults to where the command ran).
func (h *Handler) runSetupAssistance(cmd *slack.SlashCommand) {
	channelID := strings.TrimSpace(cmd.Text)
	if channelID == "" {
		channelID = cmd.ChannelID
	}
	if id := parseChannelMention(channelID); id != "" {
		channelID = id
	}

	options := make([]*slack.OptionBlockObject, 0, len(model.Categories))
	for _, c := range model.Categories {
		options = append(options, slack.NewOptionBlockObject(c.Value,
			slack.NewTextBlockObject("plain_text", c.Label, false, false), nil))
	}
	menu := slack.NewOptionsSelectBlockElement(slack.OptTypeStatic,
		slack.NewTextBlockObject("plain_text", "How can we assist you?", false, false),
		actionAssistanceSelect, options...)

	if _, _, err := h.client.PostMessage(channelID,
		slack.MsgOptionBlocks(slack.NewActionBlock("assistance_block", menu)),
	); err != nil {
		slog.Error("Failed to post assistance menu", slog.Any("err", err))
		h.postEphemeralText(cmd.ChannelID, cmd.UserID, ":warning: Could not post the assistance menu there.")
		return
	}
	h.postEphemeralText(cmd.ChannelID, cmd.UserID, "Assistance menu posted. ✅")
}

// validateTicketParent confirms the configured parent channel exists and
// is an actual channel. No side effects happen when this fails.
func (h *Handler) validateTicketParent() error {
	if h.cfg.TicketParentChannelID == "" {
		return fmt.Errorf("ticket parent channel is not configured")
	}
	ch, err := h.client.GetConversationInfo(&slack.GetConversationInfoInput{
		ChannelID: h.cfg.TicketParentChannelID,
	})
	if err != nil {
		return fmt.Errorf("ticket parent channel lookup failed: %w", err)
	}
	if ch.IsIM || ch.IsMpIM {
		return fmt.Errorf("ticket parent %s is not a regular channel", h.cfg.TicketParentChannelID)
	}
	return nil
}

// openTicket creates the private ticket channel for a category
// selection: opener plus staff-tier and category-group members get
// access, the management menu is posted, and the record is tracked.
func (h *Handler) openTicket(userID, categoryValue, triggerChannelID string) error {
	cat := model.CategoryByValue(categoryValue)
	if cat == nil {
		h.postEphemeralText(triggerChannelID, userID, ":warning: Unknown support category.")
		return fmt.Errorf("unknown category %q", categoryValue)
	}

	if err := h.validateTicketParent(); err != nil {
		h.postEphemeralText(triggerChannelID, userID, ":warning: Ticket category is misconfigured.")
		return err
	}

	opener, err := h.getUserInfo(userID)
	username := userID
	if err == nil {
		username = opener.Name
	}
	name := fmt.Sprintf("ticket-%s-%s", sanitizeChannelName(username), shortID())

	channel, err := h.client.CreateConversation(slack.CreateConversationParams{
		ChannelName: name,
		IsPrivate:   true,
	})
	if err != nil {
		h.postEphemeralText(triggerChannelID, userID, ":warning: Failed to create your ticket channel.")
		return fmt.Errorf("CreateConversation failed: %w", err)
	}

	if _, err := h.client.InviteUsersToConversation(channel.ID, userID); err != nil {
		slog.Error("Failed to invite opener", slog.Any("err", err), slog.String("channel", channel.ID))
	}

	teamGroup := h.inviteTicketStaff(channel.ID, userID, cat)

	claimAtt := slack.Attachment{
		Color: colorSlate,
		Title: fmt.Sprintf("🎟️ %s Ticket", cat.Label),
		Text: fmt.Sprintf("Welcome <@%s>! A staff member will claim your ticket shortly.\nUse the dropdown below to claim or manage this ticket.",
			userID),
		Fields: []slack.AttachmentField{
			{Title: "Opened By", Value: fmt.Sprintf("<@%s>", userID), Short: true},
			{Title: "Opened At", Value: fmtTime(timeNow()), Short: true},
		},
	}
	menu := slack.NewOptionsSelectBlockElement(slack.OptTypeStatic,
		slack.NewTextBlockObject("plain_text", "Select an action…", false, false),
		actionTicketSelect,
		slack.NewOptionBlockObject("claim", slack.NewTextBlockObject("plain_text", "✅ Claim Ticket", false, false), nil),
		slack.NewOptionBlockObject("unclaim", slack.NewTextBlockObject("plain_text", "🔓 Release Ticket", false, false), nil),
		slack.NewOptionBlockObject("close", slack.NewTextBlockObject("plain_text", "🗑️ Close Ticket", false, false), nil),
	)
	if _, _, err := h.client.PostMessage(channel.ID,
		slack.MsgOptionAttachments(claimAtt),
		slack.MsgOptionBlocks(slack.NewActionBlock("ticket_action_block", menu)),
	); err != nil {
		slog.Error("Failed to post ticket menu", slog.Any("err", err), slog.String("channel", channel.ID))
	}

	// gentle ping to the responsible team, best-effort
	if teamGroup != nil {
		if _, _, err := h.client.PostMessage(channel.ID,
			slack.MsgOptionText(fmt.Sprintf("<!subteam^%s>", teamGroup.ID), false),
		); err != nil {
			slog.Debug("team ping failed", slog.Any("err", err))
		}
	}

	h.tickets.Open(&model.TicketRecord{
		ChannelID:     channel.ID,
		OpenerID:      userID,
		CategoryValue: cat.Value,
		CategoryLabel: cat.Label,
		CreatedAt:     timeNow(),
	})

	h.postEphemeralText(triggerChannelID, userID, fmt.Sprintf("Your ticket has been created: <#%s> ✅", channel.ID))
	return nil
}

// inviteTicketStaff invites the two staff tiers and the category's team
// group into the ticket channel. Failures are logged, not surfaced: the
// channel already exists and the opener is in it. Returns the category
// group if it resolved.
func (h *Handler) inviteTicketStaff(channelID, openerID string, cat *model.TicketCategory) *slack.UserGroup {
	teamGroup, err := h.groupByName(cat.RoleName)
	if err != nil {
		slog.Error("groupByName failed", slog.Any("err", err))
	}

	groupIDs := []string{h.cfg.CCRGroupID, h.cfg.SCRGroupID}
	if teamGroup != nil {
		groupIDs = append(groupIDs, teamGroup.ID)
	}

	var invitees []string
	for _, gid := range groupIDs {
		if gid == "" {
			continue
		}
		members, err := h.getGroupMembers(gid)
		if err != nil {
			slog.Error("GetUserGroupMembers failed", slog.Any("err", err), slog.String("group", gid))
			continue
		}
		for _, m := range members {
			if m == openerID || m == h.getBotUserID() || slices.Contains(invitees, m) {
				continue
			}
			invitees = append(invitees, m)
		}
	}
	if len(invitees) > 0 {
		if _, err := h.client.InviteUsersToConversation(channelID, invitees...); err != nil {
			slog.Error("Failed to invite staff", slog.Any("err", err), slog.String("channel", channelID))
		}
	}
	return teamGroup
}

func (h *Handler) handleTicketAction(channelID, userID, action string) error {
	switch action {
	case "claim":
		return h.claimTicket(channelID, userID)
	case "unclaim":
		return h.releaseTicket(channelID, userID)
	case "close":
		return h.closeTicket(channelID, userID)
	}
	return fmt.Errorf("unknown ticket action %q", action)
}

func (h *Handler) claimTicket(channelID, userID string) error {
	staff, err := h.isStaff(userID)
	if err != nil {
		h.postEphemeralText(channelID, userID, ":warning: Could not verify your roles. Please try again.")
		return fmt.Errorf("isStaff failed: %w", err)
	}
	if !staff {
		h.postEphemeralText(channelID, userID, "Only staff can use this menu.")
		return nil
	}

	if err := h.tickets.Claim(channelID, userID); err != nil {
		var claimed *store.AlreadyClaimedError
		switch {
		case errors.As(err, &claimed):
			h.postEphemeralText(channelID, userID, fmt.Sprintf("Already claimed by <@%s>.", claimed.ClaimedBy))
		case errors.Is(err, store.ErrTicketNotTracked):
			h.postEphemeralText(channelID, userID, "This ticket is not tracked (possibly already closed).")
		}
		return nil
	}

	if _, _, err := h.client.PostMessage(channelID, slack.MsgOptionAttachments(slack.Attachment{
		Color: colorGreen,
		Text:  fmt.Sprintf("✅ Ticket claimed by <@%s> at %s", userID, fmtTime(timeNow())),
	})); err != nil {
		slog.Error("Failed to post claim notice", slog.Any("err", err))
	}

	rec, err := h.tickets.Get(channelID)
	if err == nil {
		h.postLogAttachment(slack.Attachment{
			Color: colorGreen,
			Title: "🎟️ Ticket Claimed",
			Fields: []slack.AttachmentField{
				{Title: "Channel", Value: fmt.Sprintf("<#%s>", channelID)},
				{Title: "Claimed By", Value: fmt.Sprintf("<@%s>", userID)},
				{Title: "Opened By", Value: fmt.Sprintf("<@%s>", rec.OpenerID)},
				{Title: "Category", Value: rec.CategoryLabel},
				{Title: "Timestamp", Value: fmtTime(timeNow())},
			},
		})
	}

	h.postEphemeralText(channelID, userID, "You claimed this ticket. ✅")
	return nil
}

func (h *Handler) releaseTicket(channelID, userID string) error {
	rec, err := h.tickets.Get(channelID)
	if err != nil {
		h.postEphemeralText(channelID, userID, "This ticket is not tracked (possibly already closed).")
		return nil
	}

	if rec.ClaimedBy != userID {
		manager, err := h.isManager(userID)
		if err != nil {
			h.postEphemeralText(channelID, userID, ":warning: Could not verify your roles. Please try again.")
			return fmt.Errorf("isManager failed: %w", err)
		}
		if !manager {
			h.postEphemeralText(channelID, userID, "Only the claimer or a manager can release.")
			return nil
		}
	}

	if err := h.tickets.Release(channelID); err != nil {
		h.postEphemeralText(channelID, userID, "This ticket is not tracked (possibly already closed).")
		return nil
	}

	if _, _, err := h.client.PostMessage(channelID, slack.MsgOptionAttachments(slack.Attachment{
		Color: colorYellow,
		Text:  fmt.Sprintf("🔓 Ticket released by <@%s> at %s", userID, fmtTime(timeNow())),
	})); err != nil {
		slog.Error("Failed to post release notice", slog.Any("err", err))
	}

	h.postEphemeralText(channelID, userID, "You released this ticket. ✅")
	return nil
}

// closeTicket runs the closing sequence in order: build the transcript,
// deliver it with the closing summary to the log sink, evict the record,
// then archive the channel. The record is evicted before archival so a
// racing claim cannot resurrect a ticket whose channel is going away.
// A failed transcript delivery is logged and closure proceeds.
func (h *Handler) closeTicket(channelID, userID string) error {
	staff, err := h.isStaff(userID)
	if err != nil {
		h.postEphemeralText(channelID, userID, ":warning: Could not verify your roles. Please try again.")
		return fmt.Errorf("isStaff failed: %w", err)
	}
	if !staff {
		h.postEphemeralText(channelID, userID, "Only staff can use this menu.")
		return nil
	}

	rec, err := h.tickets.Get(channelID)
	if err != nil {
		h.postEphemeralText(channelID, userID, "This ticket is not tracked (possibly already closed).")
		return nil
	}

	transcript, err := buildTranscript(h.client, h.displayName, channelID)
	if err != nil {
		slog.Error("buildTranscript failed", slog.Any("err", err), slog.String("channel", channelID))
		transcript = "(transcript unavailable)"
	}
	if transcript == "" {
		transcript = "(no messages)"
	}

	summary := h.summarizeTranscript(rec.CategoryLabel, transcript)
	closedAt := timeNow()
	h.deliverClosingLog(channelID, rec, userID, transcript, summary, closedAt)

	channelName := channelID
	if info, infoErr := h.client.GetConversationInfo(&slack.GetConversationInfoInput{ChannelID: channelID}); infoErr == nil {
		channelName = info.Name
	}

	if err := h.ds.SaveTicketLog(&model.TicketLog{
		BotID:         h.getBotUserID(),
		ChannelID:     channelID,
		ChannelName:   channelName,
		OpenerID:      rec.OpenerID,
		ClaimedBy:     rec.ClaimedBy,
		ClosedBy:      userID,
		CategoryLabel: rec.CategoryLabel,
		Summary:       summary,
		OpenedAt:      rec.CreatedAt,
		ClosedAt:      closedAt,
		CreatedAt:     closedAt,
	}); err != nil {
		slog.Error("SaveTicketLog failed", slog.Any("err", err))
	}

	if _, err := h.tickets.Close(channelID); err != nil {
		// someone else finished the close while we were working
		h.postEphemeralText(channelID, userID, "This ticket is not tracked (possibly already closed).")
		return nil
	}

	h.postEphemeralText(channelID, userID, "Ticket closed & logged. ✅")

	if err := h.client.ArchiveConversation(channelID); err != nil {
		slog.Error("ArchiveConversation failed", slog.Any("err", err), slog.String("channel", channelID))
	}
	return nil
}

func (h *Handler) summarizeTranscript(category, transcript string) string {
	if h.ai == nil {
		return ""
	}
	summary, err := h.ai.SummarizeTranscript(category, transcript)
	if err != nil {
		slog.Error("SummarizeTranscript failed", slog.Any("err", err))
		return ""
	}
	return summary
}

// deliverClosingLog uploads the transcript file and posts the closing
// summary to the log channel. Failures are logged; closure continues.
func (h *Handler) deliverClosingLog(channelID string, rec *model.TicketRecord, closedBy, transcript, summary string, closedAt time.Time) {
	if h.cfg.LogChannelID == "" {
		return
	}

	if _, err := h.client.UploadFileV2(slack.UploadFileV2Parameters{
		Channel:        h.cfg.LogChannelID,
		Filename:       fmt.Sprintf("transcript-%s.txt", channelID),
		Title:          fmt.Sprintf("Transcript for %s", channelID),
		Reader:         strings.NewReader(transcript),
		FileSize:       len(transcript),
		InitialComment: fmt.Sprintf("Transcript for <#%s>", channelID),
	}); err != nil {
		slog.Error("Failed to upload transcript", slog.Any("err", err), slog.String("channel", channelID))
	}

	claimed := "Not claimed"
	if rec.ClaimedBy != "" {
		claimed = fmt.Sprintf("<@%s>", rec.ClaimedBy)
	}
	fields := []slack.AttachmentField{
		{Title: "Channel", Value: fmt.Sprintf("<#%s> (%s)", channelID, channelID)},
		{Title: "Opened By", Value: fmt.Sprintf("<@%s>", rec.OpenerID)},
		{Title: "Claimed/Responded By", Value: claimed},
		{Title: "Category", Value: rec.CategoryLabel},
		{Title: "Closed By", Value: fmt.Sprintf("<@%s>", closedBy)},
		{Title: "Opened At", Value: fmtTime(rec.CreatedAt), Short: true},
		{Title: "Closed At", Value: fmtTime(closedAt), Short: true},
		{Title: "Transcript", Value: "Attached as .txt (full)."},
	}
	if summary != "" {
		fields = append(fields, slack.AttachmentField{Title: "Summary", Value: summary})
	}
	h.postLogAttachment(slack.Attachment{
		Color:  colorRed,
		Title:  "🗑️ Ticket Closed",
		Fields: fields,
	})
}

// postLogAttachment sends one entry to the moderation/audit log channel.
// Log delivery is never allowed to fail a workflow.
func (h *Handler) postLogAttachment(att slack.Attachment) {
	if h.cfg.LogChannelID == "" {
		return
	}
	if _, _, err := h.client.PostMessage(h.cfg.LogChannelID, slack.MsgOptionAttachments(att)); err != nil {
		slog.Error("Failed to post log entry", slog.Any("err", err))
	}
}
