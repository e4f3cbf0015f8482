package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Pyradex/acrputilities/domain/model"
	"github.com/Pyradex/acrputilities/domain/store"
	"github.com/slack-go/slack"
)

// runRequestMsg submits a broadcast for approval. Command text is
// "heading | message | Team Name"; the broadcast will be delivered to
// the channel the command ran in once approved.
func (h *Handler) runRequestMsg(cmd *slack.SlashCommand) {
	parts := strings.SplitN(cmd.Text, "|", 3)
	if len(parts) != 3 {
		h.postEphemeralText(cmd.ChannelID, cmd.UserID,
			"Usage: `/requestmsg heading | message | Team Name`")
		return
	}
	heading := strings.TrimSpace(parts[0])
	body := strings.TrimSpace(parts[1])
	teamName := strings.TrimSpace(parts[2])
	if heading == "" || body == "" || teamName == "" {
		h.postEphemeralText(cmd.ChannelID, cmd.UserID,
			"Usage: `/requestmsg heading | message | Team Name`")
		return
	}

	if err := h.validateApprovalChannel(); err != nil {
		h.postEphemeralText(cmd.ChannelID, cmd.UserID, ":warning: Approval channel is misconfigured.")
		slog.Error("approval channel misconfigured", slog.Any("err", err))
		return
	}

	teamGroup, err := h.groupByName(teamName)
	if err != nil {
		h.postEphemeralText(cmd.ChannelID, cmd.UserID, ":warning: Could not look up team groups. Please try again.")
		slog.Error("groupByName failed", slog.Any("err", err))
		return
	}

	// whether the requester actually holds the signature role is shown
	// to approvers, not enforced
	rank := fmt.Sprintf("Not currently holding %s", teamName)
	teamRoleID := ""
	if teamGroup != nil {
		teamRoleID = teamGroup.ID
		if member, err := h.isMemberOfAny(cmd.UserID, []string{teamGroup.ID}); err == nil && member {
			rank = teamName
		}
	}

	preview := slack.Attachment{
		Color: colorAzure,
		Title: heading,
		Text:  fmt.Sprintf("%s\n\n*Regards,*\nThe %s", body, teamName),
		Fields: []slack.AttachmentField{
			{Title: "Requester", Value: fmt.Sprintf("<@%s>", cmd.UserID)},
			{Title: "Requester Team Rank", Value: rank},
			{Title: "Target Channel", Value: fmt.Sprintf("<#%s>", cmd.ChannelID)},
		},
		Footer: fmt.Sprintf("Requested by %s", cmd.UserID),
	}
	menu := slack.NewOptionsSelectBlockElement(slack.OptTypeStatic,
		slack.NewTextBlockObject("plain_text", "Approve or Decline…", false, false),
		actionApprovalSelect,
		slack.NewOptionBlockObject("approve", slack.NewTextBlockObject("plain_text", "✅ Approve The Message Broadcast", false, false), nil),
		slack.NewOptionBlockObject("decline", slack.NewTextBlockObject("plain_text", "❌ Decline The Message Broadcast", false, false), nil),
	)

	_, ts, err := h.client.PostMessage(h.cfg.ApprovalChannelID,
		slack.MsgOptionAttachments(preview),
		slack.MsgOptionBlocks(slack.NewActionBlock("approval_block", menu)),
	)
	if err != nil {
		h.postEphemeralText(cmd.ChannelID, cmd.UserID, ":warning: Failed to submit your request. Please try again.")
		slog.Error("Failed to post approval request", slog.Any("err", err))
		return
	}

	h.approvals.Put(ts, &model.ApprovalRequest{
		TargetChannelID: cmd.ChannelID,
		Payload: model.BroadcastPayload{
			Heading:      heading,
			Body:         body,
			TeamRoleID:   teamRoleID,
			TeamRoleName: teamName,
			RequesterID:  cmd.UserID,
		},
	})

	h.postEphemeralText(cmd.ChannelID, cmd.UserID, "Your request has been sent for approval. ✅")
}

func (h *Handler) validateApprovalChannel() error {
	if h.cfg.ApprovalChannelID == "" {
		return fmt.Errorf("approval channel is not configured")
	}
	ch, err := h.client.GetConversationInfo(&slack.GetConversationInfoInput{
		ChannelID: h.cfg.ApprovalChannelID,
	})
	if err != nil {
		return fmt.Errorf("approval channel lookup failed: %w", err)
	}
	if ch.IsIM || ch.IsMpIM {
		return fmt.Errorf("approval channel %s is not a regular channel", h.cfg.ApprovalChannelID)
	}
	return nil
}

// decideApproval resolves a pending request. The store entry is
// consumed on the first decision, so a second selection on the same
// message reports the expired condition instead of re-running.
func (h *Handler) decideApproval(messageTS, userID, choice string) error {
	approver, err := h.isApprover(userID)
	if err != nil {
		h.postEphemeralText(h.cfg.ApprovalChannelID, userID, ":warning: Could not verify your roles. Please try again.")
		return fmt.Errorf("isApprover failed: %w", err)
	}
	if !approver {
		h.postEphemeralText(h.cfg.ApprovalChannelID, userID, "Only CCR/SCR can act on approvals.")
		return nil
	}

	req, err := h.approvals.Resolve(messageTS)
	if err != nil {
		if errors.Is(err, store.ErrExpiredOrUnknownRequest) {
			h.postEphemeralText(h.cfg.ApprovalChannelID, userID, "This approval context has expired (already decided or bot restarted).")
			return nil
		}
		return err
	}

	h.clearApprovalMenu(messageTS, userID, choice, &req.Payload)

	if choice == "approve" {
		h.broadcastApproved(req)
		h.postEphemeralText(h.cfg.ApprovalChannelID, userID, "Approved & broadcasted. ✅")
		return nil
	}

	decider := h.displayName(userID)
	if err := h.sendDM(req.Payload.RequesterID,
		fmt.Sprintf("Your broadcast request %q was declined by %s.", req.Payload.Heading, decider)); err != nil {
		slog.Error("Failed to notify requester of decline", slog.Any("err", err))
	}
	h.postEphemeralText(h.cfg.ApprovalChannelID, userID, "Declined. ✅")
	return nil
}

// clearApprovalMenu rewrites the request message without the dropdown so
// it cannot be decided twice from a stale view.
func (h *Handler) clearApprovalMenu(messageTS, deciderID, choice string, payload *model.BroadcastPayload) {
	verdict := "✅ Approved"
	color := colorGreen
	if choice != "approve" {
		verdict = "❌ Declined"
		color = colorRed
	}
	att := slack.Attachment{
		Color: color,
		Title: payload.Heading,
		Text:  fmt.Sprintf("%s\n\n*Regards,*\nThe %s", payload.Body, payload.TeamRoleName),
		Fields: []slack.AttachmentField{
			{Title: "Requester", Value: fmt.Sprintf("<@%s>", payload.RequesterID)},
			{Title: "Decision", Value: fmt.Sprintf("%s by <@%s> at %s", verdict, deciderID, fmtTime(timeNow()))},
		},
	}
	if _, _, _, err := h.client.UpdateMessage(h.cfg.ApprovalChannelID, messageTS,
		slack.MsgOptionAttachments(att),
		slack.MsgOptionBlocks(),
	); err != nil {
		slog.Error("Failed to clear approval menu", slog.Any("err", err))
	}
}

// broadcastApproved delivers the reconstructed broadcast. A vanished
// target channel is skipped silently; the team ping is best-effort.
func (h *Handler) broadcastApproved(req *model.ApprovalRequest) {
	target, err := h.client.GetConversationInfo(&slack.GetConversationInfoInput{
		ChannelID: req.TargetChannelID,
	})
	if err != nil || target == nil || target.IsIM {
		slog.Warn("broadcast target unavailable, skipping",
			slog.String("channel", req.TargetChannelID), slog.Any("err", err))
		return
	}

	broadcast := slack.Attachment{
		Color: colorAzure,
		Title: req.Payload.Heading,
		Text:  fmt.Sprintf("%s\n\n*Regards,*\nThe %s", req.Payload.Body, req.Payload.TeamRoleName),
		Ts:    jsonTimestamp(timeNow()),
	}
	if _, _, err := h.client.PostMessage(req.TargetChannelID, slack.MsgOptionAttachments(broadcast)); err != nil {
		slog.Error("Failed to deliver broadcast", slog.Any("err", err))
		return
	}
	if req.Payload.TeamRoleID != "" {
		if _, _, err := h.client.PostMessage(req.TargetChannelID,
			slack.MsgOptionText(fmt.Sprintf("<!subteam^%s>", req.Payload.TeamRoleID), false),
		); err != nil {
			slog.Debug("team ping failed", slog.Any("err", err))
		}
	}
}
