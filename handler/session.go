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

type sessionAnnouncement struct {
	title string
	text  string
	color string
}

var sessionAnnouncements = map[string]sessionAnnouncement{
	"start":    {title: "🟢 Session Started", text: "The session is now active.", color: colorGreen},
	"shutdown": {title: "🔴 Session Shutdown", text: "The session has ended.", color: colorRed},
	"low":      {title: "🟡 Session Low", text: "The session has low activity.", color: colorYellow},
	"full":     {title: "🔵 Session Full", text: "The session is full.", color: colorBlue},
}

// runSession handles "/session vote <question>" and the fixed
// announcement subcommands.
func (h *Handler) runSession(cmd *slack.SlashCommand) {
	sub, rest, _ := strings.Cut(strings.TrimSpace(cmd.Text), " ")

	if err := h.validateSessionChannel(); err != nil {
		h.postEphemeralText(cmd.ChannelID, cmd.UserID, ":warning: Session channel is misconfigured.")
		slog.Error("session channel misconfigured", slog.Any("err", err))
		return
	}

	if sub == "vote" {
		question := strings.TrimSpace(rest)
		if question == "" {
			h.postEphemeralText(cmd.ChannelID, cmd.UserID, "Usage: `/session vote <question>`")
			return
		}
		h.startVote(cmd, question)
		return
	}

	conf, ok := sessionAnnouncements[sub]
	if !ok {
		h.postEphemeralText(cmd.ChannelID, cmd.UserID, "Usage: `/session vote|start|shutdown|low|full`")
		return
	}

	if _, _, err := h.client.PostMessage(h.cfg.SessionChannelID, slack.MsgOptionAttachments(slack.Attachment{
		Color: conf.color,
		Title: conf.title,
		Text:  conf.text,
		Ts:    jsonTimestamp(timeNow()),
	})); err != nil {
		h.postEphemeralText(cmd.ChannelID, cmd.UserID, ":warning: Failed to post the announcement.")
		slog.Error("Failed to post session announcement", slog.Any("err", err))
		return
	}
	h.postEphemeralText(cmd.ChannelID, cmd.UserID, "Posted. ✅")
}

func (h *Handler) validateSessionChannel() error {
	if h.cfg.SessionChannelID == "" {
		return fmt.Errorf("session channel is not configured")
	}
	ch, err := h.client.GetConversationInfo(&slack.GetConversationInfoInput{
		ChannelID: h.cfg.SessionChannelID,
	})
	if err != nil {
		return fmt.Errorf("session channel lookup failed: %w", err)
	}
	if ch.IsIM || ch.IsMpIM {
		return fmt.Errorf("session channel %s is not a regular channel", h.cfg.SessionChannelID)
	}
	return nil
}

func (h *Handler) startVote(cmd *slack.SlashCommand, question string) {
	att := slack.Attachment{
		Color: colorPurple,
		Title: "🗳️ Session Vote",
		Text:  "A vote has been started for a new session.",
		Fields: []slack.AttachmentField{
			{Title: "Question", Value: question},
		},
		Ts: jsonTimestamp(timeNow()),
	}
	menu := slack.NewOptionsSelectBlockElement(slack.OptTypeStatic,
		slack.NewTextBlockObject("plain_text", "Cast your vote…", false, false),
		actionSessionVote,
		slack.NewOptionBlockObject("yes", slack.NewTextBlockObject("plain_text", "Yes", false, false), nil),
		slack.NewOptionBlockObject("no", slack.NewTextBlockObject("plain_text", "No", false, false), nil),
		slack.NewOptionBlockObject("abstain", slack.NewTextBlockObject("plain_text", "Abstain", false, false), nil),
	)

	_, ts, err := h.client.PostMessage(h.cfg.SessionChannelID,
		slack.MsgOptionAttachments(att),
		slack.MsgOptionBlocks(slack.NewActionBlock("session_vote_block", menu)),
	)
	if err != nil {
		h.postEphemeralText(cmd.ChannelID, cmd.UserID, ":warning: Failed to post the vote.")
		slog.Error("Failed to post session vote", slog.Any("err", err))
		return
	}

	h.sessions.Create(ts, question)
	h.postEphemeralText(cmd.ChannelID, cmd.UserID, "Vote posted. ✅")
}

// castVote applies one ballot and re-renders the results line from the
// snapshot the store returned. channelID is the channel the selection
// came from; error notices go back there.
func (h *Handler) castVote(channelID, messageTS, userID, choice string) error {
	poll, err := h.sessions.Cast(messageTS, userID, choice)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrPollNotTracked):
			h.postEphemeralText(channelID, userID, "Vote session expired.")
			return nil
		case errors.Is(err, store.ErrInvalidChoice):
			h.postEphemeralText(channelID, userID, ":warning: That is not a valid vote option.")
			return nil
		}
		return err
	}

	results := fmt.Sprintf("*Yes:* %d | *No:* %d | *Abstain:* %d | *Total:* %d",
		poll.Tally[model.VoteYes], poll.Tally[model.VoteNo], poll.Tally[model.VoteAbstain], poll.Total())

	att := slack.Attachment{
		Color: colorPurple,
		Title: "🗳️ Session Vote",
		Text:  "A vote has been started for a new session.",
		Fields: []slack.AttachmentField{
			{Title: "Question", Value: poll.Question},
			{Title: "Results", Value: results},
		},
	}
	menu := slack.NewOptionsSelectBlockElement(slack.OptTypeStatic,
		slack.NewTextBlockObject("plain_text", "Cast your vote…", false, false),
		actionSessionVote,
		slack.NewOptionBlockObject("yes", slack.NewTextBlockObject("plain_text", "Yes", false, false), nil),
		slack.NewOptionBlockObject("no", slack.NewTextBlockObject("plain_text", "No", false, false), nil),
		slack.NewOptionBlockObject("abstain", slack.NewTextBlockObject("plain_text", "Abstain", false, false), nil),
	)
	if _, _, _, err := h.client.UpdateMessage(channelID, messageTS,
		slack.MsgOptionAttachments(att),
		slack.MsgOptionBlocks(slack.NewActionBlock("session_vote_block", menu)),
	); err != nil {
		slog.Error("Failed to update vote results", slog.Any("err", err))
	}
	return nil
}
