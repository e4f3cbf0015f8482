package handler

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Pyradex/acrputilities/domain/infra"
	"github.com/Pyradex/acrputilities/domain/store"
	"github.com/jellydator/ttlcache/v3"
	_ "github.com/mattn/go-sqlite3"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"
)

// Config is the channel/group wiring read from the environment once at
// startup.
type Config struct {
	TicketParentChannelID string
	LogChannelID          string
	ApprovalChannelID     string
	SessionChannelID      string
	CCRGroupID            string
	SCRGroupID            string
}

func configFromEnv() Config {
	return Config{
		TicketParentChannelID: os.Getenv("TICKET_PARENT_CHANNEL_ID"),
		LogChannelID:          os.Getenv("LOG_CHANNEL_ID"),
		ApprovalChannelID:     os.Getenv("APPROVAL_CHANNEL_ID"),
		SessionChannelID:      os.Getenv("SESSION_CHANNEL_ID"),
		CCRGroupID:            os.Getenv("CCR_GROUP_ID"),
		SCRGroupID:            os.Getenv("SCR_GROUP_ID"),
	}
}

// action IDs of the four workflow menus
const (
	actionAssistanceSelect = "assistance_select"
	actionTicketSelect     = "ticket_action_select"
	actionApprovalSelect   = "approval_select"
	actionSessionVote      = "session_vote_select"
)

type Handler struct {
	client infra.SlackAPI
	ds     infra.Datastore
	ai     *infra.OpenAI
	cfg    Config

	tickets   *store.TicketStore
	approvals *store.ApprovalStore
	sessions  *store.SessionStore
	shifts    *store.ShiftStore

	userInfoCache *ttlcache.Cache[string, *slack.User]
	groupCache    *ttlcache.Cache[string, []slack.UserGroup]
	memberCache   *ttlcache.Cache[string, []string]
	botID         string
}

func NewHandler() (*Handler, error) {
	var ds infra.Datastore
	var err error
	if os.Getenv("DB_DRIVER") == "dynamodb" {
		ds, err = infra.NewDynamoDB()
		if err != nil {
			return nil, err
		}
	} else {
		ds, err = infra.NewDataBase()
		if err != nil {
			return nil, err
		}
	}

	ai, err := infra.NewOpenAI()
	if err != nil {
		return nil, err
	}

	api := slack.New(os.Getenv("SLACK_BOT_TOKEN"))
	h := newHandlerWith(api, ds, configFromEnv())
	h.ai = ai
	return h, nil
}

// newHandlerWith wires stores and caches around the given collaborators.
// Tests use it to inject a mock client and a fake datastore.
func newHandlerWith(client infra.SlackAPI, ds infra.Datastore, cfg Config) *Handler {
	h := &Handler{
		client:        client,
		ds:            ds,
		cfg:           cfg,
		tickets:       store.NewTicketStore(),
		approvals:     store.NewApprovalStore(),
		sessions:      store.NewSessionStore(),
		shifts:        store.NewShiftStore(),
		userInfoCache: ttlcache.New(ttlcache.WithTTL[string, *slack.User](24 * time.Hour)),
		groupCache:    ttlcache.New(ttlcache.WithTTL[string, []slack.UserGroup](time.Hour)),
		memberCache:   ttlcache.New(ttlcache.WithTTL[string, []string](time.Hour)),
	}
	go h.userInfoCache.Start()
	go h.groupCache.Start()
	go h.memberCache.Start()
	return h
}

func (h *Handler) Handle() error {
	webApi := slack.New(
		os.Getenv("SLACK_BOT_TOKEN"),
		slack.OptionAppLevelToken(os.Getenv("SLACK_APP_TOKEN")),
	)
	socketMode := socketmode.New(
		webApi,
	)
	authTest, authTestErr := webApi.AuthTest()
	if authTestErr != nil {
		fmt.Fprintf(os.Stderr, "SLACK_BOT_TOKEN is invalid: %v\n", authTestErr)
		os.Exit(1)
	}
	h.botID = authTest.UserID

	go func() {
		for envelope := range socketMode.Events {
			switch envelope.Type {
			case socketmode.EventTypeSlashCommand:
				socketMode.Ack(*envelope.Request)
				cmd, ok := envelope.Data.(slack.SlashCommand)
				if !ok {
					slog.Error("Failed to cast to SlashCommand")
					continue
				}
				h.handleSlashCommand(&cmd)
			case socketmode.EventTypeInteractive:
				socketMode.Ack(*envelope.Request)
				callback, ok := envelope.Data.(slack.InteractionCallback)
				if !ok {
					slog.Error("Failed to cast to InteractionCallback")
					continue
				}
				h.handleInteractions(&callback)
			default:
				socketMode.Debugf("Skipped: %v", envelope.Type)
			}
		}
	}()

	return socketMode.Run()
}

// recoverInteraction keeps one bad event from taking the loop down.
func (h *Handler) recoverInteraction(channelID, userID string) {
	if r := recover(); r != nil {
		slog.Error("panic while handling interaction", slog.Any("panic", r))
		if channelID != "" && userID != "" {
			h.postEphemeralText(channelID, userID, ":warning: Something went wrong handling that action. Please try again.")
		}
	}
}

func (h *Handler) handleSlashCommand(cmd *slack.SlashCommand) {
	defer h.recoverInteraction(cmd.ChannelID, cmd.UserID)

	switch cmd.Command {
	case "/setup-assistance":
		h.runSetupAssistance(cmd)
	case "/requestmsg":
		h.runRequestMsg(cmd)
	case "/session":
		h.runSession(cmd)
	case "/tickets":
		h.runTicketHistory(cmd)
	case "/ban", "/warn", "/kick", "/timeout", "/untimeout", "/mute", "/unmute":
		h.runModeration(cmd)
	case "/shift-start", "/shift-end", "/shift-status":
		h.runShift(cmd)
	default:
		h.postEphemeralText(cmd.ChannelID, cmd.UserID, fmt.Sprintf("Unknown command %s.", cmd.Command))
	}
}

func (h *Handler) handleInteractions(callback *slack.InteractionCallback) {
	defer h.recoverInteraction(callback.Channel.ID, callback.User.ID)

	switch callback.Type {
	case slack.InteractionTypeBlockActions:
		if len(callback.ActionCallback.BlockActions) < 1 {
			return
		}
		action := callback.ActionCallback.BlockActions[0]
		selected := action.SelectedOption.Value
		messageTS := callback.Container.MessageTs

		switch action.ActionID {
		case actionAssistanceSelect:
			if err := h.openTicket(callback.User.ID, selected, callback.Channel.ID); err != nil {
				slog.Error("openTicket failed", slog.Any("err", err))
				return
			}
		case actionTicketSelect:
			if err := h.handleTicketAction(callback.Channel.ID, callback.User.ID, selected); err != nil {
				slog.Error("handleTicketAction failed", slog.Any("err", err))
				return
			}
		case actionApprovalSelect:
			if err := h.decideApproval(messageTS, callback.User.ID, selected); err != nil {
				slog.Error("decideApproval failed", slog.Any("err", err))
				return
			}
		case actionSessionVote:
			if err := h.castVote(callback.Channel.ID, messageTS, callback.User.ID, selected); err != nil {
				slog.Error("castVote failed", slog.Any("err", err))
				return
			}
		}
	}
}

// postEphemeralText reports back to the acting user only. Delivery is
// best-effort; a failed notice never aborts the workflow that sent it.
func (h *Handler) postEphemeralText(channelID, userID, text string) {
	if _, err := h.client.PostEphemeral(channelID, userID, slack.MsgOptionText(text, false)); err != nil {
		slog.Error("Failed to post ephemeral message", slog.Any("err", err))
	}
}

// sendDM opens (or reuses) the IM with the user and posts there.
// Callers treat failures as best-effort.
func (h *Handler) sendDM(userID, text string) error {
	ch, _, _, err := h.client.OpenConversation(&slack.OpenConversationParameters{Users: []string{userID}})
	if err != nil {
		return fmt.Errorf("OpenConversation failed: %w", err)
	}
	if _, _, err := h.client.PostMessage(ch.ID, slack.MsgOptionText(text, false)); err != nil {
		return fmt.Errorf("PostMessage failed: %w", err)
	}
	return nil
}

func (h *Handler) getBotUserID() string {
	if h.botID == "" {
		authResp, err := h.client.AuthTest()
		if err != nil {
			slog.Error("Failed to get bot user ID", slog.Any("err", err))
			return ""
		}
		h.botID = authResp.UserID
	}
	return h.botID
}

// runTicketHistory shows the latest archived ticket closures to the
// invoking user.
func (h *Handler) runTicketHistory(cmd *slack.SlashCommand) {
	logs, err := h.ds.GetRecentTicketLogs(h.getBotUserID())
	if err != nil {
		slog.Error("GetRecentTicketLogs failed", slog.Any("err", err))
		h.postEphemeralText(cmd.ChannelID, cmd.UserID, "📭 Failed to fetch the ticket history.")
		return
	}
	if len(logs) == 0 {
		h.postEphemeralText(cmd.ChannelID, cmd.UserID, "📭 No closed tickets on record.")
		return
	}

	var b strings.Builder
	b.WriteString("*📜 Recently closed tickets*\n")
	for _, l := range logs {
		claimed := "not claimed"
		if l.ClaimedBy != "" {
			claimed = fmt.Sprintf("<@%s>", l.ClaimedBy)
		}
		fmt.Fprintf(&b, "• #%s — %s, opened by <@%s>, handled by %s, closed %s\n",
			l.ChannelName, l.CategoryLabel, l.OpenerID, claimed, fmtTime(l.ClosedAt))
	}
	h.postEphemeralText(cmd.ChannelID, cmd.UserID, b.String())
}
