package handler

import (
	"testing"
	"time"

	"github.com/Pyradex/acrputilities/domain/infra"
	"github.com/Pyradex/acrputilities/domain/model"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slacktest"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"
)

// fakeDatastore captures audit writes in memory.
type fakeDatastore struct {
	ticketLogs []model.TicketLog
	modActions []model.ModerationAction
}

func (f *fakeDatastore) SaveTicketLog(l *model.TicketLog) error {
	f.ticketLogs = append(f.ticketLogs, *l)
	return nil
}

func (f *fakeDatastore) GetRecentTicketLogs(botID string) ([]model.TicketLog, error) {
	return f.ticketLogs, nil
}

func (f *fakeDatastore) SaveModerationAction(a *model.ModerationAction) error {
	f.modActions = append(f.modActions, *a)
	return nil
}

func testConfig() Config {
	return Config{
		TicketParentChannelID: "C_PARENT",
		LogChannelID:          "C_LOG",
		ApprovalChannelID:     "C_APPROVAL",
		SessionChannelID:      "C_SESSION",
		CCRGroupID:            "SCCR1",
		SCRGroupID:            "SSCR1",
	}
}

func staffGroups() []slack.UserGroup {
	return []slack.UserGroup{
		{ID: "SCCR1", Name: "Community Relations", Handle: "ccr"},
		{ID: "SSCR1", Name: "Senior Community Relations", Handle: "scr"},
		{ID: "STEAM1", Name: "General Support", Handle: "general-support"},
	}
}

func TestHandler_openTicket(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := NewMockSlackAPI(ctrl)
	ds := &fakeDatastore{}
	h := newHandlerWith(mockClient, ds, testConfig())

	mockClient.EXPECT().AuthTest().Return(&slack.AuthTestResponse{UserID: "bot_id"}, nil).AnyTimes()
	mockClient.EXPECT().GetConversationInfo(gomock.Any()).Return(&slack.Channel{}, nil).AnyTimes()
	mockClient.EXPECT().GetUserInfo("U_OPENER").Return(&slack.User{Name: "opener"}, nil).AnyTimes()
	mockClient.EXPECT().GetUserGroups().Return(staffGroups(), nil).AnyTimes()
	mockClient.EXPECT().GetUserGroupMembers("SCCR1").Return([]string{"U_STAFF"}, nil).AnyTimes()
	mockClient.EXPECT().GetUserGroupMembers("SSCR1").Return([]string{"U_MANAGER"}, nil).AnyTimes()
	mockClient.EXPECT().GetUserGroupMembers("STEAM1").Return([]string{"U_STAFF", "U_OPENER"}, nil).AnyTimes()
	mockClient.EXPECT().CreateConversation(gomock.Any()).DoAndReturn(
		func(params slack.CreateConversationParams) (*slack.Channel, error) {
			assert.True(t, params.IsPrivate)
			assert.Contains(t, params.ChannelName, "ticket-opener-")
			ch := &slack.Channel{}
			ch.ID = "C_TICKET"
			return ch, nil
		}).Times(1)
	mockClient.EXPECT().InviteUsersToConversation("C_TICKET", "U_OPENER").Return(nil, nil).Times(1)
	// スタッフの招待には起票者と bot は含めない
	mockClient.EXPECT().InviteUsersToConversation("C_TICKET", "U_STAFF", "U_MANAGER").Return(nil, nil).Times(1)
	mockClient.EXPECT().PostMessage("C_TICKET", gomock.Any(), gomock.Any()).Return("C_TICKET", "1.0", nil).Times(1)
	mockClient.EXPECT().PostMessage("C_TICKET", gomock.Any()).Return("C_TICKET", "1.1", nil).Times(1)
	mockClient.EXPECT().PostEphemeral(gomock.Any(), gomock.Any(), gomock.Any()).Return("ok", nil).AnyTimes()

	err := h.openTicket("U_OPENER", "general-support", "C_TRIGGER")
	assert.NoError(t, err)

	rec, err := h.tickets.Get("C_TICKET")
	assert.NoError(t, err)
	assert.Equal(t, "U_OPENER", rec.OpenerID)
	assert.Equal(t, "General Support", rec.CategoryLabel)
	assert.False(t, rec.Claimed())
}

func TestHandler_openTicket_unknownCategory(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := NewMockSlackAPI(ctrl)
	h := newHandlerWith(mockClient, &fakeDatastore{}, testConfig())

	mockClient.EXPECT().PostEphemeral(gomock.Any(), gomock.Any(), gomock.Any()).Return("ok", nil).Times(1)

	err := h.openTicket("U_OPENER", "nonsense", "C_TRIGGER")
	assert.Error(t, err)
	assert.Equal(t, 0, h.tickets.Len())
}

func TestHandler_claimTicket(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := NewMockSlackAPI(ctrl)
	h := newHandlerWith(mockClient, &fakeDatastore{}, testConfig())

	h.tickets.Open(&model.TicketRecord{
		ChannelID:     "C_TICKET",
		OpenerID:      "U_OPENER",
		CategoryValue: "general-support",
		CategoryLabel: "General Support",
		CreatedAt:     time.Now(),
	})

	mockClient.EXPECT().GetUserGroups().Return(staffGroups(), nil).AnyTimes()
	mockClient.EXPECT().GetUserGroupMembers("SCCR1").Return([]string{"U_STAFF", "U_RIVAL"}, nil).AnyTimes()
	mockClient.EXPECT().GetUserGroupMembers(gomock.Any()).Return([]string{}, nil).AnyTimes()
	mockClient.EXPECT().PostMessage(gomock.Any(), gomock.Any()).Return("ok", "1.0", nil).AnyTimes()
	mockClient.EXPECT().PostEphemeral(gomock.Any(), gomock.Any(), gomock.Any()).Return("ok", nil).AnyTimes()

	assert.NoError(t, h.claimTicket("C_TICKET", "U_STAFF"))

	rec, err := h.tickets.Get("C_TICKET")
	assert.NoError(t, err)
	assert.Equal(t, "U_STAFF", rec.ClaimedBy)

	// 先取済みのチケットは奪えない
	assert.NoError(t, h.claimTicket("C_TICKET", "U_RIVAL"))
	rec, err = h.tickets.Get("C_TICKET")
	assert.NoError(t, err)
	assert.Equal(t, "U_STAFF", rec.ClaimedBy)
}

func TestHandler_claimTicket_nonStaff(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := NewMockSlackAPI(ctrl)
	h := newHandlerWith(mockClient, &fakeDatastore{}, testConfig())

	h.tickets.Open(&model.TicketRecord{ChannelID: "C_TICKET", OpenerID: "U_OPENER"})

	mockClient.EXPECT().GetUserGroups().Return(staffGroups(), nil).AnyTimes()
	mockClient.EXPECT().GetUserGroupMembers(gomock.Any()).Return([]string{}, nil).AnyTimes()
	mockClient.EXPECT().PostEphemeral(gomock.Any(), gomock.Any(), gomock.Any()).Return("ok", nil).Times(1)

	assert.NoError(t, h.claimTicket("C_TICKET", "U_RANDOM"))

	rec, err := h.tickets.Get("C_TICKET")
	assert.NoError(t, err)
	assert.False(t, rec.Claimed())
}

func TestHandler_releaseTicket(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := NewMockSlackAPI(ctrl)
	h := newHandlerWith(mockClient, &fakeDatastore{}, testConfig())

	h.tickets.Open(&model.TicketRecord{ChannelID: "C_TICKET", OpenerID: "U_OPENER"})
	assert.NoError(t, h.tickets.Claim("C_TICKET", "U_STAFF"))

	mockClient.EXPECT().GetUserGroups().Return(staffGroups(), nil).AnyTimes()
	mockClient.EXPECT().GetUserGroupMembers(gomock.Any()).Return([]string{}, nil).AnyTimes()
	mockClient.EXPECT().PostMessage(gomock.Any(), gomock.Any()).Return("ok", "1.0", nil).AnyTimes()
	mockClient.EXPECT().PostEphemeral(gomock.Any(), gomock.Any(), gomock.Any()).Return("ok", nil).AnyTimes()

	// 起票者でも保持者でもマネージャでもない
	assert.NoError(t, h.releaseTicket("C_TICKET", "U_OPENER"))
	rec, _ := h.tickets.Get("C_TICKET")
	assert.Equal(t, "U_STAFF", rec.ClaimedBy)

	// 保持者は手放せる
	assert.NoError(t, h.releaseTicket("C_TICKET", "U_STAFF"))
	rec, _ = h.tickets.Get("C_TICKET")
	assert.False(t, rec.Claimed())
}

func TestHandler_closeTicket(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := NewMockSlackAPI(ctrl)
	ds := &fakeDatastore{}
	h := newHandlerWith(mockClient, ds, testConfig())

	opened := time.Now().Add(-time.Hour)
	h.tickets.Open(&model.TicketRecord{
		ChannelID:     "C_TICKET",
		OpenerID:      "U_OPENER",
		CategoryValue: "general-support",
		CategoryLabel: "General Support",
		CreatedAt:     opened,
	})
	assert.NoError(t, h.tickets.Claim("C_TICKET", "U_STAFF"))

	mockClient.EXPECT().AuthTest().Return(&slack.AuthTestResponse{UserID: "bot_id"}, nil).AnyTimes()
	mockClient.EXPECT().GetUserGroups().Return(staffGroups(), nil).AnyTimes()
	mockClient.EXPECT().GetUserGroupMembers("SCCR1").Return([]string{"U_STAFF"}, nil).AnyTimes()
	mockClient.EXPECT().GetUserGroupMembers(gomock.Any()).Return([]string{}, nil).AnyTimes()
	mockClient.EXPECT().GetUserInfo(gomock.Any()).Return(&slack.User{Name: "someone"}, nil).AnyTimes()

	page := &slack.GetConversationHistoryResponse{}
	page.Messages = []slack.Message{
		{Msg: slack.Msg{User: "U_OPENER", Text: "second", Timestamp: "1700000002.000000"}},
		{Msg: slack.Msg{User: "U_STAFF", Text: "first", Timestamp: "1700000001.000000"}},
	}
	mockClient.EXPECT().GetConversationHistory(gomock.Any()).Return(page, nil).Times(1)
	mockClient.EXPECT().GetConversationHistory(gomock.Any()).Return(&slack.GetConversationHistoryResponse{}, nil).Times(1)

	mockClient.EXPECT().UploadFileV2(gomock.Any()).DoAndReturn(
		func(params slack.UploadFileV2Parameters) (*slack.FileSummary, error) {
			assert.Equal(t, "C_LOG", params.Channel)
			assert.Contains(t, params.Filename, "transcript-C_TICKET")
			return &slack.FileSummary{ID: "F1"}, nil
		}).Times(1)
	mockClient.EXPECT().GetConversationInfo(gomock.Any()).Return(&slack.Channel{GroupConversation: slack.GroupConversation{Name: "ticket-opener-abc"}}, nil).AnyTimes()
	mockClient.EXPECT().PostMessage("C_LOG", gomock.Any()).Return("ok", "1.0", nil).Times(1)
	mockClient.EXPECT().PostEphemeral(gomock.Any(), gomock.Any(), gomock.Any()).Return("ok", nil).AnyTimes()
	mockClient.EXPECT().ArchiveConversation("C_TICKET").Return(nil).Times(1)

	assert.NoError(t, h.closeTicket("C_TICKET", "U_STAFF"))

	assert.Equal(t, 0, h.tickets.Len())
	if assert.Len(t, ds.ticketLogs, 1) {
		saved := ds.ticketLogs[0]
		assert.Equal(t, "C_TICKET", saved.ChannelID)
		assert.Equal(t, "ticket-opener-abc", saved.ChannelName)
		assert.Equal(t, "U_OPENER", saved.OpenerID)
		assert.Equal(t, "U_STAFF", saved.ClaimedBy)
		assert.Equal(t, "U_STAFF", saved.ClosedBy)
		assert.Equal(t, "General Support", saved.CategoryLabel)
	}
}

func TestHandler_approvalFlow(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := NewMockSlackAPI(ctrl)
	h := newHandlerWith(mockClient, &fakeDatastore{}, testConfig())

	mockClient.EXPECT().GetConversationInfo(gomock.Any()).Return(&slack.Channel{}, nil).AnyTimes()
	mockClient.EXPECT().GetUserGroups().Return(staffGroups(), nil).AnyTimes()
	mockClient.EXPECT().GetUserGroupMembers("SCCR1").Return([]string{"U_REQ", "U_BOSS"}, nil).AnyTimes()
	mockClient.EXPECT().GetUserGroupMembers(gomock.Any()).Return([]string{}, nil).AnyTimes()
	mockClient.EXPECT().PostEphemeral(gomock.Any(), gomock.Any(), gomock.Any()).Return("ok", nil).AnyTimes()

	mockClient.EXPECT().PostMessage("C_APPROVAL", gomock.Any(), gomock.Any()).Return("C_APPROVAL", "100.200", nil).Times(1)

	cmd := &slack.SlashCommand{
		Command:   "/requestmsg",
		Text:      "Server Restart | Restarting in 10 minutes. | Community Relations",
		ChannelID: "C_TARGET",
		UserID:    "U_REQ",
	}
	h.runRequestMsg(cmd)
	assert.Equal(t, 1, h.approvals.Len())

	// 承認するとメニューが消え、対象チャンネルへ配信される
	mockClient.EXPECT().UpdateMessage("C_APPROVAL", "100.200", gomock.Any(), gomock.Any()).Return("", "", "", nil).Times(1)
	mockClient.EXPECT().PostMessage("C_TARGET", gomock.Any()).Return("C_TARGET", "1.0", nil).Times(2)
	mockClient.EXPECT().GetUserInfo(gomock.Any()).Return(&slack.User{Name: "boss"}, nil).AnyTimes()

	assert.NoError(t, h.decideApproval("100.200", "U_BOSS", "approve"))
	assert.Equal(t, 0, h.approvals.Len())

	// 二回目の決裁は expired 扱い
	assert.NoError(t, h.decideApproval("100.200", "U_BOSS", "approve"))
}

func TestHandler_approvalDecline(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := NewMockSlackAPI(ctrl)
	h := newHandlerWith(mockClient, &fakeDatastore{}, testConfig())

	h.approvals.Put("1.0", &model.ApprovalRequest{
		TargetChannelID: "C_TARGET",
		Payload: model.BroadcastPayload{
			Heading:      "Server Restart",
			Body:         "Restarting soon.",
			TeamRoleName: "Community Relations",
			RequesterID:  "U_REQ",
		},
	})

	mockClient.EXPECT().GetUserGroups().Return(staffGroups(), nil).AnyTimes()
	mockClient.EXPECT().GetUserGroupMembers("SCCR1").Return([]string{"U_BOSS"}, nil).AnyTimes()
	mockClient.EXPECT().GetUserGroupMembers(gomock.Any()).Return([]string{}, nil).AnyTimes()
	mockClient.EXPECT().GetUserInfo("U_BOSS").Return(&slack.User{Name: "boss"}, nil).AnyTimes()
	mockClient.EXPECT().UpdateMessage(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("", "", "", nil).Times(1)
	mockClient.EXPECT().PostEphemeral(gomock.Any(), gomock.Any(), gomock.Any()).Return("ok", nil).AnyTimes()

	// 却下は申請者へ DM
	dm := &slack.Channel{}
	dm.ID = "D_REQ"
	mockClient.EXPECT().OpenConversation(gomock.Any()).Return(dm, false, false, nil).Times(1)
	mockClient.EXPECT().PostMessage("D_REQ", gomock.Any()).Return("D_REQ", "1.0", nil).Times(1)

	assert.NoError(t, h.decideApproval("1.0", "U_BOSS", "decline"))
	assert.Equal(t, 0, h.approvals.Len())
}

func TestHandler_sessionVote(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := NewMockSlackAPI(ctrl)
	h := newHandlerWith(mockClient, &fakeDatastore{}, testConfig())

	mockClient.EXPECT().GetConversationInfo(gomock.Any()).Return(&slack.Channel{}, nil).AnyTimes()
	mockClient.EXPECT().PostMessage("C_SESSION", gomock.Any(), gomock.Any()).Return("C_SESSION", "50.0", nil).Times(1)
	mockClient.EXPECT().PostEphemeral(gomock.Any(), gomock.Any(), gomock.Any()).Return("ok", nil).AnyTimes()

	h.runSession(&slack.SlashCommand{
		Command:   "/session",
		Text:      "vote Start a session tonight?",
		ChannelID: "C_CMD",
		UserID:    "U_HOST",
	})

	mockClient.EXPECT().UpdateMessage("C_SESSION", "50.0", gomock.Any(), gomock.Any()).Return("", "", "", nil).Times(3)

	assert.NoError(t, h.castVote("C_SESSION", "50.0", "U1", "yes"))
	assert.NoError(t, h.castVote("C_SESSION", "50.0", "U2", "no"))
	assert.NoError(t, h.castVote("C_SESSION", "50.0", "U1", "no"))

	poll, err := h.sessions.Get("50.0")
	assert.NoError(t, err)
	assert.Equal(t, 0, poll.Tally[model.VoteYes])
	assert.Equal(t, 2, poll.Tally[model.VoteNo])
	assert.Equal(t, 2, poll.Total())
}

func TestHandler_castVote_expiredNoticeFollowsInteractionChannel(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := NewMockSlackAPI(ctrl)
	h := newHandlerWith(mockClient, &fakeDatastore{}, testConfig())

	// 期限切れの通知は投票の来たチャンネルへ返す
	mockClient.EXPECT().PostEphemeral("C_OTHER", "U1", gomock.Any()).Return("ok", nil).Times(1)

	assert.NoError(t, h.castVote("C_OTHER", "99.9", "U1", "yes"))
}

func TestHandler_sessionAnnouncement(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := NewMockSlackAPI(ctrl)
	h := newHandlerWith(mockClient, &fakeDatastore{}, testConfig())

	mockClient.EXPECT().GetConversationInfo(gomock.Any()).Return(&slack.Channel{}, nil).AnyTimes()
	mockClient.EXPECT().PostMessage("C_SESSION", gomock.Any()).Return("C_SESSION", "1.0", nil).Times(1)
	mockClient.EXPECT().PostEphemeral(gomock.Any(), gomock.Any(), gomock.Any()).Return("ok", nil).AnyTimes()

	h.runSession(&slack.SlashCommand{
		Command:   "/session",
		Text:      "start",
		ChannelID: "C_CMD",
		UserID:    "U_HOST",
	})
}

func TestHandler_runModeration(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := NewMockSlackAPI(ctrl)
	ds := &fakeDatastore{}
	h := newHandlerWith(mockClient, ds, testConfig())

	mockClient.EXPECT().AuthTest().Return(&slack.AuthTestResponse{UserID: "bot_id"}, nil).AnyTimes()
	mockClient.EXPECT().GetUserGroups().Return(staffGroups(), nil).AnyTimes()
	mockClient.EXPECT().GetUserGroupMembers("SCCR1").Return([]string{"U_MOD"}, nil).AnyTimes()
	mockClient.EXPECT().GetUserGroupMembers(gomock.Any()).Return([]string{}, nil).AnyTimes()
	mockClient.EXPECT().PostEphemeral(gomock.Any(), gomock.Any(), gomock.Any()).Return("ok", nil).AnyTimes()

	dm := &slack.Channel{}
	dm.ID = "D_TARGET"
	mockClient.EXPECT().OpenConversation(gomock.Any()).Return(dm, false, false, nil).Times(1)
	mockClient.EXPECT().PostMessage("D_TARGET", gomock.Any()).Return("D_TARGET", "1.0", nil).Times(1)
	mockClient.EXPECT().PostMessage("C_LOG", gomock.Any()).Return("C_LOG", "1.0", nil).Times(1)

	h.runModeration(&slack.SlashCommand{
		Command:   "/warn",
		Text:      "<@UTARGET|target> spamming the support channel",
		ChannelID: "C_CMD",
		UserID:    "U_MOD",
	})

	if assert.Len(t, ds.modActions, 1) {
		saved := ds.modActions[0]
		assert.Equal(t, "warn", saved.Action)
		assert.Equal(t, "UTARGET", saved.TargetID)
		assert.Equal(t, "U_MOD", saved.ModeratorID)
		assert.Equal(t, "spamming the support channel", saved.Reason)
	}
}

func TestHandler_runModeration_ban(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := NewMockSlackAPI(ctrl)
	ds := &fakeDatastore{}
	h := newHandlerWith(mockClient, ds, testConfig())

	mockClient.EXPECT().AuthTest().Return(&slack.AuthTestResponse{UserID: "bot_id"}, nil).AnyTimes()
	mockClient.EXPECT().GetUserGroups().Return(staffGroups(), nil).AnyTimes()
	mockClient.EXPECT().GetUserGroupMembers("SCCR1").Return([]string{"U_MOD"}, nil).AnyTimes()
	mockClient.EXPECT().GetUserGroupMembers(gomock.Any()).Return([]string{}, nil).AnyTimes()
	mockClient.EXPECT().PostEphemeral(gomock.Any(), gomock.Any(), gomock.Any()).Return("ok", nil).AnyTimes()

	// ban はチャンネルからの除外を伴う
	mockClient.EXPECT().KickUserFromConversation("C_CMD", "UTARGET").Return(nil).Times(1)
	dm := &slack.Channel{}
	dm.ID = "D_TARGET"
	mockClient.EXPECT().OpenConversation(gomock.Any()).Return(dm, false, false, nil).Times(1)
	mockClient.EXPECT().PostMessage("D_TARGET", gomock.Any()).Return("D_TARGET", "1.0", nil).Times(1)
	mockClient.EXPECT().PostMessage("C_LOG", gomock.Any()).Return("C_LOG", "1.0", nil).Times(1)

	h.runModeration(&slack.SlashCommand{
		Command:   "/ban",
		Text:      "<@UTARGET> repeated harassment",
		ChannelID: "C_CMD",
		UserID:    "U_MOD",
	})

	if assert.Len(t, ds.modActions, 1) {
		saved := ds.modActions[0]
		assert.Equal(t, "ban", saved.Action)
		assert.Equal(t, "UTARGET", saved.TargetID)
		assert.Equal(t, "repeated harassment", saved.Reason)
	}
}

func TestHandler_runModeration_timeoutValidatesDurationFirst(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := NewMockSlackAPI(ctrl)
	ds := &fakeDatastore{}
	h := newHandlerWith(mockClient, ds, testConfig())

	mockClient.EXPECT().GetUserGroups().Return(staffGroups(), nil).AnyTimes()
	mockClient.EXPECT().GetUserGroupMembers("SCCR1").Return([]string{"U_MOD"}, nil).AnyTimes()
	mockClient.EXPECT().GetUserGroupMembers(gomock.Any()).Return([]string{}, nil).AnyTimes()
	mockClient.EXPECT().PostEphemeral(gomock.Any(), gomock.Any(), gomock.Any()).Return("ok", nil).Times(1)

	// 不正な期間では通知もログも記録も走らない
	h.runModeration(&slack.SlashCommand{
		Command:   "/timeout",
		Text:      "<@UTARGET> forever being rude",
		ChannelID: "C_CMD",
		UserID:    "U_MOD",
	})

	assert.Empty(t, ds.modActions)
}

func TestHandler_runModeration_nonApprover(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := NewMockSlackAPI(ctrl)
	ds := &fakeDatastore{}
	h := newHandlerWith(mockClient, ds, testConfig())

	mockClient.EXPECT().GetUserGroups().Return(staffGroups(), nil).AnyTimes()
	mockClient.EXPECT().GetUserGroupMembers(gomock.Any()).Return([]string{}, nil).AnyTimes()
	mockClient.EXPECT().PostEphemeral(gomock.Any(), gomock.Any(), gomock.Any()).Return("ok", nil).Times(1)

	h.runModeration(&slack.SlashCommand{
		Command:   "/kick",
		Text:      "<@UTARGET> nope",
		ChannelID: "C_CMD",
		UserID:    "U_RANDOM",
	})

	assert.Empty(t, ds.modActions)
}

func TestHandler_runShift(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := NewMockSlackAPI(ctrl)
	h := newHandlerWith(mockClient, &fakeDatastore{}, testConfig())

	mockClient.EXPECT().GetUserGroups().Return(staffGroups(), nil).AnyTimes()
	mockClient.EXPECT().GetUserGroupMembers("SCCR1").Return([]string{"U_STAFF"}, nil).AnyTimes()
	mockClient.EXPECT().GetUserGroupMembers(gomock.Any()).Return([]string{}, nil).AnyTimes()
	mockClient.EXPECT().PostEphemeral(gomock.Any(), gomock.Any(), gomock.Any()).Return("ok", nil).AnyTimes()
	// 開始と終了がログに流れる
	mockClient.EXPECT().PostMessage("C_LOG", gomock.Any()).Return("C_LOG", "1.0", nil).Times(2)

	h.runShift(&slack.SlashCommand{Command: "/shift-start", ChannelID: "C_CMD", UserID: "U_STAFF"})
	assert.Len(t, h.shifts.Active(), 1)

	// 二重開始は状態を変えない
	h.runShift(&slack.SlashCommand{Command: "/shift-start", ChannelID: "C_CMD", UserID: "U_STAFF"})
	assert.Len(t, h.shifts.Active(), 1)

	h.runShift(&slack.SlashCommand{Command: "/shift-status", ChannelID: "C_CMD", UserID: "U_STAFF"})

	h.runShift(&slack.SlashCommand{Command: "/shift-end", ChannelID: "C_CMD", UserID: "U_STAFF"})
	assert.Empty(t, h.shifts.Active())
}

func TestHandler_runShift_nonStaff(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := NewMockSlackAPI(ctrl)
	h := newHandlerWith(mockClient, &fakeDatastore{}, testConfig())

	mockClient.EXPECT().GetUserGroups().Return(staffGroups(), nil).AnyTimes()
	mockClient.EXPECT().GetUserGroupMembers(gomock.Any()).Return([]string{}, nil).AnyTimes()
	mockClient.EXPECT().PostEphemeral(gomock.Any(), gomock.Any(), gomock.Any()).Return("ok", nil).Times(1)

	h.runShift(&slack.SlashCommand{Command: "/shift-start", ChannelID: "C_CMD", UserID: "U_RANDOM"})
	assert.Empty(t, h.shifts.Active())
}

func TestFmtShiftDuration(t *testing.T) {
	assert.Equal(t, "0m", fmtShiftDuration(0))
	assert.Equal(t, "25m", fmtShiftDuration(25*time.Minute))
	assert.Equal(t, "3h 25m", fmtShiftDuration(3*time.Hour+25*time.Minute))
	assert.Equal(t, "0m", fmtShiftDuration(-time.Minute))
}

// 実クライアントが SlackAPI を満たすことをテストサーバで確認する
func TestSlackAPI_realClient(t *testing.T) {
	ts := slacktest.NewTestServer()
	ts.Start()
	defer ts.Stop()

	var client infra.SlackAPI = slack.New("xoxb-test", slack.OptionAPIURL(ts.GetAPIURL()))

	resp, err := client.AuthTest()
	assert.NoError(t, err)
	assert.NotEmpty(t, resp.UserID)

	_, _, err = client.PostMessage("C_GENERAL", slack.MsgOptionText("hello", false))
	assert.NoError(t, err)
}

func TestHandler_runTicketHistory(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := NewMockSlackAPI(ctrl)
	ds := &fakeDatastore{}
	ds.ticketLogs = []model.TicketLog{{
		ChannelName:   "ticket-opener-abc",
		OpenerID:      "U_OPENER",
		ClaimedBy:     "U_STAFF",
		CategoryLabel: "General Support",
		ClosedAt:      time.Now(),
	}}
	h := newHandlerWith(mockClient, ds, testConfig())
	h.botID = "bot_id"

	mockClient.EXPECT().PostEphemeral("C_CMD", "U_ASKER", gomock.Any()).Return("ok", nil).Times(1)

	h.runTicketHistory(&slack.SlashCommand{
		Command:   "/tickets",
		ChannelID: "C_CMD",
		UserID:    "U_ASKER",
	})
}
