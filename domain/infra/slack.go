package infra

import "github.com/slack-go/slack"

// SlackAPI is the subset of the Slack client the bot calls. Kept as an
// interface so handlers can be exercised against a gomock double.
type SlackAPI interface {
	AuthTest() (*slack.AuthTestResponse, error)
	PostMessage(channelID string, options ...slack.MsgOption) (string, string, error)
	PostEphemeral(channelID, userID string, options ...slack.MsgOption) (string, error)
	UpdateMessage(channelID, ts string, options ...slack.MsgOption) (string, string, string, error)
	CreateConversation(params slack.CreateConversationParams) (*slack.Channel, error)
	ArchiveConversation(channelID string) error
	InviteUsersToConversation(channelID string, users ...string) (*slack.Channel, error)
	KickUserFromConversation(channelID string, user string) error
	GetConversationInfo(input *slack.GetConversationInfoInput) (*slack.Channel, error)
	GetConversationHistory(params *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error)
	OpenConversation(params *slack.OpenConversationParameters) (*slack.Channel, bool, bool, error)
	UploadFileV2(params slack.UploadFileV2Parameters) (*slack.FileSummary, error)
	GetUserInfo(userID string) (*slack.User, error)
	GetUserGroups(options ...slack.GetUserGroupsOption) ([]slack.UserGroup, error)
	GetUserGroupMembers(userGroup string) ([]string, error)
}
