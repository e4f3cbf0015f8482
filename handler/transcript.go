package handler

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/slack-go/slack"
)

const transcriptPageSize = 100

// historyFetcher is the slice of SlackAPI the transcript builder needs.
type historyFetcher interface {
	GetConversationHistory(params *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error)
}

// buildTranscript renders a channel's full message history as one line
// per message, strictly chronological. Pages are fetched newest-first
// (each page older than the last-seen timestamp) until an empty page,
// sorted ascending within the page, and assembled in reverse page order
// so the joined output is oldest-to-newest regardless of fetch order.
// Rebuilding from an unchanged history yields byte-identical output.
func buildTranscript(client historyFetcher, resolveName func(userID string) string, channelID string) (string, error) {
	var pages [][]string
	latest := ""
	for {
		resp, err := client.GetConversationHistory(&slack.GetConversationHistoryParameters{
			ChannelID: channelID,
			Limit:     transcriptPageSize,
			Latest:    latest,
			Inclusive: false,
		})
		if err != nil {
			return "", fmt.Errorf("GetConversationHistory failed: %w", err)
		}
		if len(resp.Messages) == 0 {
			break
		}

		msgs := make([]slack.Message, len(resp.Messages))
		copy(msgs, resp.Messages)
		sort.SliceStable(msgs, func(i, j int) bool {
			return lessSlackTS(msgs[i].Timestamp, msgs[j].Timestamp)
		})

		lines := make([]string, 0, len(msgs))
		for i := range msgs {
			lines = append(lines, transcriptLine(&msgs[i], resolveName))
		}
		pages = append(pages, lines)
		latest = msgs[0].Timestamp
	}

	// pages arrived newest-first
	var out []string
	for i := len(pages) - 1; i >= 0; i-- {
		out = append(out, pages[i]...)
	}
	return strings.Join(out, "\n"), nil
}

func transcriptLine(msg *slack.Message, resolveName func(userID string) string) string {
	t, err := parseSlackTimestamp(msg.Timestamp)
	var stamp string
	if err != nil {
		stamp = msg.Timestamp
	} else {
		stamp = t.UTC().Format(time.RFC3339)
	}

	author := msg.User
	if author == "" {
		author = msg.BotID
	}
	display := author
	if msg.User != "" && resolveName != nil {
		display = resolveName(msg.User)
	}

	line := fmt.Sprintf("[%s] %s (%s): %s", stamp, display, author, msg.Text)
	if len(msg.Files) > 0 {
		urls := make([]string, 0, len(msg.Files))
		for _, f := range msg.Files {
			urls = append(urls, f.URLPrivate)
		}
		line += fmt.Sprintf(" [attachments: %s]", strings.Join(urls, ", "))
	}
	return line
}
