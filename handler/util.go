package handler

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var durationPattern = regexp.MustCompile(`(?i)^(\d+)\s*([smhd])$`)

// parseDuration accepts the short moderation forms like "30s", "15m",
// "2h", "1d". time.ParseDuration cannot serve here because it rejects
// the day unit.
func parseDuration(s string) (time.Duration, error) {
	m := durationPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	var unit time.Duration
	switch strings.ToLower(m[2]) {
	case "s":
		unit = time.Second
	case "m":
		unit = time.Minute
	case "h":
		unit = time.Hour
	case "d":
		unit = 24 * time.Hour
	}
	return time.Duration(n) * unit, nil
}

// shortID returns a 5-character suffix for ticket channel names.
func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:5]
}

var channelNamePattern = regexp.MustCompile(`[^a-z0-9]`)

// sanitizeChannelName strips a username down to something Slack accepts
// in a channel name.
func sanitizeChannelName(name string) string {
	s := channelNamePattern.ReplaceAllString(strings.ToLower(name), "")
	if len(s) > 12 {
		s = s[:12]
	}
	if s == "" {
		s = "user"
	}
	return s
}

func timeNow() time.Time {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		loc = time.UTC
	}
	return time.Now().In(loc)
}

func fmtTime(t time.Time) string {
	return t.Format("2006-01-02 15:04:05 MST")
}

// jsonTimestamp renders a time as the json.Number Slack attachments use.
func jsonTimestamp(t time.Time) json.Number {
	return json.Number(strconv.FormatInt(t.Unix(), 10))
}

var userMentionPattern = regexp.MustCompile(`<@(U[A-Z0-9]+)(?:\|[^>]*)?>`)

var channelMentionPattern = regexp.MustCompile(`<#(C[A-Z0-9]+)(?:\|[^>]*)?>`)

// parseChannelMention extracts the channel ID from an escaped mention
// like <#C123|general>. Returns "" when the token is not a mention.
func parseChannelMention(token string) string {
	m := channelMentionPattern.FindStringSubmatch(strings.TrimSpace(token))
	if m == nil {
		return ""
	}
	return m[1]
}

// parseUserMention extracts the user ID from an escaped slash-command
// mention like <@U123ABC|name>. Returns "" when the token is not a
// mention.
func parseUserMention(token string) string {
	m := userMentionPattern.FindStringSubmatch(strings.TrimSpace(token))
	if m == nil {
		return ""
	}
	return m[1]
}

// parseSlackTimestamp converts a Slack message timestamp like
// "1712345678.000100" into a time.Time.
func parseSlackTimestamp(ts string) (time.Time, error) {
	sec, frac, _ := strings.Cut(ts, ".")
	s, err := strconv.ParseInt(sec, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid slack timestamp %q", ts)
	}
	var micro int64
	if frac != "" {
		micro, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid slack timestamp %q", ts)
		}
	}
	return time.Unix(s, micro*int64(time.Microsecond)), nil
}

// lessSlackTS compares two Slack timestamps numerically.
func lessSlackTS(a, b string) bool {
	asec, afrac, _ := strings.Cut(a, ".")
	bsec, bfrac, _ := strings.Cut(b, ".")
	ai, _ := strconv.ParseInt(asec, 10, 64)
	bi, _ := strconv.ParseInt(bsec, 10, 64)
	if ai != bi {
		return ai < bi
	}
	af, _ := strconv.ParseInt(afrac, 10, 64)
	bf, _ := strconv.ParseInt(bfrac, 10, 64)
	return af < bf
}
