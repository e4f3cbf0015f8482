package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"30s", 30 * time.Second, true},
		{"15m", 15 * time.Minute, true},
		{"2h", 2 * time.Hour, true},
		{"1d", 24 * time.Hour, true},
		{"10 m", 10 * time.Minute, true},
		{"2H", 2 * time.Hour, true},
		{"abc", 0, false},
		{"15", 0, false},
		{"m15", 0, false},
		{"", 0, false},
		{"-5m", 0, false},
	}
	for _, tt := range tests {
		got, err := parseDuration(tt.in)
		if !tt.ok {
			assert.Error(t, err, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestSanitizeChannelName(t *testing.T) {
	assert.Equal(t, "opener", sanitizeChannelName("Opener"))
	assert.Equal(t, "iamveryveryl", sanitizeChannelName("i.am_very-very.long.name"))
	assert.Equal(t, "user", sanitizeChannelName("@#$%"))
	assert.Equal(t, "abc123", sanitizeChannelName("Abc 123"))
}

func TestParseUserMention(t *testing.T) {
	assert.Equal(t, "U123ABC", parseUserMention("<@U123ABC>"))
	assert.Equal(t, "U123ABC", parseUserMention("<@U123ABC|somename>"))
	assert.Equal(t, "U123ABC", parseUserMention("  <@U123ABC>  "))
	assert.Empty(t, parseUserMention("U123ABC"))
	assert.Empty(t, parseUserMention("<#C123ABC>"))
}

func TestParseChannelMention(t *testing.T) {
	assert.Equal(t, "C123ABC", parseChannelMention("<#C123ABC>"))
	assert.Equal(t, "C123ABC", parseChannelMention("<#C123ABC|general>"))
	assert.Empty(t, parseChannelMention("C123ABC"))
	assert.Empty(t, parseChannelMention("<@U123ABC>"))
}

func TestParseSlackTimestamp(t *testing.T) {
	got, err := parseSlackTimestamp("1700000001.000100")
	assert.NoError(t, err)
	assert.Equal(t, int64(1700000001), got.Unix())

	_, err = parseSlackTimestamp("not-a-ts")
	assert.Error(t, err)
}

func TestLessSlackTS(t *testing.T) {
	assert.True(t, lessSlackTS("1700000001.000100", "1700000002.000100"))
	assert.True(t, lessSlackTS("1700000001.000100", "1700000001.000200"))
	assert.False(t, lessSlackTS("1700000002.000100", "1700000001.000100"))
	assert.False(t, lessSlackTS("1700000001.000100", "1700000001.000100"))
}

func TestShortID(t *testing.T) {
	a := shortID()
	b := shortID()
	assert.Len(t, a, 5)
	assert.NotEqual(t, a, b)
}
