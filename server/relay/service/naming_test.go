package service

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestUploadFileName(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	tests := []struct {
		name    string
		title   string
		quality string
		want    string
	}{
		{"spaces", "Test Movie", "1080p", "Test_Movie_1080p_1700000000000.mp4"},
		{"punctuation", "Jin, Tilak tila!", "720p", "Jin__Tilak_tila__720p_1700000000000.mp4"},
		{"cyrillic", "Кино", "4K", "_____4K_1700000000000.mp4"},
		{"path in quality", "A", "../hd", "A____hd_1700000000000.mp4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UploadFileName(tt.title, tt.quality, now))
		})
	}
}

func TestCaptionTruncatesToLimit(t *testing.T) {
	long := strings.Repeat("я", 2000)
	got := Caption(long, "alice", "1080p")

	assert.Equal(t, captionLimit, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "…"))
	assert.True(t, strings.HasPrefix(got, "📹 я"))
}

func TestVideoURL(t *testing.T) {
	tests := []struct {
		name   string
		chatID string
		msgID  int
		want   string
	}{
		{"public channel", "@soundora_storage", 42, "https://t.me/soundora_storage/42"},
		{"bare username", "soundora_storage", 42, "https://t.me/soundora_storage/42"},
		{"private channel", "-1001234567890", 7, "https://t.me/c/1234567890/7"},
		{"private chat", "987654", 7, ""},
		{"no message", "@soundora_storage", 0, ""},
		{"empty chat", "", 3, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VideoURL(tt.chatID, tt.msgID))
		})
	}
}

func TestNormalizeChannel(t *testing.T) {
	assert.Equal(t, "@soundora_storage", normalizeChannel(" soundora_storage "))
	assert.Equal(t, "@soundora_storage", normalizeChannel("@soundora_storage"))
	assert.Equal(t, "-100123", normalizeChannel("-100123"))
	assert.Equal(t, "", normalizeChannel(""))
}
