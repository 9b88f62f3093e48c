package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// captionLimit is the Bot API limit on media captions.
const captionLimit = 1024

func sanitizeFilePart(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}
	return b.String()
}

// UploadFileName names the outbound file so repeated uploads of one title never collide.
func UploadFileName(title, quality string, now time.Time) string {
	return fmt.Sprintf("%s_%s_%d.mp4", sanitizeFilePart(title), sanitizeFilePart(quality), now.UnixMilli())
}

func Caption(title, uploadedBy, quality string) string {
	caption := fmt.Sprintf("📹 %s\n👤 Uploaded by: %s\n📊 Quality: %s", title, uploadedBy, quality)
	runes := []rune(caption)
	if len(runes) <= captionLimit {
		return caption
	}
	return string(runes[:captionLimit-1]) + "…"
}

// VideoURL derives a t.me link for the posted message. Public channels resolve by username;
// "-100…" ids map to the members-only /c/ form. Other numeric chats have no link.
func VideoURL(chatID string, messageID int) string {
	chatID = strings.TrimSpace(chatID)
	if chatID == "" || messageID <= 0 {
		return ""
	}
	msg := strconv.Itoa(messageID)
	if _, err := strconv.ParseInt(chatID, 10, 64); err == nil {
		if internal, ok := strings.CutPrefix(chatID, "-100"); ok && internal != "" {
			return "https://t.me/c/" + internal + "/" + msg
		}
		return ""
	}
	return "https://t.me/" + strings.TrimPrefix(chatID, "@") + "/" + msg
}

// normalizeChannel makes a bare channel name addressable by the Bot API.
func normalizeChannel(chatID string) string {
	chatID = strings.TrimSpace(chatID)
	if chatID == "" || strings.HasPrefix(chatID, "@") {
		return chatID
	}
	if _, err := strconv.ParseInt(chatID, 10, 64); err == nil {
		return chatID
	}
	return "@" + chatID
}
