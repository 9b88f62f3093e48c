package domain

import "time"

const (
	DefaultQuality = "1080p"
	SourceTelegram = "telegram"

	// DefaultMaxUploadBytes matches the Bot API ceiling for files sent by bots (2000 MiB).
	DefaultMaxUploadBytes = int64(2000 * 1024 * 1024)
)

// UploadRequest is the validated form of one inbound upload. It lives only for the request.
type UploadRequest struct {
	Video       []byte
	FileSize    int64
	ContentType string
	Title       string
	UploadedBy  string
	UserRole    string
	Quality     string
}

// RelayResult is built from a successful upstream response only.
type RelayResult struct {
	FileID       string
	FileUniqueID string
	Duration     int
	Width        int
	Height       int
	MessageID    int
	VideoURL     string
	UploadedAt   time.Time
}

// UploadedVideo is the data block returned to the client on success.
type UploadedVideo struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	Title        string `json:"title"`
	Source       string `json:"source"`
	UploadedBy   string `json:"uploadedBy"`
	UserRole     string `json:"userRole,omitempty"`
	Quality      string `json:"quality"`
	Duration     int    `json:"duration"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	FileSize     int64  `json:"fileSize"`
	UploadedAt   string `json:"uploadedAt"`
	VideoURL     string `json:"videoUrl"`
}

// UploadedAtLayout is ISO-8601 in UTC with millisecond precision.
const UploadedAtLayout = "2006-01-02T15:04:05.000Z07:00"

func NewUploadedVideo(req UploadRequest, res RelayResult) UploadedVideo {
	return UploadedVideo{
		FileID:       res.FileID,
		FileUniqueID: res.FileUniqueID,
		Title:        req.Title,
		Source:       SourceTelegram,
		UploadedBy:   req.UploadedBy,
		UserRole:     req.UserRole,
		Quality:      req.Quality,
		Duration:     res.Duration,
		Width:        res.Width,
		Height:       res.Height,
		FileSize:     req.FileSize,
		UploadedAt:   res.UploadedAt.UTC().Format(UploadedAtLayout),
		VideoURL:     res.VideoURL,
	}
}

// UploadEvent is published after a successful relay.
type UploadEvent struct {
	EventID    string        `json:"event_id"`
	OccurredAt time.Time     `json:"occurred_at"`
	Video      UploadedVideo `json:"video"`
}
