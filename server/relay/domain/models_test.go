package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUploadedVideoCarriesPassthroughFields(t *testing.T) {
	req := UploadRequest{
		FileSize:   2048,
		Title:      "Test Movie",
		UploadedBy: "alice",
		Quality:    DefaultQuality,
	}
	res := RelayResult{
		FileID:       "F1",
		FileUniqueID: "U1",
		Duration:     120,
		Width:        1920,
		Height:       1080,
		MessageID:    42,
		VideoURL:     "https://t.me/soundora_storage/42",
		UploadedAt:   time.Date(2026, 10, 15, 9, 30, 0, 5_000_000, time.FixedZone("UZT", 5*3600)),
	}

	got := NewUploadedVideo(req, res)

	assert.Equal(t, SourceTelegram, got.Source)
	assert.Equal(t, int64(2048), got.FileSize)
	assert.Equal(t, "2026-10-15T04:30:00.005Z", got.UploadedAt)

	raw, err := json.Marshal(got)
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.NotContains(t, fields, "userRole")
	for _, key := range []string{"file_id", "file_unique_id", "uploadedBy", "fileSize", "uploadedAt", "videoUrl"} {
		assert.Contains(t, fields, key)
	}
}

func TestKindOfSeesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("relay: %w", NewSizeLimitError(errors.New("too big")))
	assert.Equal(t, KindSizeLimit, KindOf(err))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestRelayErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *RelayError
		want string
	}{
		{"message only", NewValidationError("No video file provided"), "No video file provided"},
		{"message and cause", NewTransportError("send video", errors.New("i/o timeout")), "send video: i/o timeout"},
		{"cause only", NewSizeLimitError(errors.New("http: request body too large")), "http: request body too large"},
		{"bare", &RelayError{Kind: KindConfiguration}, "configuration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}
