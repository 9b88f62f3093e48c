package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snd_media/server/relay/domain"
)

const (
	testToken   = "123456:TEST-TOKEN"
	okVideoBody = `{"ok":true,"result":{"message_id":42,"date":1760000000,"chat":{"id":-1001,"type":"channel"},` +
		`"video":{"file_id":"F1","file_unique_id":"U1","duration":120,"width":1920,"height":1080}}}`
	chatNotFoundBody = `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`
)

type capturedUpload struct {
	mu        sync.Mutex
	path      string
	chatID    string
	caption   string
	streaming string
	filename  string
	videoType string
	body      []byte
}

func telegramStub(t *testing.T, status int, body string) (*httptest.Server, *capturedUpload, *int32) {
	t.Helper()
	var calls int32
	captured := &capturedUpload{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		captured.mu.Lock()
		defer captured.mu.Unlock()
		captured.path = r.URL.Path
		if err := r.ParseMultipartForm(8 << 20); err == nil {
			captured.chatID = r.FormValue("chat_id")
			captured.caption = r.FormValue("caption")
			captured.streaming = r.FormValue("supports_streaming")
			if f, hdr, err := r.FormFile("video"); err == nil {
				captured.filename = hdr.Filename
				captured.videoType = hdr.Header.Get("Content-Type")
				captured.body, _ = io.ReadAll(f)
				_ = f.Close()
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)
	return server, captured, &calls
}

func newTestService(endpoint string, events EventPublisher, metrics *Metrics) *RelayService {
	svc := NewRelayService(Config{
		BotToken:    testToken,
		APIEndpoint: endpoint + "/bot%s/%s",
		Timeout:     2 * time.Second,
	}, events, metrics)
	svc.now = func() time.Time { return time.UnixMilli(1760000000123) }
	return svc
}

func sampleRequest() domain.UploadRequest {
	return domain.UploadRequest{
		Video:       []byte("fake-mp4-bytes"),
		FileSize:    14,
		ContentType: "video/mp4",
		Title:       "Test Movie",
		UploadedBy:  "alice",
		Quality:     domain.DefaultQuality,
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	keys   []string
	events []any
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, key string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	p.events = append(p.events, payload)
	return p.err
}

func TestRelaySuccess(t *testing.T) {
	server, captured, calls := telegramStub(t, http.StatusOK, okVideoBody)
	events := &recordingPublisher{}
	metrics := NewMetrics(prometheus.NewRegistry())
	svc := newTestService(server.URL, events, metrics)

	result, err := svc.Relay(context.Background(), sampleRequest())
	require.NoError(t, err)
	captured.mu.Lock()
	defer captured.mu.Unlock()

	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	assert.Equal(t, "/bot"+testToken+"/sendVideo", captured.path)
	assert.Equal(t, DefaultChatID, captured.chatID)
	assert.Equal(t, "true", captured.streaming)
	assert.Equal(t, "📹 Test Movie\n👤 Uploaded by: alice\n📊 Quality: 1080p", captured.caption)
	assert.Equal(t, "Test_Movie_1080p_1760000000123.mp4", captured.filename)
	assert.Equal(t, "video/mp4", captured.videoType)
	assert.Equal(t, []byte("fake-mp4-bytes"), captured.body)

	assert.Equal(t, "F1", result.FileID)
	assert.Equal(t, "U1", result.FileUniqueID)
	assert.Equal(t, 120, result.Duration)
	assert.Equal(t, 1920, result.Width)
	assert.Equal(t, 1080, result.Height)
	assert.Equal(t, 42, result.MessageID)
	assert.Equal(t, "https://t.me/soundora_storage/42", result.VideoURL)
	assert.Equal(t, time.UnixMilli(1760000000123).UTC(), result.UploadedAt)

	require.Len(t, events.keys, 1)
	assert.Equal(t, EventVideoUploaded, events.keys[0])
	event, ok := events.events[0].(domain.UploadEvent)
	require.True(t, ok)
	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "F1", event.Video.FileID)

	assert.Equal(t, float64(14), testutil.ToFloat64(metrics.relayedBytes))
}

func TestRelayNumericChatID(t *testing.T) {
	server, captured, _ := telegramStub(t, http.StatusOK, okVideoBody)
	svc := NewRelayService(Config{
		BotToken:    testToken,
		ChatID:      "-1001234567890",
		APIEndpoint: server.URL + "/bot%s/%s",
	}, nil, nil)

	result, err := svc.Relay(context.Background(), sampleRequest())
	require.NoError(t, err)
	captured.mu.Lock()
	defer captured.mu.Unlock()
	assert.Equal(t, "-1001234567890", captured.chatID)
	assert.Equal(t, "https://t.me/c/1234567890/42", result.VideoURL)
}

func TestRelayUpstreamRejection(t *testing.T) {
	server, _, calls := telegramStub(t, http.StatusBadRequest, chatNotFoundBody)
	svc := newTestService(server.URL, nil, nil)

	_, err := svc.Relay(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))

	var relayErr *domain.RelayError
	require.True(t, errors.As(err, &relayErr))
	assert.Equal(t, domain.KindUpstreamRejection, relayErr.Kind)
	assert.Equal(t, "Bad Request: chat not found", relayErr.Message)
	assert.Contains(t, relayErr.Payload, `"ok":false`)
	assert.Contains(t, relayErr.Payload, "Bad Request: chat not found")
}

func TestRelayOKWithoutVideoIsTransportError(t *testing.T) {
	server, _, _ := telegramStub(t, http.StatusOK, `{"ok":true,"result":{"message_id":7,"document":{"file_id":"D1"}}}`)
	svc := newTestService(server.URL, nil, nil)

	_, err := svc.Relay(context.Background(), sampleRequest())
	assert.Equal(t, domain.KindTransport, domain.KindOf(err))
}

func TestRelayNetworkErrorIsTransportErrorWithoutToken(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	endpoint := server.URL
	server.Close()

	events := &recordingPublisher{}
	svc := newTestService(endpoint, events, nil)

	_, err := svc.Relay(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.Equal(t, domain.KindTransport, domain.KindOf(err))
	assert.NotContains(t, err.Error(), testToken)
	assert.Empty(t, events.keys)
}

func TestRelayTimeoutIsSingleAttempt(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(server.Close)
	t.Cleanup(func() { close(release) })

	svc := NewRelayService(Config{
		BotToken:    testToken,
		APIEndpoint: server.URL + "/bot%s/%s",
		Timeout:     100 * time.Millisecond,
	}, nil, nil)

	_, err := svc.Relay(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.Equal(t, domain.KindTransport, domain.KindOf(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRelayWithoutTokenNeverCallsUpstream(t *testing.T) {
	_, _, calls := telegramStub(t, http.StatusOK, okVideoBody)
	svc := NewRelayService(Config{}, nil, nil)

	assert.False(t, svc.Configured())
	_, err := svc.Relay(context.Background(), sampleRequest())
	assert.Equal(t, domain.KindConfiguration, domain.KindOf(err))
	assert.Equal(t, errMissingToken, err.Error())
	assert.Zero(t, atomic.LoadInt32(calls))
}

func TestRelayPublishFailureDoesNotFailUpload(t *testing.T) {
	server, _, _ := telegramStub(t, http.StatusOK, okVideoBody)
	events := &recordingPublisher{err: errors.New("broker down")}
	svc := newTestService(server.URL, events, nil)

	result, err := svc.Relay(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, "F1", result.FileID)
	assert.Len(t, events.keys, 1)
}

func TestRelayIsNotIdempotent(t *testing.T) {
	server, _, calls := telegramStub(t, http.StatusOK, okVideoBody)
	svc := newTestService(server.URL, nil, nil)

	for i := 0; i < 2; i++ {
		_, err := svc.Relay(context.Background(), sampleRequest())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestRelayCancelledContextSkipsUpstream(t *testing.T) {
	_, _, calls := telegramStub(t, http.StatusOK, okVideoBody)
	svc := newTestService("http://127.0.0.1:1", nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Relay(ctx, sampleRequest())
	assert.Equal(t, domain.KindTransport, domain.KindOf(err))
	assert.True(t, strings.Contains(err.Error(), "client went away"))
	assert.Zero(t, atomic.LoadInt32(calls))
}

func TestRelayForwardsUploaderContentType(t *testing.T) {
	server, captured, _ := telegramStub(t, http.StatusOK, okVideoBody)
	svc := newTestService(server.URL, nil, nil)
	req := sampleRequest()
	req.ContentType = "video/webm"

	_, err := svc.Relay(context.Background(), req)
	require.NoError(t, err)
	captured.mu.Lock()
	defer captured.mu.Unlock()
	assert.Equal(t, "video/webm", captured.videoType)
	assert.Equal(t, []byte("fake-mp4-bytes"), captured.body)
}

func TestRelayRejectionKeepsUpstreamFieldsVerbatim(t *testing.T) {
	body := `{"ok":false,"error_code":429,"description":"Too Many Requests: retry after 7",` +
		`"parameters":{"retry_after":7},"extra":{"trace":"abc"}}`
	server, _, _ := telegramStub(t, http.StatusTooManyRequests, body)
	svc := newTestService(server.URL, nil, nil)

	_, err := svc.Relay(context.Background(), sampleRequest())

	var relayErr *domain.RelayError
	require.True(t, errors.As(err, &relayErr))
	assert.Equal(t, domain.KindUpstreamRejection, relayErr.Kind)
	assert.Equal(t, "Too Many Requests: retry after 7", relayErr.Message)
	assert.Equal(t, body, relayErr.Payload)
}

func TestRelayNonJSONErrorPageIsRejection(t *testing.T) {
	server, _, _ := telegramStub(t, http.StatusBadGateway, "<html>bad gateway</html>")
	svc := newTestService(server.URL, nil, nil)

	_, err := svc.Relay(context.Background(), sampleRequest())

	var relayErr *domain.RelayError
	require.True(t, errors.As(err, &relayErr))
	assert.Equal(t, domain.KindUpstreamRejection, relayErr.Kind)
	assert.Equal(t, "<html>bad gateway</html>", relayErr.Payload)
}

func TestRelayGarbledSuccessIsTransportError(t *testing.T) {
	server, _, _ := telegramStub(t, http.StatusOK, "not json")
	svc := newTestService(server.URL, nil, nil)

	_, err := svc.Relay(context.Background(), sampleRequest())
	assert.Equal(t, domain.KindTransport, domain.KindOf(err))
}
