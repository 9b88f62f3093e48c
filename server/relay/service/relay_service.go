package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	commonlog "snd_media/server/common/log"
	"snd_media/server/relay/domain"
)

const (
	DefaultChatID        = "@soundora_storage"
	DefaultUploadTimeout = 10 * time.Minute

	errMissingToken = "TELEGRAM_BOT_TOKEN is not configured"
	publishTimeout  = 3 * time.Second
)

type Config struct {
	BotToken    string
	ChatID      string
	APIEndpoint string
	// Timeout bounds the whole sendVideo exchange, body upload included.
	Timeout time.Duration
}

// RelayService forwards validated uploads to the Bot API sendVideo method, one attempt each.
type RelayService struct {
	cfg     Config
	bot     *tgbotapi.BotAPI
	events  EventPublisher
	metrics *Metrics
	now     func() time.Time
}

func NewRelayService(cfg Config, events EventPublisher, metrics *Metrics) *RelayService {
	cfg.BotToken = strings.TrimSpace(cfg.BotToken)
	cfg.ChatID = normalizeChannel(cfg.ChatID)
	if cfg.ChatID == "" {
		cfg.ChatID = DefaultChatID
	}
	if cfg.APIEndpoint == "" {
		cfg.APIEndpoint = tgbotapi.APIEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultUploadTimeout
	}

	s := &RelayService{cfg: cfg, events: events, metrics: metrics, now: time.Now}
	if cfg.BotToken != "" {
		// Built directly rather than via NewBotAPI, which calls getMe over the network.
		s.bot = &tgbotapi.BotAPI{
			Token:  cfg.BotToken,
			Buffer: 100,
			Client: &http.Client{Timeout: cfg.Timeout},
		}
		s.bot.SetAPIEndpoint(cfg.APIEndpoint)
	}
	return s
}

func (s *RelayService) ChatID() string {
	return s.cfg.ChatID
}

func (s *RelayService) Configured() bool {
	return s.bot != nil
}

func (s *RelayService) Relay(ctx context.Context, req domain.UploadRequest) (domain.RelayResult, error) {
	if s.bot == nil {
		return domain.RelayResult{}, domain.NewConfigurationError(errMissingToken)
	}
	if err := ctx.Err(); err != nil {
		return domain.RelayResult{}, domain.NewTransportError("client went away before relay", err)
	}

	video := tgbotapi.NewVideo(0, tgbotapi.FileBytes{
		Name:  UploadFileName(req.Title, req.Quality, s.now()),
		Bytes: req.Video,
	})
	if id, err := strconv.ParseInt(s.cfg.ChatID, 10, 64); err == nil {
		video.ChatID = id
	} else {
		video.ChannelUsername = s.cfg.ChatID
	}
	video.Caption = Caption(req.Title, req.UploadedBy, req.Quality)
	video.SupportsStreaming = true

	commonlog.Infof("uploading %q (%s, %s) to telegram chat %s", req.Title, req.ContentType, humanize.IBytes(uint64(req.FileSize)), s.cfg.ChatID)
	started := time.Now()
	reply, err := s.sendVideo(ctx, video, req.ContentType)
	s.metrics.observeUpstream(time.Since(started), err == nil && reply.resp.Ok)
	if err != nil {
		return domain.RelayResult{}, domain.NewTransportError("send video to telegram", s.redact(err))
	}
	if !reply.resp.Ok {
		description := reply.resp.Description
		if description == "" {
			description = "telegram response not ok"
		}
		return domain.RelayResult{}, domain.NewUpstreamRejection(description, reply.payload())
	}

	result, err := s.resultFrom(reply)
	if err != nil {
		return domain.RelayResult{}, err
	}
	s.metrics.addRelayedBytes(req.FileSize)
	commonlog.Infof("upload of %q stored as file_id=%s message_id=%d", req.Title, result.FileID, result.MessageID)

	s.publishUploaded(ctx, req, result)
	return result, nil
}

func (s *RelayService) resultFrom(reply upstreamReply) (domain.RelayResult, error) {
	var msg tgbotapi.Message
	if err := json.Unmarshal(reply.resp.Result, &msg); err != nil {
		return domain.RelayResult{}, domain.NewTransportError("decode telegram result", err)
	}
	if msg.Video == nil {
		return domain.RelayResult{}, domain.NewTransportError("telegram result has no video", errors.New(reply.payload()))
	}
	return domain.RelayResult{
		FileID:       msg.Video.FileID,
		FileUniqueID: msg.Video.FileUniqueID,
		Duration:     msg.Video.Duration,
		Width:        msg.Video.Width,
		Height:       msg.Video.Height,
		MessageID:    msg.MessageID,
		VideoURL:     VideoURL(s.cfg.ChatID, msg.MessageID),
		UploadedAt:   s.now().UTC(),
	}, nil
}

func (s *RelayService) publishUploaded(ctx context.Context, req domain.UploadRequest, result domain.RelayResult) {
	if s.events == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	event := domain.UploadEvent{
		EventID:    uuid.NewString(),
		OccurredAt: result.UploadedAt,
		Video:      domain.NewUploadedVideo(req, result),
	}
	if err := s.events.Publish(pubCtx, EventVideoUploaded, event); err != nil {
		commonlog.Warnf("publish %s for file_id=%s: %v", EventVideoUploaded, result.FileID, err)
	}
}

// redact keeps the bot token, which is part of every request URL, out of client-facing messages.
func (s *RelayService) redact(err error) error {
	if s.cfg.BotToken == "" || !strings.Contains(err.Error(), s.cfg.BotToken) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), s.cfg.BotToken, "<redacted>"), err: err}
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }
