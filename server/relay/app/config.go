package app

import (
	"errors"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	cmnenv "snd_media/server/common/env"
	"snd_media/server/relay/domain"
	"snd_media/server/relay/service"
)

var defaultAllowedOrigins = []string{
	"http://localhost:3000",
	"http://127.0.0.1:3000",
	"http://localhost:5501",
	"http://127.0.0.1:5501",
	"https://soundora-music.web.app",
	"https://soundora-music.firebaseapp.com",
}

var ErrMissingBotToken = errors.New("TELEGRAM_BOT_TOKEN is not configured")

// Config is read once at startup and handed to the server by value.
type Config struct {
	Port string

	BotToken    string
	ChatID      string
	APIEndpoint string

	MaxUploadBytes       int64
	UploadTimeout        time.Duration
	ResponseWriteTimeout time.Duration
	AllowedOrigins       []string

	LavinMQURL     string
	EventsExchange string
}

func LoadConfig() Config {
	return Config{
		Port:                 cmnenv.String("PORT", "3001"),
		BotToken:             cmnenv.String("TELEGRAM_BOT_TOKEN", ""),
		ChatID:               cmnenv.String("TELEGRAM_CHAT_ID", service.DefaultChatID),
		APIEndpoint:          cmnenv.String("TELEGRAM_API_ENDPOINT", tgbotapi.APIEndpoint),
		MaxUploadBytes:       cmnenv.Int64("MAX_UPLOAD_BYTES", domain.DefaultMaxUploadBytes),
		UploadTimeout:        cmnenv.Duration("UPLOAD_TIMEOUT", service.DefaultUploadTimeout),
		ResponseWriteTimeout: cmnenv.Duration("HTTP_WRITE_TIMEOUT", time.Minute),
		AllowedOrigins:       cmnenv.CSV("CORS_ALLOWED_ORIGINS", defaultAllowedOrigins),
		LavinMQURL:           cmnenv.String("LAVINMQ_URL", ""),
		EventsExchange:       cmnenv.String("UPLOAD_EVENTS_EXCHANGE", service.DefaultEventsExchange),
	}
}

// Validate reports misconfiguration that should be logged loudly at startup. The server still
// runs without a token; uploads then fail with a configuration error.
func (c Config) Validate() error {
	if c.BotToken == "" {
		return ErrMissingBotToken
	}
	return nil
}
