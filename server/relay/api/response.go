package api

import (
	"errors"
	"net/http"
	"strings"

	"snd_media/server/common/transport/httpresp"
	"snd_media/server/relay/domain"
)

const upstreamErrorPrefix = "Telegram API error: "

// StatusAndMessage maps a failed upload to its HTTP status and client-facing message.
// A size-limit failure wins over everything, then an upstream rejection, then the catch-all.
func StatusAndMessage(err error) (int, string) {
	var relayErr *domain.RelayError
	if !errors.As(err, &relayErr) {
		return http.StatusInternalServerError, messageOrDefault(err)
	}

	switch relayErr.Kind {
	case domain.KindSizeLimit:
		return http.StatusRequestEntityTooLarge, httpresp.ErrFileTooLarge
	case domain.KindUpstreamRejection:
		return http.StatusInternalServerError, upstreamErrorPrefix + relayErr.Payload
	case domain.KindValidation:
		return http.StatusBadRequest, relayErr.Message
	default:
		return http.StatusInternalServerError, messageOrDefault(relayErr)
	}
}

func messageOrDefault(err error) string {
	if err == nil {
		return httpresp.ErrUploadFailed
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return httpresp.ErrUploadFailed
}
