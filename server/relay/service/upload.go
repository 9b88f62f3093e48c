package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	sendVideoMethod   = "sendVideo"
	videoFormField    = "video"
	fallbackVideoType = "video/mp4"
	maxUpstreamReply  = 1 << 20
)

// upstreamReply is a decoded Bot API answer together with the bytes it was decoded from.
type upstreamReply struct {
	resp *tgbotapi.APIResponse
	raw  []byte
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// sendVideo posts video as multipart/form-data through the bot's client. The body is streamed
// through a pipe the way tgbotapi uploads files, except that the video part carries contentType
// instead of application/octet-stream.
func (s *RelayService) sendVideo(ctx context.Context, video tgbotapi.VideoConfig, contentType string) (upstreamReply, error) {
	params := make(tgbotapi.Params)
	if err := params.AddFirstValid("chat_id", video.ChatID, video.ChannelUsername); err != nil {
		return upstreamReply{}, fmt.Errorf("encode chat_id: %w", err)
	}
	params.AddNonEmpty("caption", video.Caption)
	params.AddBool("supports_streaming", video.SupportsStreaming)

	name, data, err := video.File.UploadData()
	if err != nil {
		return upstreamReply{}, fmt.Errorf("prepare video: %w", err)
	}
	if contentType = strings.TrimSpace(contentType); contentType == "" {
		contentType = fallbackVideoType
	}

	pr, pw := io.Pipe()
	defer pr.Close()
	form := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeVideoForm(form, params, name, contentType, data))
	}()

	endpoint := fmt.Sprintf(s.cfg.APIEndpoint, s.bot.Token, sendVideoMethod)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, pr)
	if err != nil {
		return upstreamReply{}, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	httpResp, err := s.bot.Client.Do(req)
	if err != nil {
		return upstreamReply{}, err
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxUpstreamReply))
	if err != nil {
		return upstreamReply{}, fmt.Errorf("read telegram response: %w", err)
	}
	var apiResp tgbotapi.APIResponse
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		if httpResp.StatusCode >= http.StatusBadRequest {
			// Proxies in front of the Bot API answer errors with HTML; keep them as rejections.
			return upstreamReply{
				resp: &tgbotapi.APIResponse{Ok: false, ErrorCode: httpResp.StatusCode, Description: httpResp.Status},
				raw:  raw,
			}, nil
		}
		return upstreamReply{}, fmt.Errorf("decode telegram response (%s): %w", httpResp.Status, err)
	}
	return upstreamReply{resp: &apiResp, raw: raw}, nil
}

func writeVideoForm(form *multipart.Writer, params tgbotapi.Params, name, contentType string, data io.Reader) error {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := form.WriteField(k, params[k]); err != nil {
			return err
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, videoFormField, quoteEscaper.Replace(name)))
	header.Set("Content-Type", contentType)
	part, err := form.CreatePart(header)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, data); err != nil {
		return err
	}
	return form.Close()
}

// payload is the upstream answer as the client will see it: compacted JSON when the body is
// JSON, the raw text otherwise.
func (r upstreamReply) payload() string {
	trimmed := bytes.TrimSpace(r.raw)
	if len(trimmed) == 0 {
		if r.resp != nil && r.resp.Description != "" {
			return r.resp.Description
		}
		return "null"
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err == nil {
		return compact.String()
	}
	return string(trimmed)
}
