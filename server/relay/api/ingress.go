package api

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"snd_media/server/common/transport/httpresp"
	"snd_media/server/relay/domain"
)

const (
	videoField      = "video"
	titleField      = "title"
	uploadedByField = "uploadedBy"
	userRoleField   = "userRole"
	qualityField    = "quality"

	// formOverhead is the slack allowed on top of the video ceiling for boundaries and text fields.
	formOverhead      = 1 << 20
	maxTextFieldBytes = 64 << 10
)

// ParseUpload turns a multipart request into a validated UploadRequest. The body is read as a
// stream: the video is buffered in memory only, and reading stops as soon as a limit is crossed.
// Every error returned is a *domain.RelayError of kind Validation or SizeLimit.
func ParseUpload(w http.ResponseWriter, r *http.Request, maxUploadBytes int64) (domain.UploadRequest, error) {
	bodyLimit := maxUploadBytes + formOverhead
	if r.ContentLength > bodyLimit {
		return domain.UploadRequest{}, domain.NewSizeLimitError(&http.MaxBytesError{Limit: bodyLimit})
	}
	r.Body = http.MaxBytesReader(w, r.Body, bodyLimit)

	mr, err := r.MultipartReader()
	if err != nil {
		return domain.UploadRequest{}, domain.NewValidationError(httpresp.ErrMalformedMultipart)
	}

	var (
		req      domain.UploadRequest
		hasVideo bool
		fields   = map[string]string{}
	)
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.UploadRequest{}, classifyReadError(err)
		}

		name := part.FormName()
		if part.FileName() == "" {
			value, err := readTextField(part)
			_ = part.Close()
			if err != nil {
				return domain.UploadRequest{}, err
			}
			if _, seen := fields[name]; !seen {
				fields[name] = value
			}
			continue
		}

		if name != videoField || hasVideo {
			_ = part.Close()
			return domain.UploadRequest{}, domain.NewValidationError(httpresp.ErrUnexpectedField)
		}
		contentType := strings.TrimSpace(part.Header.Get("Content-Type"))
		if !strings.HasPrefix(strings.ToLower(contentType), "video/") {
			_ = part.Close()
			return domain.UploadRequest{}, domain.NewValidationError(httpresp.ErrOnlyVideoFiles)
		}
		video, err := readVideo(part, maxUploadBytes, r.ContentLength)
		_ = part.Close()
		if err != nil {
			return domain.UploadRequest{}, err
		}
		req.Video = video
		req.FileSize = int64(len(video))
		req.ContentType = contentType
		hasVideo = true
	}

	if !hasVideo {
		return domain.UploadRequest{}, domain.NewValidationError(httpresp.ErrNoVideoFile)
	}
	req.Title = strings.TrimSpace(fields[titleField])
	req.UploadedBy = strings.TrimSpace(fields[uploadedByField])
	if req.Title == "" || req.UploadedBy == "" {
		return domain.UploadRequest{}, domain.NewValidationError(httpresp.ErrMissingMetadata)
	}
	req.UserRole = strings.TrimSpace(fields[userRoleField])
	req.Quality = strings.TrimSpace(fields[qualityField])
	if req.Quality == "" {
		req.Quality = domain.DefaultQuality
	}
	return req, nil
}

func readTextField(part *multipart.Part) (string, error) {
	raw, err := io.ReadAll(io.LimitReader(part, maxTextFieldBytes+1))
	if err != nil {
		return "", classifyReadError(err)
	}
	if len(raw) > maxTextFieldBytes {
		return "", domain.NewValidationError(httpresp.ErrFieldTooLarge)
	}
	return string(raw), nil
}

func readVideo(part *multipart.Part, maxUploadBytes, contentLength int64) ([]byte, error) {
	var buf bytes.Buffer
	if contentLength > 0 {
		buf.Grow(int(min(contentLength, maxUploadBytes)))
	}
	n, err := buf.ReadFrom(io.LimitReader(part, maxUploadBytes+1))
	if err != nil {
		return nil, classifyReadError(err)
	}
	if n > maxUploadBytes {
		return nil, domain.NewSizeLimitError(&http.MaxBytesError{Limit: maxUploadBytes})
	}
	return buf.Bytes(), nil
}

// classifyReadError separates the body cap tripping from a malformed or truncated body.
func classifyReadError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return domain.NewSizeLimitError(err)
	}
	return &domain.RelayError{Kind: domain.KindValidation, Message: httpresp.ErrMalformedMultipart, Err: err}
}
