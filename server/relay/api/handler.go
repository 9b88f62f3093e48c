package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"

	commonlog "snd_media/server/common/log"
	"snd_media/server/common/transport/httpresp"
	"snd_media/server/relay/domain"
	"snd_media/server/relay/service"
)

const (
	msgServerRunning  = "Server is running"
	msgUploadComplete = "Video uploaded successfully to Telegram"
)

// Relayer is the upstream side of an upload.
type Relayer interface {
	Relay(ctx context.Context, req domain.UploadRequest) (domain.RelayResult, error)
}

type Handler struct {
	relay          Relayer
	maxUploadBytes int64
	metrics        *service.Metrics
	// responseTimeout bounds writing the JSON answer. It starts once the answer is ready, so
	// a slow body upload followed by a slow relay never cuts off a finished upload's response.
	responseTimeout time.Duration
}

func NewHandler(relay Relayer, maxUploadBytes int64, metrics *service.Metrics) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = domain.DefaultMaxUploadBytes
	}
	return &Handler{relay: relay, maxUploadBytes: maxUploadBytes, metrics: metrics}
}

func (h *Handler) WithResponseTimeout(d time.Duration) *Handler {
	h.responseTimeout = d
	return h
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		api.GET("/health", h.health)
		api.POST("/upload-to-telegram", h.uploadToTelegram)
	}
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, httpresp.NewErrorResponse("Not found"))
	})
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, httpresp.NewHealthResponse(msgServerRunning))
}

func (h *Handler) uploadToTelegram(c *gin.Context) {
	commonlog.Infof("upload request received from %s", c.ClientIP())

	req, err := ParseUpload(c.Writer, c.Request, h.maxUploadBytes)
	if err != nil {
		h.fail(c, err)
		return
	}
	commonlog.Infof("processing video %q, %s, uploaded by %s", req.Title, humanize.IBytes(uint64(req.FileSize)), req.UploadedBy)

	result, err := h.relay.Relay(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.metrics.RecordOutcome(service.OutcomeSuccess)
	h.armWriteDeadline(c)
	c.JSON(http.StatusOK, httpresp.NewSuccessResponse(msgUploadComplete, domain.NewUploadedVideo(req, result)))
}

func (h *Handler) fail(c *gin.Context, err error) {
	status, message := StatusAndMessage(err)
	kind := domain.KindOf(err)
	h.metrics.RecordOutcome(kind.String())
	if status >= http.StatusInternalServerError {
		commonlog.Errorf("upload failed (%s): %v", kind, err)
	} else {
		commonlog.Warnf("upload rejected (%s): %s", kind, message)
	}
	h.armWriteDeadline(c)
	c.JSON(status, httpresp.NewErrorResponse(message))
}

func (h *Handler) armWriteDeadline(c *gin.Context) {
	if h.responseTimeout <= 0 {
		return
	}
	err := http.NewResponseController(c.Writer).SetWriteDeadline(time.Now().Add(h.responseTimeout))
	if err != nil && !errors.Is(err, http.ErrNotSupported) {
		commonlog.Warnf("set response write deadline: %v", err)
	}
}
