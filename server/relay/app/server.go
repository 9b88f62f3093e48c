package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"

	commonlog "snd_media/server/common/log"
	"snd_media/server/common/infra/mq"
	"snd_media/server/common/middleware"
	relayapi "snd_media/server/relay/api"
	"snd_media/server/relay/service"
)

type Server struct {
	HTTPServer *http.Server
	MQConn     *amqp.Connection
	Publisher  *service.AMQPPublisher
}

func NewServer(cfg Config) (*Server, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := service.NewMetrics(registry)

	var (
		mqConn    *amqp.Connection
		publisher *service.AMQPPublisher
		events    service.EventPublisher
		err       error
	)
	if cfg.LavinMQURL != "" {
		mqConn, err = mq.NewConnection(cfg.LavinMQURL)
		if err != nil {
			return nil, fmt.Errorf("initialize lavinmq: %w", err)
		}
		publisher, err = service.NewAMQPPublisher(mqConn, cfg.EventsExchange)
		if err != nil {
			_ = mqConn.Close()
			return nil, fmt.Errorf("initialize amqp publisher: %w", err)
		}
		events = publisher
	}

	relaySvc := service.NewRelayService(service.Config{
		BotToken:    cfg.BotToken,
		ChatID:      cfg.ChatID,
		APIEndpoint: cfg.APIEndpoint,
		Timeout:     cfg.UploadTimeout,
	}, events, metrics)
	commonlog.Infof("relaying uploads to telegram chat %s, ceiling %d bytes, timeout %s", relaySvc.ChatID(), cfg.MaxUploadBytes, cfg.UploadTimeout)

	// No ReadTimeout or WriteTimeout: both would run from the request headers and cover the
	// body upload plus the relay. The handler arms a write deadline once its answer is ready.
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           NewRouter(cfg, relaySvc, metrics, registry),
		ReadHeaderTimeout: 20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{HTTPServer: httpServer, MQConn: mqConn, Publisher: publisher}, nil
}

// NewRouter assembles middleware and routes around relay.
func NewRouter(cfg Config, relay relayapi.Relayer, metrics *service.Metrics, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), middleware.Recovery(), middleware.CORS(cfg.AllowedOrigins))

	relayapi.NewHandler(relay, cfg.MaxUploadBytes, metrics).
		WithResponseTimeout(cfg.ResponseWriteTimeout).
		RegisterRoutes(r)
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
	return r
}

func (s *Server) Shutdown(ctx context.Context) error {
	err := s.HTTPServer.Shutdown(ctx)
	if s.Publisher != nil {
		s.Publisher.Close()
	}
	if s.MQConn != nil {
		_ = s.MQConn.Close()
	}
	return err
}
