package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	commonlog "snd_media/server/common/log"
	relayapp "snd_media/server/relay/app"
)

func main() {
	_ = godotenv.Load()
	cfg := relayapp.LoadConfig()
	if err := cfg.Validate(); err != nil {
		commonlog.Errorf("%v: uploads will fail until it is set", err)
	}

	server, err := relayapp.NewServer(cfg)
	if err != nil {
		log.Fatalf("initialize relay server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		commonlog.Infof("start relay http server on :%s", cfg.Port)
		commonlog.Infof("upload endpoint: http://localhost:%s/api/upload-to-telegram", cfg.Port)
		if err := server.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("run relay http server: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		commonlog.Errorf("shutdown relay server gracefully: %v", err)
	}
}
