// Command rescheduled exposes the portal automation as a small HTTP job
// service: runs are enqueued, executed one at a time and their results stored
// for later retrieval.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/TeoEchavarria/sura-automatization-reschedule/events"
	"github.com/TeoEchavarria/sura-automatization-reschedule/store"
	"github.com/TeoEchavarria/sura-automatization-reschedule/sura"
)

func main() {
	_ = godotenv.Load(".env")

	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, log)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer st.Close()

	pub := openPublisher(log)
	defer pub.Close()

	srv := newServer(st, pub, log, func(cfg sura.Config, l *zap.SugaredLogger) (*sura.Outcome, error) {
		return sura.Reschedule(cfg, l)
	})
	go srv.worker(ctx)

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      srv.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	log.Infof("rescheduled listening on %s", addr)
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server: %v", err)
	}
}

func openStore(ctx context.Context, log *zap.SugaredLogger) (store.Store, error) {
	if url := os.Getenv("REDIS_URL"); url != "" {
		log.Infof("using redis run store at %s", url)
		return store.NewRedisStore(ctx, url, 24*time.Hour)
	}
	log.Info("using in-memory run store")
	return store.NewMemoryStore(), nil
}

func openPublisher(log *zap.SugaredLogger) events.Publisher {
	url := os.Getenv("NATS_URL")
	if url == "" {
		return events.NopPublisher{}
	}
	pub, err := events.NewNATSPublisher(events.NATSConfig{
		URL:     url,
		Subject: os.Getenv("NATS_SUBJECT"),
	})
	if err != nil {
		log.Warnf("nats unavailable, events disabled: %v", err)
		return events.NopPublisher{}
	}
	log.Infof("publishing run events to %s", url)
	return pub
}
