// Command memory_worker consumes memory jobs published with
// MEMORY_DISPATCH=queue, embeds them and upserts them into the vector bridge.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/oksasatya/greenloop/config"
	"github.com/oksasatya/greenloop/internal/application"
	"github.com/oksasatya/greenloop/internal/infrastructure/ai"
	"github.com/oksasatya/greenloop/internal/infrastructure/tasks"
	"github.com/oksasatya/greenloop/internal/observability"
	"github.com/oksasatya/greenloop/internal/vectorbridge"
	"github.com/oksasatya/greenloop/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-memory-worker", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider, err := ai.NewProvider(ctx, cfg)
	if err != nil {
		log.Fatalf("ai provider: %v", err)
	}
	embedder, err := ai.NewCachedEmbedder(provider, cfg.EmbedCacheSize)
	if err != nil {
		log.Fatalf("embed cache: %v", err)
	}

	var t vectorbridge.Transport = vectorbridge.NewHTTPTransport(cfg.VectorBridgeURL)
	if cfg.VectorBridgeMode == "exec" {
		t = vectorbridge.NewExecTransport(cfg.VectorBridgeBin)
	}
	metrics := observability.DefaultMetrics()
	store := vectorbridge.NewClient(t, cfg.VectorBridgeTimeout, logger, metrics)
	writer := application.NewMemoryWriter(embedder, store, logger)
	handle := tasks.MemoryConsumer(writer.Write, logger)

	workers := cfg.MemoryWorkerCount
	if workers <= 0 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		consumer, err := helpers.NewRabbitConsumer(cfg.RabbitMQURL, cfg.RabbitMQMemoryQueue, 4)
		if err != nil {
			log.Fatalf("amqp: %v", err)
		}
		defer consumer.Close()
		g.Go(func() error {
			return consumer.Consume(gctx, handle)
		})
	}

	logger.Infof("memory worker listening on queue=%s workers=%d", cfg.RabbitMQMemoryQueue, workers)
	if err := g.Wait(); err != nil {
		logger.WithError(err).Error("consumer stopped")
	}
	logger.Info("memory worker exited")
}
