package cmd

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/HanTheDev/lead-signal-pipeline/internal/config"
	"github.com/HanTheDev/lead-signal-pipeline/internal/worker"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume inbound message pairs from Kafka",
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := buildPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	consumer, err := worker.NewConsumer(cfg.KafkaBrokers, cfg.KafkaInboundTopic, cfg.KafkaGroupID, p.processor)
	if err != nil {
		return err
	}
	defer consumer.Close()

	log.Printf("Worker joined group %s on topic %s", cfg.KafkaGroupID, cfg.KafkaInboundTopic)

	err = consumer.Run(ctx)

	stats := consumer.Stats()
	log.Printf("Worker stopped: %d processed, %d skipped", stats.Processed, stats.Skipped)
	return err
}
