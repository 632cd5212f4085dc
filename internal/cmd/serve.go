package cmd

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/HanTheDev/lead-signal-pipeline/internal/api"
	"github.com/HanTheDev/lead-signal-pipeline/internal/config"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
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

	deps := api.Deps{
		Tenants:        p.store,
		Processor:      p.processor,
		Reports:        p.reports,
		JWTSecret:      cfg.JWTSecret,
		AdminToken:     cfg.AdminToken,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	}
	if p.limiter != nil {
		deps.Limiter = p.limiter
	}

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           api.NewServer(deps).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on port %s", cfg.ServerPort)
		log.Printf("Admin API available at /admin/*")
		log.Printf("Tenant API available at /api/*")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Println("Server exited")
	return nil
}
