package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/umbrosa/umbrosa/internal/httpapi"
	"github.com/umbrosa/umbrosa/internal/webhook"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the batch scheduler and the webhook HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	rt, err := newRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	ingestor := webhook.NewIngestor(rt.store)
	api := httpapi.New(ingestor, rt.dir, rt.sched, rt.metrics)
	httpServer := &http.Server{
		Addr:    rt.cfg.BindAddr,
		Handler: api.Router(),
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	go rt.sched.Run(runCtx)

	go func() {
		log.Printf("server listening on %s", rt.cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), rt.cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
	return nil
}
