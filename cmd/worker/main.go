package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docsift/docsift/internal/bootstrap"
	"github.com/docsift/docsift/internal/config"
	"github.com/docsift/docsift/internal/observability/logging"
	"github.com/docsift/docsift/internal/observability/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logging.Setup("docsift-worker", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	indexMetrics := metrics.NewIndexMetrics("docsift-worker")
	indexMetrics.MustRegister(metrics.NewSnapshotCollector(app.Tracker))

	server := &http.Server{
		Addr:         cfg.MetricsAddr,
		Handler:      opsHandler(app, indexMetrics),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	go func() {
		log.Printf("worker ops endpoint listening on %s", cfg.MetricsAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ops server error: %v", err)
		}
	}()

	log.Printf("worker subscribed to %s", cfg.NATSSubject)
	err = app.Queue.SubscribeDocumentRegistered(ctx, func(handlerCtx context.Context, documentID string) error {
		indexCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()

		// Queue lag is best effort: a missing row will fail IndexByID
		// with a better error anyway.
		if doc, err := app.Documents.GetByID(indexCtx, documentID); err == nil {
			indexMetrics.ObserveQueueLag(time.Since(doc.CreatedAt))
		}

		indexMetrics.StartDocument()
		start := time.Now()
		chunks, err := app.Index.IndexByID(indexCtx, documentID)
		indexMetrics.FinishDocument(time.Since(start), chunks, err)
		return err
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ops server shutdown error: %v", err)
	}
}

func opsHandler(app *bootstrap.App, indexMetrics *metrics.IndexMetrics) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", indexMetrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		probeCtx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := app.Health(probeCtx); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}
