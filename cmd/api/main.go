package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appanalysis "github.com/bryanwahyu/contract-sentinel/internal/application/analysis"
	appcontracts "github.com/bryanwahyu/contract-sentinel/internal/application/contracts"
	apptables "github.com/bryanwahyu/contract-sentinel/internal/application/tables"
	"github.com/bryanwahyu/contract-sentinel/internal/config"
	aiclient "github.com/bryanwahyu/contract-sentinel/internal/infra/ai/openai"
	"github.com/bryanwahyu/contract-sentinel/internal/infra/cache"
	"github.com/bryanwahyu/contract-sentinel/internal/infra/httpserver"
	"github.com/bryanwahyu/contract-sentinel/internal/infra/index"
	"github.com/bryanwahyu/contract-sentinel/internal/infra/parse"
	minioStore "github.com/bryanwahyu/contract-sentinel/internal/infra/storage"
	"github.com/bryanwahyu/contract-sentinel/internal/middleware"
	"github.com/bryanwahyu/contract-sentinel/internal/session"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	// open durable memoization store
	store, err := cache.Open(cfg.Cache.Path)
	if err != nil {
		log.Fatalf("cache open error: %v", err)
	}
	log.Printf("cache loaded: %d entries from %s", store.Len(), cfg.Cache.Path)

	// init openai client (extractor, judge, embedder)
	ai := aiclient.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.EmbeddingModel)

	// init artifact archive (optional)
	var artifacts appcontracts.ArtifactStore
	if cfg.Minio.Enabled {
		st, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.Fatalf("minio init error: %v", err)
		}
		artifacts = st
	}

	// session state + services
	sess := session.NewManager()

	contractsSvc := &appcontracts.Service{
		Extractor: ai,
		Cache:     store,
		Parser:    parse.TextDocumentParser{},
		Session:   sess,
		Artifacts: artifacts,
	}
	tablesSvc := &apptables.Service{
		Parser:    parse.CSVTableParser{},
		Session:   sess,
		Artifacts: artifacts,
	}
	analysisSvc := &appanalysis.Service{
		Builder: index.NewBuilder(ai),
		Judge:   ai,
		Cache:   store,
		TopK:    cfg.Retrieval.TopK,
	}

	// init router
	handler := httpserver.NewRouter(contractsSvc, tablesSvc, analysisSvc, sess, httpserver.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		HealthCheckers: map[string]middleware.HealthChecker{
			"cache":    &middleware.CacheFileChecker{Path: cfg.Cache.Path},
			"upstream": &middleware.UpstreamConfigChecker{APIKey: cfg.OpenAI.APIKey},
		},
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     middleware.RateLimitMiddleware(30, 2)(handler),
		ReadTimeout: 15 * time.Second,
		// No write timeout: the analyze endpoint streams for as long as the
		// reasoning service takes to judge every row.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
