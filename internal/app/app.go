package app

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"docgarden/features/document"
	"docgarden/features/group"
	"docgarden/features/job"
	"docgarden/features/search"
	"docgarden/features/stats"
	"docgarden/internal/adapter/docsvc"
	"docgarden/internal/adapter/gemini"
	wstore "docgarden/internal/adapter/weaviate"
	"docgarden/internal/config"
	"docgarden/internal/events"
	"docgarden/internal/middleware"
	"docgarden/internal/pipeline"
)

type App struct {
	Handler    http.Handler
	JobService *job.Service
	Processor  *pipeline.Processor
	port       int
}

func New(ctx context.Context, cfg *config.Config, db *sql.DB, store *wstore.Store, pub events.Publisher) (*App, error) {
	broadcaster := events.NewBroadcaster(pub)

	// Embedding backend
	var embedder pipeline.Embedder
	if cfg.EmbedderProvider == config.ProviderGemini {
		ge, err := gemini.NewEmbedder(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return nil, err
		}
		embedder = ge
	} else {
		embedder = docsvc.NewEmbedClient(cfg.EmbeddingServiceURL, cfg.ServiceTimeoutSeconds)
	}
	ocr := docsvc.NewOCRClient(cfg.OCRServiceURL, cfg.ServiceTimeoutSeconds)

	// Feature: Job + Pipeline
	jobRepo := job.NewPostgresRepo(db)
	docRepo := document.NewPostgresRepo(db)

	processor := pipeline.NewProcessor(jobRepo, docRepo, store, broadcaster, ocr, embedder, pipeline.Config{
		ChunkSize:         cfg.ChunkSize,
		UploadDir:         cfg.UploadDir,
		MaxConcurrentJobs: int64(cfg.MaxConcurrentJobs),
		FetchTimeout:      time.Duration(cfg.FetchTimeoutSeconds) * time.Second,
	})

	jobService := job.NewService(jobRepo, processor, broadcaster)
	jobHandler := job.NewHandler(jobService)

	// Feature: Group
	groupRepo := group.NewPostgresRepo(db)
	groupService := group.NewService(groupRepo, &documentChecker{repo: docRepo})
	groupHandler := group.NewHandler(groupService)

	// Feature: Document
	docService := document.NewService(docRepo, groupService, store)
	docHandler := document.NewHandler(docService)

	// Feature: Search
	searchService := search.NewService(embedder, store)
	searchHandler := search.NewHandler(searchService)

	// Feature: Stats
	statsHandler := stats.NewHandler(jobRepo, docRepo, store)

	enableCORS := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, PATCH, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}
	route := func(pattern string, h http.HandlerFunc) (string, http.Handler) {
		return pattern, middleware.CorrelationID(enableCORS(h))
	}

	mux := http.NewServeMux()

	mux.Handle(route("POST /jobs", jobHandler.Create))
	mux.Handle(route("POST /jobs/batch", jobHandler.CreateBatch))
	mux.Handle(route("GET /jobs", jobHandler.List))
	mux.Handle(route("GET /jobs/{id}", jobHandler.Get))
	mux.Handle(route("DELETE /jobs/{id}", jobHandler.Cancel))

	mux.Handle(route("GET /documents", docHandler.List))
	mux.Handle(route("GET /documents/{id}", docHandler.Get))
	mux.Handle(route("PATCH /documents/{id}", docHandler.Update))
	mux.Handle(route("PUT /documents/{id}/groups", docHandler.SetGroups))
	mux.Handle(route("DELETE /documents/{id}", docHandler.Delete))

	mux.Handle(route("POST /groups", groupHandler.Create))
	mux.Handle(route("GET /groups", groupHandler.List))
	mux.Handle(route("GET /groups/{id}", groupHandler.Get))
	mux.Handle(route("PUT /groups/{id}", groupHandler.Update))
	mux.Handle(route("DELETE /groups/{id}", groupHandler.Delete))
	mux.Handle(route("POST /groups/{id}/documents", groupHandler.AddDocuments))

	mux.Handle(route("GET /search", searchHandler.Search))
	mux.Handle(route("GET /stats", statsHandler.GetStats))

	// Rendered PDF page images
	mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	return &App{
		Handler:    mux,
		JobService: jobService,
		Processor:  processor,
		port:       cfg.ServerPort,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(a.port),
		Handler: a.Handler,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", a.port)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// documentChecker lets the group feature validate document ids without
// depending on the document repository type.
type documentChecker struct {
	repo document.Repository
}

func (c *documentChecker) Exists(ctx context.Context, id string) (bool, error) {
	_, err := c.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
