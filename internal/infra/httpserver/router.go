package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appanalysis "github.com/bryanwahyu/contract-sentinel/internal/application/analysis"
	appcontracts "github.com/bryanwahyu/contract-sentinel/internal/application/contracts"
	apptables "github.com/bryanwahyu/contract-sentinel/internal/application/tables"
	domai "github.com/bryanwahyu/contract-sentinel/internal/domain/ai"
	"github.com/bryanwahyu/contract-sentinel/internal/domain/analysis"
	"github.com/bryanwahyu/contract-sentinel/internal/domain/contract"
	"github.com/bryanwahyu/contract-sentinel/internal/domain/tasks"
	"github.com/bryanwahyu/contract-sentinel/internal/middleware"
	"github.com/bryanwahyu/contract-sentinel/internal/session"
)

type Router struct {
	contractsSvc *appcontracts.Service
	tablesSvc    *apptables.Service
	analysisSvc  *appanalysis.Service
	session      *session.Manager
}

type Options struct {
	AllowedOrigins []string
	HealthCheckers map[string]middleware.HealthChecker
}

func NewRouter(contractsSvc *appcontracts.Service, tablesSvc *apptables.Service, analysisSvc *appanalysis.Service, sess *session.Manager, opts Options) http.Handler {
	r := &Router{contractsSvc: contractsSvc, tablesSvc: tablesSvc, analysisSvc: analysisSvc, session: sess}
	mux := chi.NewRouter()

	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)

	mux.Get("/health", middleware.HealthHandler(opts.HealthCheckers))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/documents", r.wrap(r.handleUploadDocument))
		rt.Post("/tables", r.wrap(r.handleUploadTable))
		rt.Post("/keywords", r.wrap(r.handleKeywords))
		rt.Get("/analyze", r.handleAnalyze)
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			switch {
			case errors.Is(err, contract.ErrMalformedDocument), errors.Is(err, tasks.ErrMalformedTable):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, session.ErrNoDocument), errors.Is(err, session.ErrNoTable),
				errors.Is(err, session.ErrRunInProgress):
				http.Error(w, err.Error(), http.StatusConflict)
			case errors.Is(err, domai.ErrUpstream):
				http.Error(w, err.Error(), http.StatusBadGateway)
			default:
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
		}
	}
}

// POST /v1/documents
// Accepts a multipart upload under "file" or a raw body. Responds with the
// structured document JSON.
func (r *Router) handleUploadDocument(w http.ResponseWriter, req *http.Request) error {
	if err := middleware.ValidateUploadSize(req); err != nil {
		return fmt.Errorf("%w: %v", contract.ErrMalformedDocument, err)
	}
	body, err := uploadReader(req)
	if err != nil {
		return fmt.Errorf("%w: %v", contract.ErrMalformedDocument, err)
	}
	defer body.Close()

	_, raw, err := r.contractsSvc.UploadDocument(req.Context(), body)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	_, err = io.WriteString(w, raw)
	return err
}

// POST /v1/tables
// Accepts a CSV upload and responds with {"data": [...rows...]}.
func (r *Router) handleUploadTable(w http.ResponseWriter, req *http.Request) error {
	if err := middleware.ValidateUploadSize(req); err != nil {
		return fmt.Errorf("%w: %v", tasks.ErrMalformedTable, err)
	}
	body, err := uploadReader(req)
	if err != nil {
		return fmt.Errorf("%w: %v", tasks.ErrMalformedTable, err)
	}
	defer body.Close()

	rows, err := r.tablesSvc.UploadTable(req.Context(), body)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(map[string]any{"data": rows})
}

// POST /v1/keywords
// Body: {"text": "..."}
func (r *Router) handleKeywords(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", contract.ErrMalformedDocument, err)
	}
	if body.Text == "" {
		return fmt.Errorf("%w: text is required", contract.ErrMalformedDocument)
	}

	keywords, err := r.contractsSvc.Keywords(req.Context(), middleware.SanitizeString(body.Text))
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(map[string]any{"keywords": keywords})
}

// GET /v1/analyze?k=
// Streams the analysis run as server-sent events. Each event is framed as
// "data: <payload>\n\n"; the [END] payload is the completion signal.
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) {
	if err := r.session.BeginRun(); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	defer r.session.EndRun()

	doc, table, err := r.session.Snapshot()
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	svc := *r.analysisSvc
	if k, err := strconv.Atoi(req.URL.Query().Get("k")); err == nil {
		svc.TopK = middleware.ValidateTopK(k)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	wrote := false
	emit := func(ev analysis.Event) error {
		if _, err := fmt.Fprintf(w, "data: %s\n\n", ev.Payload); err != nil {
			return err
		}
		wrote = true
		flusher.Flush()
		return nil
	}

	middleware.IncrementAnalyses()
	middleware.IncrementAnalysesRunning()
	defer middleware.DecrementAnalysesRunning()

	if err := svc.Run(req.Context(), doc, table, emit); err != nil {
		middleware.IncrementAnalysesFailed()
		if !wrote {
			// Index construction failed before any event went out; a plain
			// HTTP error is still possible.
			status := http.StatusInternalServerError
			if errors.Is(err, domai.ErrUpstream) {
				status = http.StatusBadGateway
			}
			http.Error(w, err.Error(), status)
			return
		}
		log.Printf("analysis run aborted mid-stream: %v", err)
	}
}

// uploadReader returns the uploaded payload: the "file" part of a multipart
// form, or the raw request body.
func uploadReader(req *http.Request) (io.ReadCloser, error) {
	ct := req.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(ct)
	if err == nil && mediaType == "multipart/form-data" {
		file, _, err := req.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("missing multipart file: %w", err)
		}
		return file, nil
	}
	return req.Body, nil
}
