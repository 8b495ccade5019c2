// Package api implements the §6 HTTP surface in front of the Orchestrator
// and Job Manager: a plain http.ServeMux with method-gated handlers, the
// same shape the teacher's internal/api/server.go uses (writeJSON/writeError
// helpers, methodNotAllowed, mux.HandleFunc per route) generalized from a
// flashcard service's routes to this pipeline's routes.
package api

import (
	"context"
	"encoding/json"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jawsbaek/exam-pdf-parser/internal/config"
	"github.com/jawsbaek/exam-pdf-parser/internal/exam"
	"github.com/jawsbaek/exam-pdf-parser/internal/jobmanager"
	"github.com/jawsbaek/exam-pdf-parser/internal/orchestrator"
	"github.com/jawsbaek/exam-pdf-parser/internal/registry"
	"github.com/jawsbaek/exam-pdf-parser/internal/validator"
)

// Version is reported by GET /health.
const Version = "0.1.0"

const maxMultipartMemory = 8 << 20 // 8 MB held in memory; the rest spills to a temp file

// syncParseTimeout is the §5 "60s on the sync endpoint" budget: past this
// the handler returns 504 while the parse continues internally.
const syncParseTimeout = 60 * time.Second

// Server wires the Orchestrator and Job Manager behind the §6 HTTP surface.
type Server struct {
	mux         *http.ServeMux
	cfg         config.Config
	orch        *orchestrator.Orchestrator
	jobs        *jobmanager.Manager
	log         zerolog.Logger
	syncTimeout time.Duration
}

// NewServer constructs a Server and registers its routes.
func NewServer(cfg config.Config, orch *orchestrator.Orchestrator, jobs *jobmanager.Manager, logger zerolog.Logger) *Server {
	s := &Server{mux: http.NewServeMux(), cfg: cfg, orch: orch, jobs: jobs, log: logger, syncTimeout: syncParseTimeout}
	s.routes()
	return s
}

// Handler returns the assembled http.Handler, wrapped with CORS and auth.
func (s *Server) Handler() http.Handler {
	return s.withCORS(s.mux)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/models", s.auth(s.handleModels))
	s.mux.HandleFunc("/api/parse", s.auth(s.handleParse))
	s.mux.HandleFunc("/api/parse/async", s.auth(s.handleParseAsync))
	s.mux.HandleFunc("/api/jobs/", s.auth(s.handleJobStatus))
	s.mux.HandleFunc("/api/validate", s.auth(s.handleValidate))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": Version})
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, registry.ModelSpecs())
}

// parseOutcome carries the Parse result across the goroutine boundary in
// handleParse's select.
type parseOutcome struct {
	exam       *exam.ParsedExam
	validation validator.Result
	cost       orchestrator.CostReport
	err        error
}

// handleParse backs POST /api/parse: a synchronous, blocking parse (§6). Past
// syncParseTimeout the handler returns 504 to the caller while the parse
// keeps running to completion internally and its result is discarded (§5:
// "the server continues to completion internally (best-effort; the result
// is discarded)") — so the parse runs on a context detached from the
// request, never canceled by the client giving up or by the timer firing.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	pdfPath, cleanup, modelSpec, explain, ok := s.receiveUpload(w, r)
	if !ok {
		return
	}

	done := make(chan parseOutcome, 1)
	go func() {
		defer cleanup()
		parsedExam, validation, cost, err := s.orch.Parse(context.Background(), pdfPath, modelSpec, orchestrator.Options{Explain: explain})
		done <- parseOutcome{exam: parsedExam, validation: validation, cost: cost, err: err}
	}()

	select {
	case <-time.After(s.syncTimeout):
		s.log.Warn().Str("model", modelSpec).Dur("timeout", s.syncTimeout).
			Msg("sync parse exceeded budget, returning 504; parse continues in background and its result will be discarded")
		writeError(w, http.StatusGatewayTimeout, "parse exceeded the synchronous request budget")
	case out := <-done:
		if out.err != nil {
			s.writeTaxonomyError(w, out.err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"exam":       out.exam,
			"validation": out.validation,
			"cost":       out.cost,
		})
	}
}

// handleParseAsync backs POST /api/parse/async: enqueues a job and returns
// its id immediately (§6, §4.8).
func (s *Server) handleParseAsync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	pdfPath, _, modelSpec, explain, ok := s.receiveUpload(w, r)
	if !ok {
		return
	}

	jobID, err := s.jobs.Submit(jobmanager.Request{
		PDFPath:   pdfPath,
		ModelSpec: modelSpec,
		Options:   orchestrator.Options{Explain: explain},
	})
	if err != nil {
		s.writeTaxonomyError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	jobID = strings.Trim(jobID, "/")
	if jobID == "" {
		http.NotFound(w, r)
		return
	}

	job, ok := s.jobs.Get(jobID)
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// handleValidate backs POST /api/validate: re-runs C5 over a caller-supplied
// ParsedExam JSON body (§6).
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var parsedExam exam.ParsedExam
	if err := json.NewDecoder(r.Body).Decode(&parsedExam); err != nil {
		writeError(w, http.StatusBadRequest, "invalid parsed exam json")
		return
	}

	writeJSON(w, http.StatusOK, validator.Validate(&parsedExam))
}

// receiveUpload enforces §6's MIME/size checks before any layer runs, then
// writes the upload to a temp file and returns its path plus the parsed
// "model" and explain form fields. The bool result is false if a response
// was already written.
func (s *Server) receiveUpload(w http.ResponseWriter, r *http.Request) (pdfPath string, cleanup func(), modelSpec string, explain bool, ok bool) {
	maxBytes := int64(s.cfg.MaxFileSizeMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+maxMultipartMemory)

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		s.log.Warn().Err(err).Msg("upload rejected: exceeds MAX_FILE_SIZE_MB or malformed multipart body")
		writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds MAX_FILE_SIZE_MB or is malformed")
		return "", nil, "", false, false
	}
	defer func() {
		if r.MultipartForm != nil && !ok {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.log.Warn().Err(err).Msg("upload rejected: missing multipart field \"file\"")
		writeError(w, http.StatusBadRequest, "missing multipart field \"file\"")
		return "", nil, "", false, false
	}
	defer file.Close()

	if header.Size > maxBytes {
		s.log.Warn().Int64("size", header.Size).Int64("max", maxBytes).Msg("upload rejected: exceeds MAX_FILE_SIZE_MB")
		writeError(w, http.StatusRequestEntityTooLarge, "file exceeds MAX_FILE_SIZE_MB")
		return "", nil, "", false, false
	}

	contentType := header.Header.Get("Content-Type")
	if mt, _, err := mime.ParseMediaType(contentType); err != nil || mt != "application/pdf" {
		s.log.Warn().Str("content_type", contentType).Msg("upload rejected: not application/pdf")
		writeError(w, http.StatusBadRequest, "file must be application/pdf")
		return "", nil, "", false, false
	}

	modelSpec = r.FormValue("model")
	if modelSpec == "" {
		modelSpec = "mineru+gemini-3-pro-preview"
	}
	explain = r.FormValue("skip_explain") == ""

	tmpPath, err := writeUploadToTemp(file, s.cfg.UploadDir)
	if err != nil {
		s.log.Error().Err(err).Msg("could not buffer upload to temp file")
		writeError(w, http.StatusInternalServerError, "could not buffer upload")
		return "", nil, "", false, false
	}

	return tmpPath, func() { removeUpload(tmpPath) }, modelSpec, explain, true
}

func (s *Server) writeTaxonomyError(w http.ResponseWriter, err error) {
	code, known := exam.CodeOf(err)
	if !known {
		s.log.Error().Err(err).Msg("unclassified error crossing the HTTP boundary")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	switch code {
	case exam.CodeInputError, exam.CodeConfigError:
		s.log.Warn().Err(err).Str("code", string(code)).Msg("request rejected")
		writeError(w, http.StatusBadRequest, err.Error())
	case exam.CodeQueueFull:
		s.log.Warn().Err(err).Str("code", string(code)).Msg("job queue saturated")
		writeError(w, http.StatusTooManyRequests, err.Error())
	case exam.CodeLLMQuotaError:
		s.log.Error().Err(err).Str("code", string(code)).Msg("llm quota exhausted")
		w.Header().Set("Retry-After", "60")
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.log.Error().Err(err).Str("code", string(code)).Msg("pipeline error")
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// auth enforces §6's X-API-Key/api_key check when API_KEYS is configured.
func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(s.cfg.APIKeys) == 0 {
			next(w, r)
			return
		}
		key := r.Header.Get("X-API-Key")
		if key == "" {
			key = r.URL.Query().Get("api_key")
		}
		for _, valid := range s.cfg.APIKeys {
			if key == valid {
				next(w, r)
				return
			}
		}
		s.log.Warn().Str("path", r.URL.Path).Msg("request rejected: missing or invalid api key")
		writeError(w, http.StatusUnauthorized, "missing or invalid api key")
	}
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && corsAllowed(s.cfg.CORSOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func corsAllowed(allowed []string, origin string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
