// Package chi exposes the HTTP API: file ingestion, question answering,
// chat history, health, and metrics.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/askdocs/askdocs/internal/domain"
	healthuc "github.com/askdocs/askdocs/internal/usecase/health"
)

// maxUploadBytes bounds one uploaded document.
const maxUploadBytes = 20 << 20

// FileService is the document ingestion surface the server needs.
type FileService interface {
	Upload(ctx context.Context, fileName string, data []byte) (domain.File, error)
	Get(ctx context.Context, id int64) (domain.File, error)
	List(ctx context.Context) ([]domain.File, error)
	Delete(ctx context.Context, id int64) error
}

// ChatService is the conversational surface the server needs.
type ChatService interface {
	Ask(ctx context.Context, chatID, question string, topK int) (domain.Answer, string, error)
	History(ctx context.Context, chatID string) ([]domain.Message, error)
}

// HealthService reports component health.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}

// ErrorResponseCode identifies an API error category.
type ErrorResponseCode string

const (
	ErrorCodeBadRequest             ErrorResponseCode = "bad_request"
	ErrorCodeValidationFailed       ErrorResponseCode = "validation_failed"
	ErrorCodeNotFound               ErrorResponseCode = "not_found"
	ErrorCodeUnsupportedFileType    ErrorResponseCode = "unsupported_file_type"
	ErrorCodeNoExtractableText      ErrorResponseCode = "no_extractable_text"
	ErrorCodeVectorDimMismatch      ErrorResponseCode = "vector_dim_mismatch"
	ErrorCodeEmbeddingQuotaExceeded ErrorResponseCode = "embedding_quota_exceeded"
	ErrorCodeEmbeddingProviderError ErrorResponseCode = "embedding_provider_error"
	ErrorCodeModelRateLimited       ErrorResponseCode = "model_rate_limited"
	ErrorCodeModelError             ErrorResponseCode = "model_error"
	ErrorCodeIndexError             ErrorResponseCode = "index_error"
	ErrorCodeInternalError          ErrorResponseCode = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
}

// FileResponse is the JSON form of a file record.
type FileResponse struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Size       int64     `json:"size"`
	Status     string    `json:"status"`
	ChunkCount int       `json:"chunk_count"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// FileListResponse is the JSON form of a file listing.
type FileListResponse struct {
	Items []FileResponse `json:"items"`
	Total int            `json:"total"`
}

// AskRequest is the JSON body of POST /v1/ask.
type AskRequest struct {
	ChatID   string `json:"chat_id,omitempty"`
	Question string `json:"question"`
	TopK     int    `json:"top_k,omitempty"`
}

// AskResponse wraps a composed answer with its chat identity.
type AskResponse struct {
	ChatID string        `json:"chat_id"`
	Answer domain.Answer `json:"answer"`
}

// MessageResponse is the JSON form of one chat message.
type MessageResponse struct {
	ID        int64     `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryResponse is the JSON form of a chat transcript.
type HistoryResponse struct {
	ChatID   string            `json:"chat_id"`
	Messages []MessageResponse `json:"messages"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server routes HTTP requests to the use case services.
type Server struct {
	files         FileService
	chat          ChatService
	health        HealthService
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(files FileService, chat ChatService, health HealthService, logger *zap.Logger) *Server {
	s := &Server{
		files:  files,
		chat:   chat,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeNotFound),
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrUnsupportedFileType, http.StatusBadRequest, ErrorCodeUnsupportedFileType),
		sentinelHandler(domain.ErrExtraction, http.StatusUnprocessableEntity, ErrorCodeNoExtractableText),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest, ErrorCodeVectorDimMismatch),
		sentinelHandler(domain.ErrEmbeddingQuotaExceeded, http.StatusPaymentRequired, ErrorCodeEmbeddingQuotaExceeded),
		sentinelHandler(domain.ErrEmbeddingUnavailable, http.StatusBadGateway, ErrorCodeEmbeddingProviderError),
		sentinelHandler(domain.ErrEmbeddingRequest, http.StatusBadGateway, ErrorCodeEmbeddingProviderError),
		sentinelHandler(domain.ErrModelRateLimited, http.StatusTooManyRequests, ErrorCodeModelRateLimited),
		sentinelHandler(domain.ErrModelRequest, http.StatusBadGateway, ErrorCodeModelError),
		sentinelHandler(domain.ErrIndexQuery, http.StatusBadGateway, ErrorCodeIndexError),
	}
	return s
}

// Routes mounts all API routes onto the router.
func (s *Server) Routes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Post("/files", s.UploadFile)
		r.Get("/files", s.ListFiles)
		r.Get("/files/{id}", s.GetFile)
		r.Delete("/files/{id}", s.DeleteFile)
		r.Post("/ask", s.Ask)
		r.Get("/chats/{id}", s.ChatHistory)
	})
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// UploadFile handles POST /v1/files. Expects multipart/form-data with a
// "file" part. Indexing runs in the background; the response carries the
// pending file record.
func (s *Server) UploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid multipart body: "+err.Error())
		return
	}

	part, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, `A "file" form part is required`)
		return
	}
	defer part.Close()

	data, err := io.ReadAll(part)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Failed to read file part: "+err.Error())
		return
	}

	file, err := s.files.Upload(r.Context(), header.Filename, data)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/v1/files/%d", file.ID))
	writeJSON(w, http.StatusAccepted, fileToResponse(file))
}

// ListFiles handles GET /v1/files.
func (s *Server) ListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.files.List(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]FileResponse, len(files))
	for i, f := range files {
		items[i] = fileToResponse(f)
	}
	writeJSON(w, http.StatusOK, FileListResponse{Items: items, Total: len(items)})
}

// GetFile handles GET /v1/files/{id}.
func (s *Server) GetFile(w http.ResponseWriter, r *http.Request) {
	id, ok := filePathID(w, r)
	if !ok {
		return
	}

	file, err := s.files.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fileToResponse(file))
}

// DeleteFile handles DELETE /v1/files/{id}.
func (s *Server) DeleteFile(w http.ResponseWriter, r *http.Request) {
	id, ok := filePathID(w, r)
	if !ok {
		return
	}

	if err := s.files.Delete(r.Context(), id); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Ask handles POST /v1/ask.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	ans, chatID, err := s.chat.Ask(r.Context(), req.ChatID, req.Question, req.TopK)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AskResponse{ChatID: chatID, Answer: ans})
}

// ChatHistory handles GET /v1/chats/{id}.
func (s *Server) ChatHistory(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "id")

	msgs, err := s.chat.History(r.Context(), chatID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]MessageResponse, len(msgs))
	for i, m := range msgs {
		items[i] = MessageResponse{
			ID:        m.ID,
			Role:      string(m.Role),
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, HistoryResponse{ChatID: chatID, Messages: items})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func filePathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "File id must be a positive integer")
		return 0, false
	}
	return id, true
}

func fileToResponse(f domain.File) FileResponse {
	return FileResponse{
		ID:         f.ID,
		Name:       f.Name,
		Type:       f.Type,
		Size:       f.Size,
		Status:     string(f.Status),
		ChunkCount: f.ChunkCount,
		Error:      f.Error,
		CreatedAt:  f.CreatedAt,
		UpdatedAt:  f.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorResponseCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrValidation,
		domain.ErrUnsupportedFileType,
		domain.ErrExtraction,
		domain.ErrVectorDimMismatch,
		domain.ErrEmbeddingQuotaExceeded,
		domain.ErrEmbeddingUnavailable,
		domain.ErrEmbeddingRequest,
		domain.ErrModelRateLimited,
		domain.ErrModelRequest,
		domain.ErrIndexQuery,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
