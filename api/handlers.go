/*
handlers.go - HTTP API handlers for the receipt engine

PURPOSE:
  Exposes validation, planning and merging over HTTP. Handles request
  parsing, JSON serialization, and delegates to the core packages.

ENDPOINTS:
  GET    /health                  Liveness probe
  POST   /api/validate            Validate batch parameters
  POST   /api/plans               Validate, then split amounts and pick dates
  POST   /api/merge               Merge uploaded PDFs (multipart "documents", in order)
  GET    /api/receipts            List receipt files in the workspace
  POST   /api/receipts/merge      Merge workspace receipts in sequence order (?count=N)

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation violations, empty or unreadable merge input
  - 422: Infeasible distribution or schedule
  - 503: Schedule search exhausted (retry or widen the range)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/warp/receipt-engine/batch"
	"github.com/warp/receipt-engine/config"
	"github.com/warp/receipt-engine/generic"
	"github.com/warp/receipt-engine/pdfmerge"
	"github.com/warp/receipt-engine/validate"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Config    *config.Config
	Validator validate.Validator
	Planner   batch.Planner
	Merger    pdfmerge.Merger
	Logger    *zap.Logger
}

// NewHandler creates a handler wired from cfg.
func NewHandler(cfg *config.Config, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Config:    cfg,
		Validator: cfg.Validator(),
		Planner:   batch.Planner{Allocator: cfg.Allocator()},
		Logger:    logger,
	}
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}

// =============================================================================
// VALIDATION AND PLANNING
// =============================================================================

// Validate runs the validator and always answers 200 with the full list.
// POST /api/validate
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	res := h.Validator.Validate(req.Params())
	writeJSON(w, http.StatusOK, ValidationDTO{Valid: res.Valid, Violations: res.Violations})
}

// CreatePlan validates the request and returns one unit per receipt.
// POST /api/plans
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	res := h.Validator.Validate(req.Params())
	if !res.Valid {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:      "Invalid batch parameters",
			Code:       "invalid_input",
			Violations: res.Violations,
		})
		return
	}

	plan, err := h.Planner.Plan(*res.Request)
	if err != nil {
		h.writeDomainError(w, "Failed to plan batch", err)
		return
	}

	h.Logger.Info("plan created",
		zap.String("plan_id", plan.ID),
		zap.Int("units", len(plan.Units)),
		zap.String("total", plan.Total().String()))

	writeJSON(w, http.StatusCreated, PlanDTO{
		ID:      plan.ID,
		Request: plan.Request,
		Total:   plan.Total().String(),
		Units:   plan.Units,
	})
}

// =============================================================================
// MERGING
// =============================================================================

// MergeUpload merges the uploaded "documents" parts in the order sent.
// POST /api/merge
func (h *Handler) MergeUpload(w http.ResponseWriter, r *http.Request) {
	limit := int64(h.Config.Server.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart body", err)
		return
	}

	var parts []*multipart.FileHeader
	if r.MultipartForm != nil {
		parts = r.MultipartForm.File["documents"]
	}

	docs := make([][]byte, len(parts))
	for i, part := range parts {
		b, err := readPart(part)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Failed to read document %d", i), err)
			return
		}
		docs[i] = b
	}

	merged, err := h.Merger.Merge(docs)
	if err != nil {
		h.writeDomainError(w, "Failed to merge documents", err)
		return
	}

	h.Logger.Info("documents merged", zap.Int("documents", len(docs)), zap.Int("bytes", len(merged)))

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, h.Config.Output.MergedName))
	w.WriteHeader(http.StatusOK)
	w.Write(merged)
}

// ListReceipts lists receipt files in the workspace in sequence order.
// GET /api/receipts
func (h *Handler) ListReceipts(w http.ResponseWriter, r *http.Request) {
	ws := h.Config.Workspace()
	if err := ws.Ensure(); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to open workspace", err)
		return
	}
	paths, err := ws.Receipts()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list receipts", err)
		return
	}

	files := make([]string, len(paths))
	for i, p := range paths {
		files[i] = filepath.Base(p)
	}
	writeJSON(w, http.StatusOK, ReceiptListDTO{Dir: ws.Dir, Files: files})
}

// MergeReceipts merges the workspace receipts into the configured output
// file. With ?count=N only sequences 1..N are merged. Merging whatever is
// present is the caller's explicit choice.
// POST /api/receipts/merge
func (h *Handler) MergeReceipts(w http.ResponseWriter, r *http.Request) {
	ws := h.Config.Workspace()
	if err := ws.Ensure(); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to open workspace", err)
		return
	}

	var paths []string
	var err error
	if raw := r.URL.Query().Get("count"); raw != "" {
		count, convErr := strconv.Atoi(raw)
		if convErr != nil || count < 1 {
			writeError(w, http.StatusBadRequest, "count must be a positive whole number", convErr)
			return
		}
		paths, err = ws.ReceiptsThrough(count)
	} else {
		paths, err = ws.Receipts()
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list receipts", err)
		return
	}

	out := filepath.Join(ws.Dir, h.Config.Output.MergedName)
	if err := h.Merger.MergeFiles(paths, out); err != nil {
		h.writeDomainError(w, "Failed to merge receipts", err)
		return
	}

	merged, err := os.ReadFile(out)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read merged output", err)
		return
	}
	pages, err := h.Merger.PageCount(merged)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count pages", err)
		return
	}

	h.Logger.Info("receipts merged", zap.String("output", out), zap.Int("sources", len(paths)), zap.Int("pages", pages))

	sources := make([]string, len(paths))
	for i, p := range paths {
		sources[i] = filepath.Base(p)
	}
	writeJSON(w, http.StatusOK, MergeResultDTO{Output: out, Sources: sources, Pages: pages})
}

// =============================================================================
// HELPERS
// =============================================================================

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// statusFor maps core errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case generic.IsRetryable(err):
		return http.StatusServiceUnavailable
	case errors.Is(err, generic.ErrInfeasibleDistribution), errors.Is(err, generic.ErrInfeasibleSchedule):
		return http.StatusUnprocessableEntity
	case generic.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	status := statusFor(err)
	resp := ErrorResponse{Error: message, Details: err.Error()}

	var srcErr *generic.MergeSourceError
	if errors.As(err, &srcErr) {
		idx := srcErr.Index
		resp.Index = &idx
	}
	switch {
	case generic.IsRetryable(err):
		resp.Code = "retryable"
	case generic.IsInternal(err):
		resp.Code = "internal_defect"
	}

	if status >= http.StatusInternalServerError {
		h.Logger.Error(message, zap.Error(err))
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
