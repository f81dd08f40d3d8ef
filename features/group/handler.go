package group

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"docgarden/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(ctx, w, "INVALID_REQUEST", "invalid request body", http.StatusBadRequest)
		return
	}

	g, err := h.service.Create(ctx, in)
	if err != nil {
		switch {
		case errors.Is(err, ErrNameRequired), errors.Is(err, ErrParentMissing):
			writeError(ctx, w, "INVALID_REQUEST", err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrNameTaken):
			writeError(ctx, w, "CONFLICT", err.Error(), http.StatusConflict)
		default:
			slog.ErrorContext(ctx, "failed to create group", "error", err)
			writeError(ctx, w, "INTERNAL_ERROR", "failed to create group", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(g)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	groups, err := h.service.List(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list groups", "error", err)
		writeError(ctx, w, "INTERNAL_ERROR", "failed to list groups", http.StatusInternalServerError)
		return
	}
	if groups == nil {
		groups = []Group{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"groups": groups})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	g, err := h.service.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(ctx, w, "NOT_FOUND", "group not found", http.StatusNotFound)
			return
		}
		slog.ErrorContext(ctx, "failed to get group", "error", err, "group_id", id)
		writeError(ctx, w, "INTERNAL_ERROR", "failed to get group", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(g)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	var in UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(ctx, w, "INVALID_REQUEST", "invalid request body", http.StatusBadRequest)
		return
	}

	g, err := h.service.Update(ctx, id, in)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			writeError(ctx, w, "NOT_FOUND", "group not found", http.StatusNotFound)
		case errors.Is(err, ErrNameRequired), errors.Is(err, ErrParentMissing), errors.Is(err, ErrParentCycle):
			writeError(ctx, w, "INVALID_REQUEST", err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrNameTaken):
			writeError(ctx, w, "CONFLICT", err.Error(), http.StatusConflict)
		default:
			slog.ErrorContext(ctx, "failed to update group", "error", err, "group_id", id)
			writeError(ctx, w, "INTERNAL_ERROR", "failed to update group", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(g)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	if err := h.service.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(ctx, w, "NOT_FOUND", "group not found", http.StatusNotFound)
			return
		}
		slog.ErrorContext(ctx, "failed to delete group", "error", err, "group_id", id)
		writeError(ctx, w, "INTERNAL_ERROR", "failed to delete group", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AddDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	var in struct {
		Documents []string `json:"documents"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || len(in.Documents) == 0 {
		writeError(ctx, w, "INVALID_REQUEST", "documents array is required", http.StatusBadRequest)
		return
	}

	g, err := h.service.AddDocuments(ctx, id, in.Documents)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(ctx, w, "NOT_FOUND", "group or document not found", http.StatusNotFound)
			return
		}
		slog.ErrorContext(ctx, "failed to add documents to group", "error", err, "group_id", id)
		writeError(ctx, w, "INTERNAL_ERROR", "failed to add documents", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(g)
}

func writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	})
}
