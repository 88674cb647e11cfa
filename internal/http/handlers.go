package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"atlasinvoice/internal/service"
	"atlasinvoice/internal/store"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	svc            *service.Service
	backend        string
	maxUploadBytes int64
}

func NewHandler(svc *service.Service, backend string, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 32 << 20
	}
	return &Handler{svc: svc, backend: backend, maxUploadBytes: maxUploadBytes}
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "backend": h.backend})
}

func (h *Handler) ListMonths(w http.ResponseWriter, _ *http.Request) {
	months := h.svc.Months()
	writeJSON(w, http.StatusOK, map[string]any{"months": months, "count": len(months)})
}

func (h *Handler) GetMonth(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.MonthDetail(chi.URLParam(r, "month"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) UploadInvoice(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	result, err := h.svc.Upload(r.Context(), service.UploadInput{
		Month:       chi.URLParam(r, "month"),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	status := http.StatusCreated
	if !result.Saved {
		status = http.StatusAccepted
	}
	writeJSON(w, status, result)
}

func (h *Handler) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.DeleteInvoice(r.Context(), chi.URLParam(r, "month"), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, mutationStatus(result), result)
}

func (h *Handler) ClearMonth(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ClearMonth(r.Context(), chi.URLParam(r, "month"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, mutationStatus(result), result)
}

func (h *Handler) ExportMonth(w http.ResponseWriter, r *http.Request) {
	format, err := service.ParseExportFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var buf bytes.Buffer
	month, err := h.svc.ExportMonth(&buf, chi.URLParam(r, "month"), format)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+format.FileName(month)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.svc.Dashboard(r.URL.Query().Get("filter"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	hits, err := h.svc.Search(query)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query":   strings.TrimSpace(query),
		"results": hits,
		"count":   len(hits),
	})
}

func mutationStatus(result service.MutationResult) int {
	if result.Saved {
		return http.StatusOK
	}
	return http.StatusAccepted
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrUnknownMonth):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrInvoiceNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotCSV),
		errors.Is(err, service.ErrInvalidCSV),
		errors.Is(err, service.ErrEmptyQuery),
		errors.Is(err, service.ErrUnknownFormat):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
