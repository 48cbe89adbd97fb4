package receipts

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"rentroll-cloud/internal/observability/metrics"
)

const (
	maxReceiptBytes = 10 << 20
	linkTTL         = 7 * 24 * time.Hour
)

// Handler accepts receipt uploads and returns shareable links.
type Handler struct {
	store Store
}

// NewHandler constructs a handler.
func NewHandler(store Store) (*Handler, error) {
	if store == nil {
		return nil, errors.New("receipts handler: nil store")
	}
	return &Handler{store: store}, nil
}

// ServeHTTP handles POST /api/v1/receipts (multipart, field "file").
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveReceiptUpload(result, time.Since(start))
	}()

	if err := r.ParseMultipartForm(maxReceiptBytes); err != nil {
		result = metrics.ResultError
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxReceiptBytes+1))
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "read file error", http.StatusBadRequest)
		return
	}
	if len(data) > maxReceiptBytes {
		result = metrics.ResultError
		http.Error(w, "file too large", http.StatusRequestEntityTooLarge)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	name := uuid.NewString() + filepath.Ext(header.Filename)
	key, err := h.store.Put(r.Context(), name, contentType, data)
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "store receipt error", http.StatusInternalServerError)
		return
	}
	link, err := h.store.Link(r.Context(), key, linkTTL)
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "link receipt error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]string{"id": key, "link": link})
}
