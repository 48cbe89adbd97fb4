package http

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"rentroll-cloud/internal/audit"
	"rentroll-cloud/internal/auth"
	properties "rentroll-cloud/internal/properties/domain"
)

// Handler provides property HTTP endpoints.
type Handler struct {
	repo        properties.Repository
	auditLogger audit.Logger
}

// NewHandler constructs a handler.
func NewHandler(repo properties.Repository, auditLogger audit.Logger) (*Handler, error) {
	if repo == nil {
		return nil, errors.New("properties handler: nil repository")
	}
	return &Handler{repo: repo, auditLogger: auditLogger}, nil
}

type propertyDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Address     string    `json:"address,omitempty"`
	MonthlyRent float64   `json:"monthlyRent"`
	WifiName    string    `json:"wifiName,omitempty"`
	WifiPass    string    `json:"wifiPass,omitempty"`
	AccessCode  string    `json:"accessCode,omitempty"`
	TenantName  string    `json:"tenantName,omitempty"`
	TenantPhone string    `json:"tenantPhone,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}

// ServeHTTP handles /api/v1/properties and /api/v1/properties/{id}.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/properties")
	id = strings.Trim(id, "/")

	switch {
	case r.Method == http.MethodGet && id == "":
		h.handleList(w, r)
	case r.Method == http.MethodGet:
		h.handleGet(w, r, id)
	case r.Method == http.MethodPost && id == "":
		h.handleSave(w, r)
	case r.Method == http.MethodPut && id != "":
		h.handleSaveWithID(w, r, id)
	case r.Method == http.MethodDelete && id != "":
		h.handleDelete(w, r, id)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.List(r.Context())
	if err != nil {
		http.Error(w, "query properties error", http.StatusInternalServerError)
		return
	}
	dtos := make([]propertyDTO, 0, len(list))
	for _, property := range list {
		dtos = append(dtos, toDTO(property))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(dtos)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	property, err := h.repo.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "query property error", http.StatusInternalServerError)
		return
	}
	if property == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toDTO(*property))
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, "")
}

func (h *Handler) handleSaveWithID(w http.ResponseWriter, r *http.Request, id string) {
	h.save(w, r, id)
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request, pathID string) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read body error", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var dto propertyDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if pathID != "" {
		dto.ID = pathID
	}
	if dto.ID == "" {
		dto.ID = stableID("prop", dto.Name+"|"+dto.Address)
	}

	property := &properties.Property{
		ID:          dto.ID,
		Name:        dto.Name,
		Address:     dto.Address,
		MonthlyRent: dto.MonthlyRent,
		WifiName:    dto.WifiName,
		WifiPass:    dto.WifiPass,
		AccessCode:  dto.AccessCode,
		TenantName:  dto.TenantName,
		TenantPhone: dto.TenantPhone,
	}
	if err := h.repo.Save(r.Context(), property); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toDTO(*property))

	h.logAudit(r, "property.save", property.ID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.repo.Delete(r.Context(), id); err != nil {
		http.Error(w, "delete property error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)

	h.logAudit(r, "property.delete", id)
}

func (h *Handler) logAudit(r *http.Request, action, propertyID string) {
	if h.auditLogger == nil {
		return
	}
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "property",
		ResourceID:   propertyID,
		PropertyID:   propertyID,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

func toDTO(property properties.Property) propertyDTO {
	return propertyDTO{
		ID:          property.ID,
		Name:        property.Name,
		Address:     property.Address,
		MonthlyRent: property.MonthlyRent,
		WifiName:    property.WifiName,
		WifiPass:    property.WifiPass,
		AccessCode:  property.AccessCode,
		TenantName:  property.TenantName,
		TenantPhone: property.TenantPhone,
		CreatedAt:   property.CreatedAt,
		UpdatedAt:   property.UpdatedAt,
	}
}

func stableID(prefix, key string) string {
	sum := sha1.Sum([]byte(key))
	return prefix + "-" + hex.EncodeToString(sum[:8])
}
