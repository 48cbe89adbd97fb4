package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	properties "rentroll-cloud/internal/properties/domain"
)

type memoryRepo struct {
	items map[string]properties.Property
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: make(map[string]properties.Property)}
}

func (r *memoryRepo) Get(_ context.Context, id string) (*properties.Property, error) {
	property, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return &property, nil
}

func (r *memoryRepo) List(_ context.Context) ([]properties.Property, error) {
	var result []properties.Property
	for _, property := range r.items {
		result = append(result, property)
	}
	return result, nil
}

func (r *memoryRepo) Save(_ context.Context, property *properties.Property) error {
	if err := property.Validate(); err != nil {
		return err
	}
	r.items[property.ID] = *property
	return nil
}

func (r *memoryRepo) Delete(_ context.Context, id string) error {
	delete(r.items, id)
	return nil
}

func TestPropertiesHandler_SaveGeneratesStableID(t *testing.T) {
	repo := newMemoryRepo()
	handler, err := NewHandler(repo, nil)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}

	body := `{"name":"Elm House","address":"12 Elm St","monthlyRent":1000000}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/properties", strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var out propertyDTO
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.HasPrefix(out.ID, "prop-") {
		t.Fatalf("expected generated id, got %q", out.ID)
	}

	// The id derives from name and address: saving the same payload again
	// must hit the same record.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/properties", strings.NewReader(body))
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if len(repo.items) != 1 {
		t.Fatalf("expected one property after resave, got %d", len(repo.items))
	}
}

func TestPropertiesHandler_SaveRejectsInvalid(t *testing.T) {
	handler, err := NewHandler(newMemoryRepo(), nil)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}

	body := `{"id":"p1","name":"Elm House","monthlyRent":-5}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/properties", strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestPropertiesHandler_GetNotFound(t *testing.T) {
	handler, err := NewHandler(newMemoryRepo(), nil)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/properties/ghost", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestPropertiesHandler_PutAndDelete(t *testing.T) {
	repo := newMemoryRepo()
	handler, err := NewHandler(repo, nil)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}

	body := `{"name":"Oak Flat","monthlyRent":900000,"tenantName":"J. Doe"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/properties/p2", strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if saved, ok := repo.items["p2"]; !ok || saved.TenantName != "J. Doe" {
		t.Fatalf("property not saved under path id: %+v", repo.items)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/properties/p2", nil)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	if len(repo.items) != 0 {
		t.Fatalf("expected empty repo after delete, got %d", len(repo.items))
	}
}
