package options

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/z-interview/backend/internal/model/interview"
)

func TestListOptions(t *testing.T) {
	r := chi.NewRouter()
	New(interview.NewMemoryStore(interview.Seed())).RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/options", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var catalog interview.Catalog
	if err := json.NewDecoder(resp.Body).Decode(&catalog); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(catalog.Levels) != 3 {
		t.Fatalf("expected 3 levels, got %d", len(catalog.Levels))
	}
	if catalog.Defaults.Position != "Data Scientist" || catalog.Defaults.Company != "Amazon" {
		t.Fatalf("unexpected defaults: %+v", catalog.Defaults)
	}
}
