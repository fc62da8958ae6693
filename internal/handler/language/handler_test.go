package language

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/codegen-chat/backend/internal/model/language"
)

func TestListLanguages(t *testing.T) {
	r := chi.NewRouter()
	New(language.NewMemoryStore(language.Seed())).RegisterRoutes(r)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/languages", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var got []language.Language
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if len(got) != len(language.Seed()) {
		t.Fatalf("expected %d languages, got %d", len(language.Seed()), len(got))
	}
	if got[0].ID != "python" {
		t.Fatalf("expected python first, got %s", got[0].ID)
	}
}
