package recognition

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/franckalain/foodlens/internal/models"
)

func newTestRouter(store *memStore, apiKey string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return SetupRouter(NewHandler(newTestService(store, nil), apiKey))
}

func post(r http.Handler, body, apiKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/analyze-food", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("x-api-key", apiKey)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %s", w.Body.String())
	}
	return body["error"]
}

func TestAnalyzeFoodSuccess(t *testing.T) {
	r := newTestRouter(newMemStore(), "secret")

	w := post(r, `{"image":"`+photo+`"}`, "secret")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var result models.AnalysisResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.Food != "Salad" || result.Calories != 180 {
		t.Errorf("result = %+v", result)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestAnalyzeFoodErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		apiKey  string
		status  int
		message string
	}{
		{"missing image", `{}`, "secret", http.StatusBadRequest, "image missing"},
		{"invalid json", `{"image":`, "secret", http.StatusBadRequest, "Invalid input"},
		{"bad base64", `{"image":"***"}`, "secret", http.StatusBadRequest, "image is not valid base64"},
		{"no key", `{"image":"` + photo + `"}`, "", http.StatusUnauthorized, "invalid API key"},
		{"wrong key", `{"image":"` + photo + `"}`, "other", http.StatusUnauthorized, "invalid API key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			w := post(newTestRouter(store, "secret"), tt.body, tt.apiKey)

			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.status, w.Body.String())
			}
			if got := errorMessage(t, w); got != tt.message {
				t.Errorf("error = %q, want %q", got, tt.message)
			}
			if len(store.objects) != 0 {
				t.Error("a rejected request stored an object")
			}
		})
	}
}

func TestAnalyzeFoodStorageFailure(t *testing.T) {
	store := newMemStore()
	store.err = errTest
	w := post(newTestRouter(store, ""), `{"image":"`+photo+`"}`, "")

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if got := errorMessage(t, w); got != "Processing failed" {
		t.Errorf("error = %q", got)
	}
}

func TestAnalyzeFoodPreflight(t *testing.T) {
	r := newTestRouter(newMemStore(), "secret")

	req := httptest.NewRequest(http.MethodOptions, "/analyze-food", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Headers"); got != "*" {
		t.Errorf("Access-Control-Allow-Headers = %q", got)
	}
}

func TestHealth(t *testing.T) {
	r := newTestRouter(newMemStore(), "secret")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK || w.Body.String() != "OK" {
		t.Errorf("health = %d %q", w.Code, w.Body.String())
	}
}
