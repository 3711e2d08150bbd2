package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/georgemunganga/storefront-api/internal/apperr"
)

func TestErrorWritesClassifiedPayload(t *testing.T) {
	rr := httptest.NewRecorder()
	Error(rr, fmt.Errorf("%w: product abc", apperr.ErrProductNotFound))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "product_not_found" || !strings.Contains(body["detail"], "abc") {
		t.Fatalf("unexpected body %v", body)
	}
}

type sample struct {
	Name string `json:"name" validate:"required"`
	Qty  int    `json:"qty" validate:"gt=0"`
}

func TestDecodeValidates(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"","qty":0}`))
	var s sample
	err := Decode(r, &s)
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if !strings.Contains(err.Error(), "sample.Name") {
		t.Fatalf("expected field name in error, got %v", err)
	}

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{not json`))
	if err := Decode(r, &s); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("malformed JSON should be invalid input, got %v", err)
	}

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","qty":2}`))
	if err := Decode(r, &s); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestLoggingPassesThrough(t *testing.T) {
	h := middleware.RequestID(Logging(zap.NewNop(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected 418, got %d", rr.Code)
	}
}
