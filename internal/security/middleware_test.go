package security

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestBodyLimitRejectsOversizedPayload(t *testing.T) {
	limit := BodyLimit{Max: 16}
	wrapped := limit.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	body := bytes.NewBufferString(strings.Repeat("x", 64))
	wrapped.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/cart/items", body))
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rr.Code)
	}
}

func TestBodyLimitPassesSmallPayloadIntact(t *testing.T) {
	limit := BodyLimit{Max: 64}
	var got string
	wrapped := limit.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		got = string(data)
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/cart/items", bytes.NewBufferString(`{"productId":"x"}`)))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got != `{"productId":"x"}` {
		t.Fatalf("body mangled: %q", got)
	}
}

func TestHeadersSetWhenEnabled(t *testing.T) {
	h := Headers{Enable: true}
	wrapped := h.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/products", nil))
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("expected nosniff header")
	}
	if rr.Header().Get("X-Frame-Options") != "DENY" {
		t.Fatal("expected frame options header")
	}
}

func TestHeadersDisabled(t *testing.T) {
	h := Headers{}
	wrapped := h.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/products", nil))
	if rr.Header().Get("X-Content-Type-Options") != "" {
		t.Fatal("expected no headers when disabled")
	}
}
