package facecompare

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCompareParsesConfidenceAndFaceFlags(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart form: %v", err)
		}
		if got := r.FormValue("api_key"); got != "key" {
			t.Fatalf("unexpected api_key: %q", got)
		}
		if _, _, err := r.FormFile("image_file1"); err != nil {
			t.Fatalf("missing image_file1: %v", err)
		}
		if _, _, err := r.FormFile("image_file2"); err != nil {
			t.Fatalf("missing image_file2: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"confidence": 87.5, "faces1": [{}], "faces2": [{}]}`))
	}))
	defer server.Close()

	client := NewClient(server.Client(), Config{URL: server.URL, APIKey: "key", APISecret: "secret"})

	result, err := client.Compare(context.Background(), strings.NewReader("profile"), strings.NewReader("selfie"))
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if result.Confidence != 87.5 {
		t.Fatalf("unexpected confidence: %v", result.Confidence)
	}
	if !result.Face1Detected || !result.Face2Detected {
		t.Fatalf("expected both faces detected, got %+v", result)
	}
}

func TestCompareSurfacesVendorError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error_message": "CONCURRENCY_LIMIT_EXCEEDED"}`))
	}))
	defer server.Close()

	client := NewClient(server.Client(), Config{URL: server.URL})

	_, err := client.Compare(context.Background(), strings.NewReader("a"), strings.NewReader("b"))
	if err == nil || !strings.Contains(err.Error(), "CONCURRENCY_LIMIT_EXCEEDED") {
		t.Fatalf("expected vendor error, got %v", err)
	}
}

func TestCompareRejectsNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.Client(), Config{URL: server.URL})

	_, err := client.Compare(context.Background(), strings.NewReader("a"), strings.NewReader("b"))
	if err == nil {
		t.Fatalf("expected error for non-2xx status")
	}
}

func TestCompareRequiresBothImages(t *testing.T) {
	client := NewClient(nil, Config{URL: "https://example.test"})

	if _, err := client.Compare(context.Background(), nil, strings.NewReader("b")); err == nil {
		t.Fatalf("expected validation error for missing profile image")
	}
}
