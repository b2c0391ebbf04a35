package facecompare

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

var ErrValidation = errors.New("validation error")

// Result is the raw outcome of one compare call. Confidence is the vendor's
// 0..100 similarity score.
type Result struct {
	Confidence    float64
	Face1Detected bool
	Face2Detected bool
}

type Client struct {
	httpClient *http.Client
	url        string
	apiKey     string
	apiSecret  string
}

type Config struct {
	URL       string
	APIKey    string
	APISecret string
}

func NewClient(httpClient *http.Client, cfg Config) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		url:        strings.TrimSpace(cfg.URL),
		apiKey:     cfg.APIKey,
		apiSecret:  cfg.APISecret,
	}
}

type compareResponse struct {
	Confidence   float64           `json:"confidence"`
	Faces1       []json.RawMessage `json:"faces1"`
	Faces2       []json.RawMessage `json:"faces2"`
	ErrorMessage string            `json:"error_message"`
}

// Compare submits both images as multipart form files and returns the
// similarity score. A non-2xx status or a vendor error_message is returned
// as an error; the caller decides how failures gate verification.
func (c *Client) Compare(ctx context.Context, profilePhoto, selfie io.Reader) (Result, error) {
	if c.url == "" {
		return Result{}, fmt.Errorf("compare url is not configured")
	}
	if profilePhoto == nil || selfie == nil {
		return Result{}, ErrValidation
	}

	body := &strings.Builder{}
	writer := multipart.NewWriter(body)

	fields := map[string]string{
		"api_key":    c.apiKey,
		"api_secret": c.apiSecret,
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return Result{}, fmt.Errorf("write form field %s: %w", name, err)
		}
	}

	files := []struct {
		field    string
		filename string
		reader   io.Reader
	}{
		{field: "image_file1", filename: "profile.jpg", reader: profilePhoto},
		{field: "image_file2", filename: "selfie.jpg", reader: selfie},
	}
	for _, file := range files {
		part, err := writer.CreateFormFile(file.field, file.filename)
		if err != nil {
			return Result{}, fmt.Errorf("create form file %s: %w", file.field, err)
		}
		if _, err := io.Copy(part, file.reader); err != nil {
			return Result{}, fmt.Errorf("copy %s payload: %w", file.field, err)
		}
	}

	if err := writer.Close(); err != nil {
		return Result{}, fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(body.String()))
	if err != nil {
		return Result{}, fmt.Errorf("build compare request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("call compare api: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, fmt.Errorf("read compare response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("compare api status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var parsed compareResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return Result{}, fmt.Errorf("decode compare response: %w", err)
	}
	if parsed.ErrorMessage != "" {
		return Result{}, fmt.Errorf("compare api error: %s", parsed.ErrorMessage)
	}

	return Result{
		Confidence:    parsed.Confidence,
		Face1Detected: len(parsed.Faces1) > 0,
		Face2Detected: len(parsed.Faces2) > 0,
	}, nil
}
