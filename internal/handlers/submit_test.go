package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ajuraforce/photo-product-analyzer/internal/catalog"
	"github.com/ajuraforce/photo-product-analyzer/internal/normalize"
	"github.com/ajuraforce/photo-product-analyzer/internal/pipeline"
	"github.com/ajuraforce/photo-product-analyzer/internal/validate"
	"github.com/ajuraforce/photo-product-analyzer/internal/vocab"
)

type stubPublisher struct{}

func (stubPublisher) Publish(ctx context.Context, requestID string, data []byte, format string) (string, error) {
	return "http://host/uploads/" + requestID + "." + format, nil
}

type stubExtractor struct {
	raw string
	err error
}

func (s stubExtractor) Extract(ctx context.Context, imageURL string) (string, error) {
	return s.raw, s.err
}

type stubWriter struct {
	rows map[string]string
}

func (s *stubWriter) Append(ctx context.Context, rec catalog.Record) (string, error) {
	if s.rows == nil {
		s.rows = make(map[string]string)
	}
	s.rows[rec.RequestID] = "1"
	return "1", nil
}

func (s *stubWriter) Find(ctx context.Context, requestID string) (string, bool, error) {
	id, ok := s.rows[requestID]
	return id, ok, nil
}

func testHandler(t *testing.T, ext stubExtractor) (*Handler, *stubWriter) {
	t.Helper()
	return testHandlerWithLimit(t, ext, 10*1024*1024)
}

func testHandlerWithLimit(t *testing.T, ext stubExtractor, maxBytes int64) (*Handler, *stubWriter) {
	t.Helper()
	limits := validate.Limits{
		MaxBytes:     maxBytes,
		Formats:      []string{"jpg", "jpeg", "png"},
		MinDimension: 100,
		MaxDimension: 12000,
	}
	norm := normalize.New(
		vocab.New("type", []string{"chair", "shirt"}),
		vocab.New("color", []string{"red", "blue"}),
	)
	wr := &stubWriter{}
	o := pipeline.New(limits, stubPublisher{}, ext, norm, wr, nil)
	return New(o, t.TempDir(), maxBytes), wr
}

func photoRequest(t *testing.T, senderID string, data []byte, filename string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if senderID != "" {
		if err := mw.WriteField("sender_id", senderID); err != nil {
			t.Fatal(err)
		}
	}
	part, err := mw.CreateFormFile("photo", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/products", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 640, 480))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestHandleSubmitSuccess(t *testing.T) {
	h, wr := testHandler(t, stubExtractor{raw: `{"type":"Chair","color":"Red","brand":"Acme","description":"Office chair"}`})

	rec := httptest.NewRecorder()
	h.HandleSubmit(rec, photoRequest(t, "alice", testPNG(t), "chair.png"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		RequestID   string `json:"request_id"`
		RowID       string `json:"row_id"`
		ProductType string `json:"product_type"`
		Color       string `json:"color"`
		ImageURL    string `json:"image_url"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.ProductType != "chair" || resp.Color != "red" {
		t.Errorf("response = %+v", resp)
	}
	if !strings.HasPrefix(resp.RequestID, "PROD_") || resp.RowID != "1" {
		t.Errorf("response = %+v", resp)
	}
	if len(wr.rows) != 1 {
		t.Errorf("rows = %d, want 1", len(wr.rows))
	}
}

func TestHandleSubmitValidationStatuses(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		filename string
		raw      string
		extErr   error
		want     int
	}{
		{
			name:     "corrupt image",
			data:     []byte("not an image"),
			filename: "x.png",
			want:     http.StatusBadRequest,
		},
		{
			name:     "unsupported format",
			data:     []byte("irrelevant"),
			filename: "x.bmp",
			want:     http.StatusBadRequest,
		},
		{
			name:     "out of vocabulary",
			filename: "x.png",
			raw:      `{"type":"Chair","color":"Mauve"}`,
			want:     http.StatusUnprocessableEntity,
		},
		{
			name:     "extraction failure",
			filename: "x.png",
			extErr:   errors.New("model unavailable"),
			want:     http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, wr := testHandler(t, stubExtractor{raw: tt.raw, err: tt.extErr})

			data := tt.data
			if data == nil {
				data = testPNG(t)
			}
			rec := httptest.NewRecorder()
			h.HandleSubmit(rec, photoRequest(t, "alice", data, tt.filename))

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d, body = %s", rec.Code, tt.want, rec.Body.String())
			}
			if len(wr.rows) != 0 {
				t.Error("failed submission must not write a row")
			}
		})
	}
}

func TestHandleSubmitOversizedUploadRejected(t *testing.T) {
	const maxBytes = 1024
	h, wr := testHandlerWithLimit(t, stubExtractor{}, maxBytes)

	// The part is read through a limit of maxBytes+1, so even a much larger
	// body is rejected as too large without being buffered whole.
	big := bytes.Repeat([]byte{0xab}, 64*1024)
	rec := httptest.NewRecorder()
	h.HandleSubmit(rec, photoRequest(t, "alice", big, "huge.jpg"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "too large") {
		t.Errorf("body = %s, want size rejection", rec.Body.String())
	}
	if len(wr.rows) != 0 {
		t.Error("oversized upload must not write a row")
	}
}

func TestHandleSubmitMethodNotAllowed(t *testing.T) {
	h, _ := testHandler(t, stubExtractor{})

	rec := httptest.NewRecorder()
	h.HandleSubmit(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestHandleSubmitMissingFile(t *testing.T) {
	h, _ := testHandler(t, stubExtractor{})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("sender_id", "alice"); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/products", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := httptest.NewRecorder()
	h.HandleSubmit(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestHandleSubmitSenderDefaultsToRemoteAddr(t *testing.T) {
	h, _ := testHandler(t, stubExtractor{raw: `{"type":"chair","color":"red"}`})

	req := photoRequest(t, "", testPNG(t), "chair.png")
	req.RemoteAddr = "192.0.2.7:54321"

	rec := httptest.NewRecorder()
	h.HandleSubmit(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestHandleUploads(t *testing.T) {
	h, _ := testHandler(t, stubExtractor{})
	if err := os.WriteFile(filepath.Join(h.uploadDir, "PROD_1.png"), testPNG(t), 0644); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	h.HandleUploads(rec, httptest.NewRequest(http.MethodGet, "/uploads/PROD_1.png", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.HandleUploads(rec, httptest.NewRequest(http.MethodGet, "/uploads/..%2Fsecret", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("traversal status = %d", rec.Code)
	}
}
