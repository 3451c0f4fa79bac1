package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/fmeta/backend/internal/apperr"
	"github.com/fmeta/backend/internal/logging"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{name: "validation", err: apperr.Validation("Post text is required"), status: http.StatusBadRequest, message: "Post text is required"},
		{name: "conflict", err: apperr.ErrAlreadyFollows, status: http.StatusConflict, message: "You are already following this user"},
		{name: "unauthorized", err: apperr.ErrInvalidCredentials, status: http.StatusUnauthorized, message: "Invalid credentials"},
		{name: "not found", err: apperr.ErrContentNotFound, status: http.StatusNotFound},
		{name: "forbidden", err: apperr.ErrForbidden, status: http.StatusForbidden},
		{name: "internal", err: apperr.Internal("query contents", errors.New("connection reset")), status: http.StatusInternalServerError},
		{name: "plain error", err: errors.New("boom"), status: http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondError(context.Background(), rec, tc.err)

			if rec.Code != tc.status {
				t.Fatalf("expected status %d got %d", tc.status, rec.Code)
			}
			var body messageResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Success {
				t.Fatal("expected success=false")
			}
			if tc.message != "" && body.Message != tc.message {
				t.Fatalf("expected message %q got %q", tc.message, body.Message)
			}
			if strings.Contains(body.Message, "connection reset") || strings.Contains(body.Message, "boom") {
				t.Fatalf("internal detail leaked: %q", body.Message)
			}
		})
	}
}

func TestDecodeRequestValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "empty body", body: "", want: "Request body is required"},
		{name: "malformed", body: "{", want: "Invalid request body"},
		{name: "missing field", body: `{"identifier":"alice"}`, want: "password is required"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			var dst loginRequest
			err := decodeRequest(httptest.NewRecorder(), req, &dst)
			if err == nil {
				t.Fatal("expected error")
			}
			if apperr.KindOf(err) != apperr.KindValidation {
				t.Fatalf("expected validation error got %v", err)
			}
			if got := apperr.PublicMessage(err); got != tc.want {
				t.Fatalf("expected %q got %q", tc.want, got)
			}
		})
	}
}

func TestCreateRequestAcceptsSingleOrListMedia(t *testing.T) {
	var single createContentRequest
	if err := json.Unmarshal([]byte(`{"contentType":"reel","media":{"url":"v.mp4","type":"video"}}`), &single); err != nil {
		t.Fatalf("unmarshal single: %v", err)
	}
	if len(single.Media) != 1 || single.Media[0].URL != "v.mp4" {
		t.Fatalf("unexpected media %+v", single.Media)
	}

	var list createContentRequest
	if err := json.Unmarshal([]byte(`{"contentType":"post","media":[{"url":"a.jpg","type":"image"},{"url":"b.jpg","type":"image"}]}`), &list); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	in := list.input()
	if len(in.Media) != 2 || in.Media[1].URL != "b.jpg" || in.Kind != "post" {
		t.Fatalf("unexpected input %+v", in)
	}

	var bad createContentRequest
	if err := json.Unmarshal([]byte(`{"media":[{"url":"a.gif","type":"gif"}]}`), &bad); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := validateRequest(&bad); err == nil {
		t.Fatal("expected unsupported media type to fail validation")
	}
}

func TestQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=3&limit=abc&offset=-2", nil)
	if got := queryInt(req, "page"); got != 3 {
		t.Fatalf("expected 3 got %d", got)
	}
	if got := queryInt(req, "limit"); got != 0 {
		t.Fatalf("expected 0 for malformed value got %d", got)
	}
	if got := queryInt(req, "offset"); got != 0 {
		t.Fatalf("expected 0 for negative value got %d", got)
	}
	if got := queryInt(req, "missing"); got != 0 {
		t.Fatalf("expected 0 for missing value got %d", got)
	}
}

type recordingStorage struct {
	key         string
	contentType string
	data        []byte
	err         error
}

func (s *recordingStorage) Save(_ context.Context, key string, r io.Reader, contentType string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.key = key
	s.contentType = contentType
	s.data = data
	return "https://cdn.example.com/" + key, nil
}

func multipartUpload(t *testing.T, filename, contentType string, data []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/media", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req.WithContext(logging.WithAccountID(req.Context(), "acct-1"))
}

func TestMediaUpload(t *testing.T) {
	store := &recordingStorage{}
	handler := MediaHandler{
		Storage: store,
		NowFunc: func() time.Time { return time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC) },
	}

	rec := httptest.NewRecorder()
	handler.Upload(rec, multipartUpload(t, "Beach.JPG", "image/jpeg", []byte("jpeg-bytes")))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.HasPrefix(store.key, "media/acct-1/2024/03/09/") || !strings.HasSuffix(store.key, ".jpg") {
		t.Fatalf("unexpected key %q", store.key)
	}
	if string(store.data) != "jpeg-bytes" || store.contentType != "image/jpeg" {
		t.Fatalf("unexpected stored object %q %q", store.data, store.contentType)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["type"] != "image" || body["url"] != "https://cdn.example.com/"+store.key {
		t.Fatalf("unexpected response %v", body)
	}
}

func TestMediaUploadRejections(t *testing.T) {
	tests := []struct {
		name   string
		store  *recordingStorage
		req    func(t *testing.T) *http.Request
		status int
	}{
		{
			name:  "missing file",
			store: &recordingStorage{},
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/api/media", strings.NewReader(""))
			},
			status: http.StatusBadRequest,
		},
		{
			name:  "unsupported type",
			store: &recordingStorage{},
			req: func(t *testing.T) *http.Request {
				return multipartUpload(t, "notes.txt", "text/plain", []byte("hello"))
			},
			status: http.StatusBadRequest,
		},
		{
			name:  "storage failure",
			store: &recordingStorage{err: errors.New("bucket unavailable")},
			req: func(t *testing.T) *http.Request {
				return multipartUpload(t, "clip.mp4", "video/mp4", []byte("mp4"))
			},
			status: http.StatusInternalServerError,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			MediaHandler{Storage: tc.store}.Upload(rec, tc.req(t))
			if rec.Code != tc.status {
				t.Fatalf("expected %d got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
		})
	}
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandlerHandle(t *testing.T) {
	handler := HealthHandler{}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	handler.Handle(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("expected json content type got %s", got)
	}

	handler.Store = pingerFunc(func(context.Context) error { return errors.New("dial tcp: refused") })
	rec = httptest.NewRecorder()
	handler.Handle(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"degraded"`) {
		t.Fatalf("expected degraded status got %s", rec.Body.String())
	}
}
