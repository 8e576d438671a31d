package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"resume-agent/internal/document"
	"resume-agent/internal/llm"
	"resume-agent/internal/repository"
	"resume-agent/internal/service"
)

func newTestRouter(t *testing.T, mock *llm.MockClient, jwtSvc *service.JWTService, maxUpload int64) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	repo := repository.NewMemorySessionRepository(0, 0)
	svc := service.NewResumeSessionService(repo, document.FileExtractor{}, service.NewResumeAgent(mock), service.NewPhraseDetector(), nil, zap.NewNop())
	return NewRouter(zap.NewNop(), NewResumeHandler(zap.NewNop(), svc, maxUpload), jwtSvc, nil, []string{"*"})
}

func multipartUpload(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func doJSON(r *gin.Engine, method, path string, payload any) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		_ = json.NewEncoder(&body).Encode(payload)
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}

func uploadTxt(t *testing.T, r *gin.Engine, content string) string {
	t.Helper()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, multipartUpload(t, "resume.txt", []byte(content)))
	if rec.Code != http.StatusOK {
		t.Fatalf("upload: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	return decodeBody(t, rec)["session_id"].(string)
}

func TestUpload_TxtEndToEnd(t *testing.T) {
	r := newTestRouter(t, &llm.MockClient{Response: "Overall Score: 7/10"}, nil, 0)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, multipartUpload(t, "resume.txt", []byte("Jane Doe, Software Engineer")))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if id, _ := body["session_id"].(string); id == "" {
		t.Fatalf("expected session_id, got %+v", body)
	}
	if body["resume_text"] != "Jane Doe, Software Engineer" {
		t.Fatalf("unexpected resume_text %v", body["resume_text"])
	}
	if body["initial_analysis"] != "Overall Score: 7/10" {
		t.Fatalf("unexpected initial_analysis %v", body["initial_analysis"])
	}
	if body["message"] != "Resume uploaded and analyzed successfully" {
		t.Fatalf("unexpected message %v", body["message"])
	}
}

func TestUpload_TruncatesLongResume(t *testing.T) {
	r := newTestRouter(t, &llm.MockClient{Response: "ok"}, nil, 0)
	long := strings.Repeat("é", 600)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, multipartUpload(t, "cv.txt", []byte(long)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	got := decodeBody(t, rec)["resume_text"].(string)
	if got != strings.Repeat("é", 500)+"..." {
		t.Fatalf("expected 500 runes plus ellipsis, got %d runes", len([]rune(got)))
	}
}

func TestUpload_InvalidDocument(t *testing.T) {
	r := newTestRouter(t, &llm.MockClient{Response: "ok"}, nil, 0)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, multipartUpload(t, "photo.bin", []byte{0xff, 0xfe, 0xfd}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if detail := decodeBody(t, rec)["detail"].(string); detail != "Unsupported file format: photo.bin" {
		t.Fatalf("unexpected detail %q", detail)
	}
}

func TestUpload_CorruptPDFDetail(t *testing.T) {
	r := newTestRouter(t, &llm.MockClient{Response: "ok"}, nil, 0)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, multipartUpload(t, "cv.pdf", []byte("definitely not a pdf")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if detail := decodeBody(t, rec)["detail"].(string); !strings.HasPrefix(detail, "Failed to parse PDF: ") {
		t.Fatalf("unexpected detail %q", detail)
	}
}

func TestUpload_LLMFailureIsGeneric500(t *testing.T) {
	r := newTestRouter(t, &llm.MockClient{Err: llm.ErrNotConfigured}, nil, 0)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, multipartUpload(t, "cv.txt", []byte("cv")))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if detail := decodeBody(t, rec)["detail"]; detail != "Failed to process resume" {
		t.Fatalf("expected generic detail, got %v", detail)
	}
}

func TestUpload_MissingFile(t *testing.T) {
	r := newTestRouter(t, &llm.MockClient{Response: "ok"}, nil, 0)
	rec := doJSON(r, http.MethodPost, "/api/upload", map[string]string{"x": "y"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUpload_TooLarge(t *testing.T) {
	r := newTestRouter(t, &llm.MockClient{Response: "ok"}, nil, 64)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, multipartUpload(t, "cv.txt", bytes.Repeat([]byte("a"), 1024)))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
}

func TestChat_ReturnsReply(t *testing.T) {
	mock := &llm.MockClient{Response: "analysis"}
	r := newTestRouter(t, mock, nil, 0)
	id := uploadTxt(t, r, "Jane Doe")

	mock.Response = "Here is a better summary"
	rec := doJSON(r, http.MethodPost, "/api/chat", map[string]string{"message": "improve my summary", "session_id": id})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["response"] != "Here is a better summary" || body["session_id"] != id {
		t.Fatalf("unexpected body %+v", body)
	}

	info := doJSON(r, http.MethodGet, "/api/session/"+id, nil)
	if got := decodeBody(t, info)["message_count"]; got != float64(3) {
		t.Fatalf("expected 3 messages, got %v", got)
	}
}

func TestChat_MalformedBody(t *testing.T) {
	r := newTestRouter(t, &llm.MockClient{Response: "ok"}, nil, 0)
	rec := doJSON(r, http.MethodPost, "/api/chat", map[string]string{"message": "hi"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestChat_EmptyFieldsRejected(t *testing.T) {
	mock := &llm.MockClient{Response: "ok"}
	r := newTestRouter(t, mock, nil, 0)
	for _, body := range []map[string]string{
		{"message": "", "session_id": "s1"},
		{"message": "hi", "session_id": ""},
	} {
		rec := doJSON(r, http.MethodPost, "/api/chat", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %v, got %d", body, rec.Code)
		}
	}
	if _, called := mock.LastRequest(); called {
		t.Fatalf("expected no LLM call for empty fields")
	}
}

func TestChat_LLMFailure(t *testing.T) {
	r := newTestRouter(t, &llm.MockClient{Err: errors.New("timeout talking to provider")}, nil, 0)
	rec := doJSON(r, http.MethodPost, "/api/chat", map[string]string{"message": "hi", "session_id": "s1"})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if detail := decodeBody(t, rec)["detail"]; detail != "Failed to get response" {
		t.Fatalf("expected fixed detail, got %v", detail)
	}
	if strings.Contains(rec.Body.String(), "timeout") {
		t.Fatalf("upstream detail must not leak: %s", rec.Body.String())
	}
}

func TestChatStream_EmitsEvents(t *testing.T) {
	mock := &llm.MockClient{Chunks: []string{"Hel", "lo"}}
	r := newTestRouter(t, mock, nil, 0)

	rec := doJSON(r, http.MethodPost, "/api/chat/stream", map[string]string{"message": "hi", "session_id": "s1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("expected event-stream content type, got %q", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{"event:message", `"text":"Hel"`, `"text":"lo"`, "event:done"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in stream body %q", want, body)
		}
	}

	info := doJSON(r, http.MethodGet, "/api/session/s1", nil)
	if got := decodeBody(t, info)["message_count"]; got != float64(2) {
		t.Fatalf("expected user and assistant messages stored, got %v", got)
	}
}

func TestChatStream_ErrorEvent(t *testing.T) {
	mock := &llm.MockClient{Chunks: []string{"par"}, StreamErr: errors.New("overloaded")}
	r := newTestRouter(t, mock, nil, 0)

	rec := doJSON(r, http.MethodPost, "/api/chat/stream", map[string]string{"message": "hi", "session_id": "s1"})
	body := rec.Body.String()
	if !strings.Contains(body, "event:error") || strings.Contains(body, "event:done") {
		t.Fatalf("expected error event without done, got %q", body)
	}
	if strings.Contains(body, "overloaded") {
		t.Fatalf("upstream detail must not leak: %q", body)
	}
}

func TestSessionInfo(t *testing.T) {
	r := newTestRouter(t, &llm.MockClient{Response: "ok"}, nil, 0)

	rec := doJSON(r, http.MethodGet, "/api/session/unknown", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if detail := decodeBody(t, rec)["detail"]; detail != "Session not found" {
		t.Fatalf("unexpected detail %v", detail)
	}

	id := uploadTxt(t, r, "cv")
	rec = doJSON(r, http.MethodGet, "/api/session/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["session_id"] != id || body["has_resume"] != true || body["message_count"] != float64(1) {
		t.Fatalf("unexpected info %+v", body)
	}
	if _, err := time.Parse(time.RFC3339Nano, body["created_at"].(string)); err != nil {
		t.Fatalf("expected ISO created_at, got %v", body["created_at"])
	}
}

func TestImprove(t *testing.T) {
	mock := &llm.MockClient{Response: "ok"}
	r := newTestRouter(t, mock, nil, 0)

	rec := doJSON(r, http.MethodPost, "/api/improve?session_id=unknown&target_role=SRE", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	if rec := doJSON(r, http.MethodPost, "/api/chat", map[string]string{"message": "hi", "session_id": "empty"}); rec.Code != http.StatusOK {
		t.Fatalf("chat: expected 200, got %d", rec.Code)
	}
	for _, q := range []string{"target_role=SRE", "target_role=SRE&target_company=Google", ""} {
		rec = doJSON(r, http.MethodPost, "/api/improve?session_id=empty&"+q, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 without resume for %q, got %d", q, rec.Code)
		}
		if detail := decodeBody(t, rec)["detail"]; detail != "No resume uploaded for this session" {
			t.Fatalf("unexpected detail %v", detail)
		}
	}

	id := uploadTxt(t, r, "cv")
	mock.Response = "Add Terraform"
	rec = doJSON(r, http.MethodPost, "/api/improve?session_id="+id+"&target_role=SRE&target_company=Google", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := decodeBody(t, rec)["suggestions"]; got != "Add Terraform" {
		t.Fatalf("unexpected suggestions %v", got)
	}
	req, _ := mock.LastRequest()
	if !strings.Contains(req.Messages[0].Content, "SRE position at Google") {
		t.Fatalf("expected role and company in prompt")
	}
}

func TestRewrite(t *testing.T) {
	r := newTestRouter(t, &llm.MockClient{Response: "Rewritten!"}, nil, 0)

	rec := doJSON(r, http.MethodPost, "/api/rewrite", map[string]string{"section_text": "", "section_type": "summary"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	rec = doJSON(r, http.MethodPost, "/api/rewrite", map[string]string{"section_text": "Did stuff", "section_type": "experience", "context": "SRE"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := decodeBody(t, rec)["rewritten"]; got != "Rewritten!" {
		t.Fatalf("unexpected rewritten %v", got)
	}
}

func TestDeleteSession_Idempotent(t *testing.T) {
	r := newTestRouter(t, &llm.MockClient{Response: "ok"}, nil, 0)
	id := uploadTxt(t, r, "cv")

	for i := 0; i < 2; i++ {
		rec := doJSON(r, http.MethodDelete, "/api/session/"+id, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if msg := decodeBody(t, rec)["message"]; msg != "Session deleted" {
			t.Fatalf("unexpected message %v", msg)
		}
	}
	if rec := doJSON(r, http.MethodGet, "/api/session/"+id, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestRootAndHealth(t *testing.T) {
	r := newTestRouter(t, &llm.MockClient{}, nil, 0)

	rec := doJSON(r, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK || decodeBody(t, rec)["status"] != "healthy" {
		t.Fatalf("unexpected health response %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(r, http.MethodGet, "/", nil)
	body := decodeBody(t, rec)
	if body["name"] != "Resume Review Agent" || body["status"] != "running" {
		t.Fatalf("unexpected root body %+v", body)
	}
}

func TestAPIRequiresTokenWhenConfigured(t *testing.T) {
	jwtSvc := service.NewJWTService("secret", time.Hour)
	r := newTestRouter(t, &llm.MockClient{Response: "ok"}, jwtSvc, 0)

	if rec := doJSON(r, http.MethodGet, "/api/session/x", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if rec := doJSON(r, http.MethodGet, "/health", nil); rec.Code != http.StatusOK {
		t.Fatalf("health must stay public, got %d", rec.Code)
	}

	token, err := jwtSvc.Issue("frontend")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/session/x", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 with valid token, got %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(t, &llm.MockClient{}, nil, 0)

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}

func TestRateLimitOnLLMRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := repository.NewMemorySessionRepository(0, 0)
	svc := service.NewResumeSessionService(repo, document.FileExtractor{}, service.NewResumeAgent(&llm.MockClient{Response: "ok"}), service.NewPhraseDetector(), nil, zap.NewNop())
	limiter := service.NewMemoryRateLimiter(time.Minute, 1)
	r := NewRouter(zap.NewNop(), NewResumeHandler(zap.NewNop(), svc, 0), nil, limiter, []string{"*"})

	payload := map[string]string{"message": "hi", "session_id": "s1"}
	if rec := doJSON(r, http.MethodPost, "/api/chat", payload); rec.Code != http.StatusOK {
		t.Fatalf("expected first call allowed, got %d", rec.Code)
	}
	rec := doJSON(r, http.MethodPost, "/api/chat", payload)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if detail := decodeBody(t, rec)["detail"]; detail != "Too many requests" {
		t.Fatalf("unexpected detail %v", detail)
	}
	if rec := doJSON(r, http.MethodGet, "/api/session/s1", nil); rec.Code != http.StatusOK {
		t.Fatalf("session info must not be rate limited, got %d", rec.Code)
	}
}
