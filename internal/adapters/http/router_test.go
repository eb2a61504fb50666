package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/tesfayh/ulss9-assistant/internal/core/domain"
	"github.com/tesfayh/ulss9-assistant/internal/core/ports"
	"github.com/tesfayh/ulss9-assistant/internal/observability/logging"
)

func testLogger() *slog.Logger {
	return logging.NewJSONLogger("test", "error")
}

type chatServiceFake struct {
	req         ports.ChatRequest
	result      domain.ChatResult
	suggestions []string
}

func (f *chatServiceFake) Chat(_ context.Context, req ports.ChatRequest) domain.ChatResult {
	f.req = req
	return f.result
}

func (f *chatServiceFake) SuggestFollowUps(context.Context, string, string, string) []string {
	return f.suggestions
}

type selectorFake struct {
	called    bool
	selection domain.StoreSelection
}

func (f *selectorFake) SelectStores(context.Context, string) domain.StoreSelection {
	f.called = true
	return f.selection
}

type registryFake struct {
	stores []domain.Store
}

func (f *registryFake) Stores(context.Context) []domain.Store { return f.stores }

type adminFake struct {
	stores     []domain.StoreInfo
	documents  []domain.DocumentInfo
	deleted    []string
	deletedDoc string
	created    string
	uploaded   *ports.UploadRequest
	err        error
}

func (f *adminFake) CreateStore(_ context.Context, id, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.created = id
	return "fileSearchStores/" + id, nil
}

func (f *adminFake) EnsureSeedStores(context.Context) ([]domain.StoreInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.stores, nil
}

func (f *adminFake) ListStores(context.Context) ([]domain.StoreInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.stores, nil
}

func (f *adminFake) DeleteStore(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *adminFake) DeleteAllStores(context.Context) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []string{"hours"}, nil
}

func (f *adminFake) UploadDocument(_ context.Context, req ports.UploadRequest) (*domain.UploadResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.uploaded = &req
	return &domain.UploadResult{Filename: req.FilePath, Domain: req.Domain, SourceType: "attachment"}, nil
}

func (f *adminFake) ListDocuments(context.Context, string) ([]domain.DocumentInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.documents, nil
}

func (f *adminFake) DeleteDocument(_ context.Context, _, name string) error {
	if f.err != nil {
		return f.err
	}
	f.deletedDoc = name
	return nil
}

func (f *adminFake) StageUpload(_ context.Context, filename string, body io.Reader) (string, error) {
	ext := strings.ToLower(filename[strings.LastIndex(filename, "."):])
	if ext != ".pdf" && ext != ".md" && ext != ".txt" && ext != ".docx" {
		return "", domain.WrapError(domain.ErrInvalidInput, "validate upload", io.ErrUnexpectedEOF)
	}
	_, _ = io.Copy(io.Discard, body)
	return "/tmp/staging/" + filename, nil
}

type statusFake struct {
	status ports.BackendStatus
}

func (f *statusFake) Status(context.Context) ports.BackendStatus { return f.status }

type routerFixture struct {
	chat     *chatServiceFake
	selector *selectorFake
	admin    *adminFake
	handler  http.Handler
	auth     AuthConfig
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("segreta"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	auth := AuthConfig{
		Username:     "admin",
		PasswordHash: string(hash),
		JWTSecret:    "test-secret",
		TokenTTL:     time.Hour,
	}

	chat := &chatServiceFake{
		result: domain.ChatResult{
			Response:   "Gli orari sono 7-12.",
			Sources:    []domain.Source{},
			Links:      []domain.Link{},
			StoresUsed: []string{"hours"},
		},
		suggestions: []string{"Dove si trova il distretto 1?"},
	}
	selector := &selectorFake{selection: domain.StoreSelection{StoreIDs: []string{"hours"}, Reason: "orari"}}
	admin := &adminFake{stores: []domain.StoreInfo{{Name: "fileSearchStores/x", Domain: "hours", DocumentCount: 3}}}

	router := NewRouter(
		chat,
		selector,
		&registryFake{stores: domain.SeedStores()},
		admin,
		&statusFake{status: ports.BackendStatus{APIKeySet: true, ClientInitialized: true, StoresAccessible: 4, ClientWorking: true}},
		nil,
		auth,
		TrafficConfig{},
		true,
		testLogger(),
	)

	return &routerFixture{
		chat:     chat,
		selector: selector,
		admin:    admin,
		handler:  router.Handler(),
		auth:     auth,
	}
}

func (f *routerFixture) adminToken(t *testing.T) string {
	t.Helper()
	body := `{"username":"admin","password":"segreta"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	res := httptest.NewRecorder()
	f.handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("login expected 200, got %d: %s", res.Code, res.Body.String())
	}
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return resp.AccessToken
}

func TestHealthz(t *testing.T) {
	f := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()
	f.handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if res.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}
}

func TestChatRunsSelectionWhenDomainMissing(t *testing.T) {
	f := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"orari?"}`))
	res := httptest.NewRecorder()
	f.handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if !f.selector.called {
		t.Fatalf("selector must run when no domain is pinned")
	}
	if len(f.chat.req.StoreIDs) != 1 || f.chat.req.StoreIDs[0] != "hours" {
		t.Fatalf("selection must feed the chat request, got %v", f.chat.req.StoreIDs)
	}

	var resp chatResponse
	if err := json.Unmarshal(res.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Response == "" || resp.ConversationID == "" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if len(resp.SuggestedQuestions) != 1 {
		t.Fatalf("expected suggestions passthrough, got %v", resp.SuggestedQuestions)
	}
}

func TestChatSkipsSelectionWithExplicitDomain(t *testing.T) {
	f := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"orari?","domain":"hours"}`))
	res := httptest.NewRecorder()
	f.handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if f.selector.called {
		t.Fatalf("selector must be skipped when the domain is pinned")
	}
	if f.chat.req.Domain != "hours" {
		t.Fatalf("domain not forwarded: %+v", f.chat.req)
	}
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	f := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"  "}`))
	res := httptest.NewRecorder()
	f.handler.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestDomainsIncludesDocumentCounts(t *testing.T) {
	f := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/domains", nil)
	res := httptest.NewRecorder()
	f.handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}

	var resp struct {
		Domains []domainEntry `json:"domains"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Domains) != 4 {
		t.Fatalf("expected the 4 seeds, got %d", len(resp.Domains))
	}
	for _, d := range resp.Domains {
		if d.ID == "hours" && d.DocumentCount != 3 {
			t.Fatalf("expected backend count for hours, got %d", d.DocumentCount)
		}
	}
}

func TestWelcomeLanguages(t *testing.T) {
	f := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/welcome?lang=en", nil)
	res := httptest.NewRecorder()
	f.handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}

	var resp struct {
		Message     string   `json:"message"`
		Suggestions []string `json:"suggestions"`
		Domains     []string `json:"domains"`
		Languages   []string `json:"languages"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.Contains(resp.Message, "ULSS 9") {
		t.Fatalf("unexpected welcome message: %q", resp.Message)
	}
	if len(resp.Suggestions) != 3 {
		t.Fatalf("expected 3 suggestions, got %d", len(resp.Suggestions))
	}
	if len(resp.Domains) != 4 || len(resp.Languages) != 2 {
		t.Fatalf("unexpected shape: %+v", resp)
	}
}

func TestAgentStatus(t *testing.T) {
	f := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/agent/status", nil)
	res := httptest.NewRecorder()
	f.handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var status ports.BackendStatus
	if err := json.Unmarshal(res.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !status.ClientWorking || status.StoresAccessible != 4 {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestAdminEndpointsRequireToken(t *testing.T) {
	f := newRouterFixture(t)

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/admin/stores"},
		{http.MethodPost, "/api/admin/stores"},
		{http.MethodDelete, "/api/admin/stores/hours"},
		{http.MethodPost, "/api/admin/stores/delete-all"},
		{http.MethodPost, "/api/admin/stores/seed/create-all"},
		{http.MethodGet, "/api/admin/stores/hours/documents"},
	} {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		res := httptest.NewRecorder()
		f.handler.ServeHTTP(res, req)
		if res.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", tc.method, tc.path, res.Code)
		}
	}
}

func TestAdminStoreLifecycle(t *testing.T) {
	f := newRouterFixture(t)
	token := f.adminToken(t)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/stores", strings.NewReader(`{"domain":"vaccini","description":"Campagne vaccinali"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	f.handler.ServeHTTP(res, req)
	if res.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", res.Code, res.Body.String())
	}
	if f.admin.created != "vaccini" {
		t.Fatalf("create not forwarded: %q", f.admin.created)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/admin/stores/vaccini", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res = httptest.NewRecorder()
	f.handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", res.Code)
	}
	if len(f.admin.deleted) != 1 || f.admin.deleted[0] != "vaccini" {
		t.Fatalf("delete not forwarded: %v", f.admin.deleted)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/admin/stores/hours/documents/doc-1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res = httptest.NewRecorder()
	f.handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("delete document: expected 200, got %d", res.Code)
	}
	if f.admin.deletedDoc != "doc-1" {
		t.Fatalf("document delete not forwarded: %q", f.admin.deletedDoc)
	}
}

func multipartUpload(t *testing.T, path, filename string, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = part.Write([]byte("contenuto"))
	for k, v := range fields {
		_ = writer.WriteField(k, v)
	}
	_ = writer.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestAdminUpload(t *testing.T) {
	f := newRouterFixture(t)
	token := f.adminToken(t)

	req := multipartUpload(t, "/api/admin/stores/hours/upload", "orari.md", map[string]string{
		"source_type": "website",
		"url":         "https://aulss9.veneto.it/orari",
	})
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	f.handler.ServeHTTP(res, req)
	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", res.Code, res.Body.String())
	}
	if f.admin.uploaded == nil || f.admin.uploaded.Domain != "hours" {
		t.Fatalf("upload not forwarded: %+v", f.admin.uploaded)
	}
	if f.admin.uploaded.SourceType != "website" || f.admin.uploaded.URL != "https://aulss9.veneto.it/orari" {
		t.Fatalf("form fields not forwarded: %+v", f.admin.uploaded)
	}
}

func TestAdminUploadRejectsUnsupportedExtension(t *testing.T) {
	f := newRouterFixture(t)
	token := f.adminToken(t)

	req := multipartUpload(t, "/api/admin/stores/hours/upload", "script.sh", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	f.handler.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if f.admin.uploaded != nil {
		t.Fatalf("rejected upload must not reach the backend")
	}
}
