package httpadapter

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tesfayh/ulss9-assistant/internal/core/domain"
	"github.com/tesfayh/ulss9-assistant/internal/core/ports"
	"github.com/tesfayh/ulss9-assistant/internal/observability/metrics"
)

const serviceName = "api"

// StoreAdminService is what the admin endpoints need: the admin contract
// plus local staging for multipart uploads.
type StoreAdminService interface {
	ports.StoreAdmin
	StageUpload(ctx context.Context, filename string, body io.Reader) (string, error)
}

// TrafficConfig bounds inbound request traffic.
type TrafficConfig struct {
	RateLimitRPS   float64
	RateLimitBurst int
	MaxInFlight    int
}

type Router struct {
	chat     ports.ChatService
	selector ports.StoreSelector
	registry ports.StoreRegistry
	admin    StoreAdminService
	status   ports.StatusReporter
	metrics  *metrics.HTTPServerMetrics

	auth         AuthConfig
	traffic      TrafficConfig
	allowEnglish bool
	logger       *slog.Logger
}

func NewRouter(
	chat ports.ChatService,
	selector ports.StoreSelector,
	registry ports.StoreRegistry,
	admin StoreAdminService,
	status ports.StatusReporter,
	serverMetrics *metrics.HTTPServerMetrics,
	auth AuthConfig,
	traffic TrafficConfig,
	allowEnglish bool,
	logger *slog.Logger,
) *Router {
	return &Router{
		chat:         chat,
		selector:     selector,
		registry:     registry,
		admin:        admin,
		status:       status,
		metrics:      serverMetrics,
		auth:         auth,
		traffic:      traffic,
		allowEnglish: allowEnglish,
		logger:       logger,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/api/auth/login", rt.login)
	mux.HandleFunc("/api/chat", rt.chatTurn)
	mux.HandleFunc("/api/domains", rt.listDomains)
	mux.HandleFunc("/api/welcome", rt.welcome)
	mux.HandleFunc("/api/agent/status", rt.agentStatus)
	mux.HandleFunc("/api/admin/stores", rt.requireAdmin(rt.adminStores))
	mux.HandleFunc("/api/admin/stores/", rt.requireAdmin(rt.adminStoreSubtree))
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = backpressureMiddleware(handler, rt.traffic.MaxInFlight, 50*time.Millisecond)
	handler = rateLimitMiddleware(handler, rt.traffic.RateLimitRPS, rt.traffic.RateLimitBurst)
	handler = accessLogMiddleware(handler)
	handler = corsMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type chatResponse struct {
	Response           string          `json:"response"`
	Sources            []domain.Source `json:"sources"`
	Links              []domain.Link   `json:"links"`
	StoresUsed         []string        `json:"stores_used"`
	SelectionReason    string          `json:"selection_reason,omitempty"`
	SuggestedQuestions []string        `json:"suggested_questions"`
	ConversationID     string          `json:"conversation_id"`
}

func (rt *Router) chatTurn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Message        string `json:"message"`
		Domain         string `json:"domain"`
		Language       string `json:"language"`
		ConversationID string `json:"conversation_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message is required"})
		return
	}

	start := time.Now()

	var storeIDs []string
	var selectionReason string
	if req.Domain == "" {
		selection := rt.selector.SelectStores(r.Context(), req.Message)
		storeIDs = selection.StoreIDs
		selectionReason = selection.Reason
		if rt.metrics != nil {
			rt.metrics.RecordSelection(serviceName, string(selection.FallbackReason), len(selection.StoreIDs))
		}
	}

	result := rt.chat.Chat(r.Context(), ports.ChatRequest{
		Message:  req.Message,
		Domain:   req.Domain,
		StoreIDs: storeIDs,
		Language: req.Language,
	})
	if rt.metrics != nil {
		rt.metrics.RecordChatTurn(serviceName, string(result.FallbackReason), len(result.Links), time.Since(start))
	}

	suggestions := rt.chat.SuggestFollowUps(r.Context(), req.Message, result.Response, req.Language)
	if suggestions == nil {
		suggestions = []string{}
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Response:           result.Response,
		Sources:            result.Sources,
		Links:              result.Links,
		StoresUsed:         result.StoresUsed,
		SelectionReason:    selectionReason,
		SuggestedQuestions: suggestions,
		ConversationID:     conversationID,
	})
}

type domainEntry struct {
	ID            string `json:"id"`
	Description   string `json:"description"`
	DocumentCount int    `json:"document_count"`
}

func (rt *Router) listDomains(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	counts := map[string]int{}
	if infos, err := rt.admin.ListStores(r.Context()); err == nil {
		for _, info := range infos {
			counts[info.Domain] = info.DocumentCount
		}
	} else {
		rt.logger.Warn("store listing unavailable for domain counts", "error", err)
	}

	stores := rt.registry.Stores(r.Context())
	entries := make([]domainEntry, 0, len(stores))
	for _, s := range stores {
		entries = append(entries, domainEntry{
			ID:            s.ID,
			Description:   s.Description,
			DocumentCount: counts[s.ID],
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"domains": entries})
}

func (rt *Router) welcome(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	lang := domain.NormalizeLanguage(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("lang"))), rt.allowEnglish)

	message := "👋 Ciao! Sono l'assistente virtuale dell'ULSS 9 Scaligera. Posso aiutarti a trovare informazioni su orari, sedi, servizi e documenti dell'azienda sanitaria. Come posso aiutarti?"
	suggestions := []string{
		"Quali sono gli orari del punto prelievi di Legnago?",
		"Dove si trova l'Ospedale Magalini di Villafranca?",
		"Come prenotare una visita specialistica?",
	}
	if lang == domain.LanguageEnglish {
		message = "👋 Hi! I am the virtual assistant of ULSS 9 Scaligera. I can help you find information about opening hours, locations, services, and official documents. How can I help you?"
		suggestions = []string{
			"What are the opening hours of the Legnago blood collection point?",
			"Where is the Magalini Hospital in Villafranca?",
			"How do I book a specialist visit?",
		}
	}

	stores := rt.registry.Stores(r.Context())
	domains := make([]string, 0, len(stores))
	for _, s := range stores {
		domains = append(domains, s.ID)
	}

	languages := []string{domain.LanguageItalian}
	if rt.allowEnglish {
		languages = append(languages, domain.LanguageEnglish)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":     message,
		"suggestions": suggestions,
		"domains":     domains,
		"languages":   languages,
	})
}

func (rt *Router) agentStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, rt.status.Status(r.Context()))
}

// adminStores handles the /api/admin/stores collection: POST creates a
// store, GET lists them.
func (rt *Router) adminStores(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req struct {
			Domain      string `json:"domain"`
			Description string `json:"description"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
			return
		}
		name, err := rt.admin.CreateStore(r.Context(), req.Domain, req.Description)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"domain": req.Domain, "store_name": name})
	case http.MethodGet:
		infos, err := rt.admin.ListStores(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"stores": infos})
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

// adminStoreSubtree dispatches everything under /api/admin/stores/.
func (rt *Router) adminStoreSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/admin/stores/")
	segments := strings.Split(strings.Trim(rest, "/"), "/")

	switch {
	case len(segments) == 1 && segments[0] == "delete-all" && r.Method == http.MethodPost:
		deleted, err := rt.admin.DeleteAllStores(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deleted": deleted})

	case len(segments) == 2 && segments[0] == "seed" && segments[1] == "create-all" && r.Method == http.MethodPost:
		created, err := rt.admin.EnsureSeedStores(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"stores": created})

	case len(segments) == 1 && segments[0] != "" && r.Method == http.MethodDelete:
		if err := rt.admin.DeleteStore(r.Context(), segments[0]); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"deleted": segments[0]})

	case len(segments) == 2 && segments[1] == "upload" && r.Method == http.MethodPost:
		rt.uploadDocument(w, r, segments[0])

	case len(segments) == 2 && segments[1] == "documents" && r.Method == http.MethodGet:
		docs, err := rt.admin.ListDocuments(r.Context(), segments[0])
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"documents": docs})

	case len(segments) == 3 && segments[1] == "documents" && r.Method == http.MethodDelete:
		if err := rt.admin.DeleteDocument(r.Context(), segments[0], segments[2]); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"deleted": segments[2]})

	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	}
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request, storeID string) {
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	stagedPath, err := rt.admin.StageUpload(r.Context(), fileHeader.Filename, file)
	if err != nil {
		rt.recordUpload("rejected")
		writeError(w, err)
		return
	}

	result, err := rt.admin.UploadDocument(r.Context(), ports.UploadRequest{
		FilePath:      stagedPath,
		Domain:        storeID,
		SourceType:    r.FormValue("source_type"),
		TitleOverride: r.FormValue("title"),
		URL:           r.FormValue("url"),
	})
	if err != nil {
		rt.recordUpload("error")
		writeError(w, err)
		return
	}

	rt.recordUpload("ok")
	writeJSON(w, http.StatusCreated, result)
}

func (rt *Router) recordUpload(status string) {
	if rt.metrics != nil {
		rt.metrics.RecordUpload(serviceName, status)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
