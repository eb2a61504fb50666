package ports

import (
	"context"

	"github.com/tesfayh/ulss9-assistant/internal/core/domain"
)

// StoreSelector is the inbound contract for routing a query to stores.
// It never fails: every failure mode resolves to the default selection.
type StoreSelector interface {
	SelectStores(ctx context.Context, message string) domain.StoreSelection
}

// ChatRequest carries one chat turn. Domain pins a single store (legacy
// mode); StoreIDs is the multi-store selection used when Domain is empty.
type ChatRequest struct {
	Message  string
	Domain   string
	StoreIDs []string
	Language string
}

// ChatService is the inbound contract for retrieval-augmented chat. Chat
// never fails: every failure mode resolves to the demo result.
type ChatService interface {
	Chat(ctx context.Context, req ChatRequest) domain.ChatResult
	SuggestFollowUps(ctx context.Context, userMessage, botResponse, language string) []string
}

// StoreRegistry assembles the routing registry: seed stores plus extras
// created via the admin API.
type StoreRegistry interface {
	Stores(ctx context.Context) []domain.Store
}

// StoreAdmin is the inbound contract for category and document management.
// Unlike the chat path, admin operations propagate errors to the caller.
type StoreAdmin interface {
	CreateStore(ctx context.Context, id, description string) (storeName string, err error)
	EnsureSeedStores(ctx context.Context) ([]domain.StoreInfo, error)
	ListStores(ctx context.Context) ([]domain.StoreInfo, error)
	DeleteStore(ctx context.Context, id string) error
	DeleteAllStores(ctx context.Context) (deleted []string, err error)
	UploadDocument(ctx context.Context, req UploadRequest) (*domain.UploadResult, error)
	ListDocuments(ctx context.Context, id string) ([]domain.DocumentInfo, error)
	DeleteDocument(ctx context.Context, id, documentName string) error
}

// BackendStatus reports retrieval-backend reachability for diagnostics.
type BackendStatus struct {
	APIKeySet         bool `json:"api_key_set"`
	ClientInitialized bool `json:"client_initialized"`
	StoresAccessible  int  `json:"stores_accessible"`
	ClientWorking     bool `json:"client_working"`
}

// StatusReporter is the inbound contract for the diagnostic endpoint.
type StatusReporter interface {
	Status(ctx context.Context) BackendStatus
}
