package ports

import (
	"context"
	"io"

	"github.com/tesfayh/ulss9-assistant/internal/core/domain"
)

// StoreResolver maps a registry id to the backend's opaque store reference.
type StoreResolver interface {
	ResolveStore(ctx context.Context, id string) (string, error)
}

// UploadRequest describes a staged file to push into a store.
type UploadRequest struct {
	FilePath      string
	Domain        string
	SourceType    string
	TitleOverride string
	URL           string
	DocumentID    string
}

// StoreManager administers backend stores and their documents.
type StoreManager interface {
	StoreResolver
	ListStores(ctx context.Context) ([]domain.StoreInfo, error)
	CreateStore(ctx context.Context, id, description string) (string, error)
	DeleteStore(ctx context.Context, id string) error
	ListDocuments(ctx context.Context, id string) ([]domain.DocumentInfo, error)
	DeleteDocument(ctx context.Context, id, documentName string) error
	UploadDocument(ctx context.Context, req UploadRequest) (*domain.UploadResult, error)
}

// GroundedRequest is one single-turn grounded generation call. StoreNames
// holds resolved backend references; empty means no retrieval augmentation.
type GroundedRequest struct {
	Message           string
	SystemInstruction string
	StoreNames        []string
	Temperature       float64
}

// GroundedResponse carries the answer text plus the grounding chunks the
// citation normalizer consumes.
type GroundedResponse struct {
	Text   string
	Chunks []domain.GroundingChunk
}

// GroundedGenerator issues single-turn chat calls scoped to stores.
type GroundedGenerator interface {
	GenerateGrounded(ctx context.Context, req GroundedRequest) (*GroundedResponse, error)
}

// PromptGenerator issues plain and schema-constrained generation calls.
// The schema value is marshalled as-is into the backend request.
type PromptGenerator interface {
	GenerateFromPrompt(ctx context.Context, prompt string, temperature float64) (string, error)
	GenerateJSONFromPrompt(ctx context.Context, prompt string, schema any, temperature float64) (string, error)
}

// DescriptionStore persists routing descriptions for extra stores. The
// mapping is loaded wholesale and rewritten wholesale on update.
type DescriptionStore interface {
	Descriptions(ctx context.Context) (map[string]string, error)
	SetDescription(ctx context.Context, id, description string) error
}

// ObjectStorage stages uploaded documents on the local filesystem before
// they are pushed to the retrieval backend.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) (path string, err error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}
