package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/tesfayh/ulss9-assistant/internal/core/domain"
	"github.com/tesfayh/ulss9-assistant/internal/core/ports"
)

// allowedUploadExtensions is the whitelist for admin document uploads.
var allowedUploadExtensions = map[string]struct{}{
	".pdf":  {},
	".md":   {},
	".txt":  {},
	".docx": {},
}

// StoreAdminUseCase manages retrieval stores and their documents. Unlike
// the chat path, every operation here propagates errors: silent fallback
// is wrong for data-management actions.
type StoreAdminUseCase struct {
	stores       ports.StoreManager
	descriptions ports.DescriptionStore
	storage      ports.ObjectStorage
	logger       *slog.Logger
}

func NewStoreAdminUseCase(
	stores ports.StoreManager,
	descriptions ports.DescriptionStore,
	storage ports.ObjectStorage,
	logger *slog.Logger,
) *StoreAdminUseCase {
	return &StoreAdminUseCase{
		stores:       stores,
		descriptions: descriptions,
		storage:      storage,
		logger:       logger,
	}
}

// CreateStore creates a backend store for id and persists its description
// so the selector includes the new category in the routing prompt.
func (uc *StoreAdminUseCase) CreateStore(ctx context.Context, id, description string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "create store", fmt.Errorf("store id is required"))
	}

	name, err := uc.stores.CreateStore(ctx, id, description)
	if err != nil {
		return "", fmt.Errorf("create store %q: %w", id, err)
	}
	if description != "" && !domain.IsSeedStore(id) {
		if err := uc.descriptions.SetDescription(ctx, id, description); err != nil {
			return "", fmt.Errorf("persist store description: %w", err)
		}
	}
	uc.logger.Info("store created", "store_id", id, "store_name", name)
	return name, nil
}

// EnsureSeedStores creates any missing seed store. Idempotent.
func (uc *StoreAdminUseCase) EnsureSeedStores(ctx context.Context) ([]domain.StoreInfo, error) {
	created := make([]domain.StoreInfo, 0, 4)
	for _, seed := range domain.SeedStores() {
		name, err := uc.stores.CreateStore(ctx, seed.ID, seed.Description)
		if err != nil {
			return nil, fmt.Errorf("ensure seed store %q: %w", seed.ID, err)
		}
		created = append(created, domain.StoreInfo{Name: name, Domain: seed.ID})
	}
	return created, nil
}

func (uc *StoreAdminUseCase) ListStores(ctx context.Context) ([]domain.StoreInfo, error) {
	return uc.stores.ListStores(ctx)
}

func (uc *StoreAdminUseCase) DeleteStore(ctx context.Context, id string) error {
	return uc.stores.DeleteStore(ctx, id)
}

// DeleteAllStores removes every prefixed store from the backend. Failures
// on individual stores are logged and skipped so one broken store does not
// block clearing the rest.
func (uc *StoreAdminUseCase) DeleteAllStores(ctx context.Context) ([]string, error) {
	stores, err := uc.stores.ListStores(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}

	deleted := make([]string, 0, len(stores))
	for _, s := range stores {
		if err := uc.stores.DeleteStore(ctx, s.Domain); err != nil {
			uc.logger.Warn("delete store failed", "store_id", s.Domain, "error", err)
			continue
		}
		deleted = append(deleted, s.Domain)
		uc.logger.Info("store deleted", "store_id", s.Domain)
	}
	return deleted, nil
}

// UploadDocument stages the uploaded file locally, then pushes it to the
// domain's backend store as an attachment with a generated stable
// document_id. Replacement of same-named documents happens backend-side.
func (uc *StoreAdminUseCase) UploadDocument(ctx context.Context, req ports.UploadRequest) (*domain.UploadResult, error) {
	if req.FilePath == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload document", fmt.Errorf("file path is required"))
	}
	if err := ValidateUploadFilename(filepath.Base(req.FilePath)); err != nil {
		return nil, err
	}

	if req.SourceType == "" {
		req.SourceType = domain.SourceTypeAttachment
	}
	if req.SourceType == domain.SourceTypeAttachment && req.DocumentID == "" {
		// Attachments carry a stable id so chat responses can link them.
		req.DocumentID = strings.ReplaceAll(uuid.NewString(), "-", "")
	}

	result, err := uc.stores.UploadDocument(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("upload document to store %q: %w", req.Domain, err)
	}
	uc.logger.Info("document uploaded",
		"filename", result.Filename,
		"store_id", req.Domain,
		"source_type", result.SourceType,
	)
	return result, nil
}

// StageUpload writes an incoming multipart file into local staging and
// returns its path for the backend upload.
func (uc *StoreAdminUseCase) StageUpload(ctx context.Context, filename string, body io.Reader) (string, error) {
	if err := ValidateUploadFilename(filename); err != nil {
		return "", err
	}
	path, err := uc.storage.Save(ctx, sanitizeFilename(filename), body)
	if err != nil {
		return "", fmt.Errorf("stage upload: %w", err)
	}
	return path, nil
}

func (uc *StoreAdminUseCase) ListDocuments(ctx context.Context, id string) ([]domain.DocumentInfo, error) {
	return uc.stores.ListDocuments(ctx, id)
}

func (uc *StoreAdminUseCase) DeleteDocument(ctx context.Context, id, documentName string) error {
	return uc.stores.DeleteDocument(ctx, id, documentName)
}

// ValidateUploadFilename enforces the upload extension whitelist.
func ValidateUploadFilename(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedUploadExtensions[ext]; !ok {
		return domain.WrapError(domain.ErrInvalidInput, "validate upload",
			fmt.Errorf("only PDF, Markdown, TXT, and DOCX files are supported"))
	}
	return nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "document.bin"
	}
	return base
}
