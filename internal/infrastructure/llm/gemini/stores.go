package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/tesfayh/ulss9-assistant/internal/core/domain"
	"github.com/tesfayh/ulss9-assistant/internal/core/ports"
	"github.com/tesfayh/ulss9-assistant/internal/infrastructure/resilience"
)

// StoreManager administers file search stores named "{prefix}-{id}".
// Admin operations run through the resilience executor; ResolveStore is a
// single attempt because the chat path calls it.
type StoreManager struct {
	provider *Provider
	prefix   string
	executor *resilience.Executor
	logger   *slog.Logger
}

func NewStoreManager(provider *Provider, prefix string, executor *resilience.Executor, logger *slog.Logger) *StoreManager {
	if prefix == "" {
		prefix = "ulss9"
	}
	return &StoreManager{
		provider: provider,
		prefix:   prefix,
		executor: executor,
		logger:   logger,
	}
}

func (m *StoreManager) displayName(id string) string {
	return m.prefix + "-" + id
}

func (m *StoreManager) domainFromDisplayName(displayName string) (string, bool) {
	return strings.CutPrefix(displayName, m.prefix+"-")
}

func (m *StoreManager) ResolveStore(ctx context.Context, id string) (string, error) {
	client, err := m.provider.Client()
	if err != nil {
		return "", err
	}

	stores, err := client.listStores(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve store %q: %w", id, err)
	}
	want := m.displayName(id)
	for _, s := range stores {
		if s.DisplayName == want {
			return s.Name, nil
		}
	}
	return "", domain.WrapError(domain.ErrStoreNotFound, "resolve store", fmt.Errorf("no store named %q", want))
}

// ListStores reports every store carrying this deployment's prefix.
func (m *StoreManager) ListStores(ctx context.Context) ([]domain.StoreInfo, error) {
	client, err := m.provider.Client()
	if err != nil {
		return nil, err
	}

	var raw []fileSearchStore
	err = m.execute(ctx, "list stores", func(ctx context.Context) error {
		var listErr error
		raw, listErr = client.listStores(ctx)
		return listErr
	})
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}

	infos := make([]domain.StoreInfo, 0, len(raw))
	for _, s := range raw {
		id, ok := m.domainFromDisplayName(s.DisplayName)
		if !ok {
			continue
		}
		count, _ := strconv.Atoi(s.ActiveDocumentsCount)
		infos = append(infos, domain.StoreInfo{
			Name:          s.Name,
			DisplayName:   s.DisplayName,
			Domain:        id,
			DocumentCount: count,
		})
	}
	return infos, nil
}

// CreateStore is idempotent: an existing store with the same display name
// is returned as-is.
func (m *StoreManager) CreateStore(ctx context.Context, id, _ string) (string, error) {
	client, err := m.provider.Client()
	if err != nil {
		return "", err
	}

	if name, err := m.ResolveStore(ctx, id); err == nil {
		return name, nil
	} else if !domain.IsKind(err, domain.ErrStoreNotFound) {
		return "", err
	}

	var store *fileSearchStore
	err = m.execute(ctx, "create store", func(ctx context.Context) error {
		var createErr error
		store, createErr = client.createStore(ctx, m.displayName(id))
		return createErr
	})
	if err != nil {
		return "", fmt.Errorf("create store %q: %w", id, err)
	}
	m.logger.Info("backend store created", "store_id", id, "store_name", store.Name)
	return store.Name, nil
}

func (m *StoreManager) DeleteStore(ctx context.Context, id string) error {
	client, err := m.provider.Client()
	if err != nil {
		return err
	}

	name, err := m.ResolveStore(ctx, id)
	if err != nil {
		return err
	}
	err = m.execute(ctx, "delete store", func(ctx context.Context) error {
		return client.deleteStore(ctx, name)
	})
	if err != nil {
		return fmt.Errorf("delete store %q: %w", id, err)
	}
	return nil
}

func (m *StoreManager) ListDocuments(ctx context.Context, id string) ([]domain.DocumentInfo, error) {
	client, err := m.provider.Client()
	if err != nil {
		return nil, err
	}

	storeName, err := m.ResolveStore(ctx, id)
	if err != nil {
		return nil, err
	}

	var raw []storeDocument
	err = m.execute(ctx, "list documents", func(ctx context.Context) error {
		var listErr error
		raw, listErr = client.listDocuments(ctx, storeName)
		return listErr
	})
	if err != nil {
		return nil, fmt.Errorf("list documents in %q: %w", id, err)
	}

	docs := make([]domain.DocumentInfo, 0, len(raw))
	for _, d := range raw {
		meta := make(map[string]string, len(d.CustomMetadata))
		for _, kv := range d.CustomMetadata {
			meta[kv.Key] = kv.StringValue
		}
		docs = append(docs, domain.DocumentInfo{
			Name:        d.Name,
			DisplayName: d.DisplayName,
			Metadata:    meta,
		})
	}
	return docs, nil
}

func (m *StoreManager) DeleteDocument(ctx context.Context, id, documentName string) error {
	client, err := m.provider.Client()
	if err != nil {
		return err
	}

	storeName, err := m.ResolveStore(ctx, id)
	if err != nil {
		return err
	}
	// Accept both the bare document id and the full resource name.
	if !strings.HasPrefix(documentName, storeName+"/documents/") {
		documentName = storeName + "/documents/" + documentName
	}

	err = m.execute(ctx, "delete document", func(ctx context.Context) error {
		return client.deleteDocument(ctx, documentName)
	})
	if err != nil {
		var statusErr *HTTPStatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == 404 {
			return domain.WrapError(domain.ErrDocumentNotFound, "delete document", err)
		}
		return fmt.Errorf("delete document %q: %w", documentName, err)
	}
	return nil
}

// UploadDocument is implemented in documents.go.

func (m *StoreManager) execute(ctx context.Context, operation string, fn func(context.Context) error) error {
	if m.executor == nil {
		return fn(ctx)
	}
	return m.executor.Execute(ctx, operation, fn, classifyGeminiError)
}

var _ ports.StoreManager = (*StoreManager)(nil)
