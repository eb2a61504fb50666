package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tesfayh/ulss9-assistant/internal/core/domain"
	"github.com/tesfayh/ulss9-assistant/internal/core/ports"
)

const (
	operationPollInterval = 2 * time.Second
	operationPollTimeout  = 3 * time.Minute
	metadataSampleRunes   = 4000
	metadataTemperature   = 0.1
)

var documentMetadataSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"title":    map[string]any{"type": "string"},
		"abstract": map[string]any{"type": "string"},
	},
	"required": []string{"title", "abstract"},
}

// UploadDocument pushes a staged file into the domain's store: same-named
// documents are replaced, a title/abstract pair is extracted for indexing,
// and the call blocks until the backend finishes importing.
func (m *StoreManager) UploadDocument(ctx context.Context, req ports.UploadRequest) (*domain.UploadResult, error) {
	client, err := m.provider.Client()
	if err != nil {
		return nil, err
	}

	storeName, err := m.CreateStore(ctx, req.Domain, "")
	if err != nil {
		return nil, err
	}

	filename := filepath.Base(req.FilePath)
	title, abstract := m.describeDocument(ctx, client, req, filename)

	if err := m.replaceExisting(ctx, client, storeName, filename); err != nil {
		m.logger.Warn("replace existing document failed", "filename", filename, "error", err)
	}

	meta := uploadMetadata{
		DisplayName: title,
		CustomMetadata: []customMetadataKV{
			{Key: "title", StringValue: title},
			{Key: "file_name", StringValue: filename},
			{Key: "domain", StringValue: req.Domain},
			{Key: "abstract", StringValue: abstract},
			{Key: "source_type", StringValue: req.SourceType},
		},
	}
	if req.URL != "" {
		meta.CustomMetadata = append(meta.CustomMetadata, customMetadataKV{Key: "url", StringValue: req.URL})
	}
	if req.DocumentID != "" {
		meta.CustomMetadata = append(meta.CustomMetadata, customMetadataKV{Key: "document_id", StringValue: req.DocumentID})
	}

	file, err := os.Open(req.FilePath)
	if err != nil {
		return nil, fmt.Errorf("open staged file: %w", err)
	}
	defer file.Close()

	var op *operation
	err = m.execute(ctx, "upload document", func(ctx context.Context) error {
		if _, seekErr := file.Seek(0, 0); seekErr != nil {
			return fmt.Errorf("rewind staged file: %w", seekErr)
		}
		var upErr error
		op, upErr = client.uploadToStore(ctx, storeName, meta, filename, file)
		return upErr
	})
	if err != nil {
		return nil, fmt.Errorf("upload %q to %q: %w", filename, req.Domain, err)
	}

	if err := m.awaitOperation(ctx, client, op); err != nil {
		return nil, fmt.Errorf("import %q into %q: %w", filename, req.Domain, err)
	}

	return &domain.UploadResult{
		Filename:   filename,
		Title:      title,
		Domain:     req.Domain,
		SourceType: req.SourceType,
		DocumentID: req.DocumentID,
		URL:        req.URL,
	}, nil
}

// describeDocument produces the indexing title and abstract. Plain-text
// formats get an extraction call; everything else falls back to a
// filename-derived title. Best effort either way.
func (m *StoreManager) describeDocument(ctx context.Context, client *Client, req ports.UploadRequest, filename string) (title, abstract string) {
	title = req.TitleOverride
	if title == "" {
		title = titleFromFilename(filename)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".md" && ext != ".txt" {
		return title, ""
	}
	raw, err := os.ReadFile(req.FilePath)
	if err != nil {
		return title, ""
	}
	sample := string(raw)
	if runes := []rune(sample); len(runes) > metadataSampleRunes {
		sample = string(runes[:metadataSampleRunes])
	}

	text, _, err := client.generateContent(ctx, buildMetadataPrompt(sample), generateOptions{
		temperature: metadataTemperature,
		jsonSchema:  documentMetadataSchema,
	})
	if err != nil {
		m.logger.Warn("document metadata extraction failed", "filename", filename, "error", err)
		return title, ""
	}

	var extracted struct {
		Title    string `json:"title"`
		Abstract string `json:"abstract"`
	}
	if err := json.Unmarshal([]byte(text), &extracted); err != nil {
		m.logger.Warn("document metadata parse failed", "filename", filename, "error", err)
		return title, ""
	}
	if req.TitleOverride == "" && strings.TrimSpace(extracted.Title) != "" {
		title = strings.TrimSpace(extracted.Title)
	}
	return title, strings.TrimSpace(extracted.Abstract)
}

// replaceExisting deletes documents carrying the same file_name so the
// upload acts as an overwrite.
func (m *StoreManager) replaceExisting(ctx context.Context, client *Client, storeName, filename string) error {
	docs, err := client.listDocuments(ctx, storeName)
	if err != nil {
		return err
	}
	for _, d := range docs {
		if documentFileName(d) != filename {
			continue
		}
		if err := client.deleteDocument(ctx, d.Name); err != nil {
			return err
		}
		m.logger.Info("replaced existing document", "filename", filename, "document", d.Name)
	}
	return nil
}

func documentFileName(d storeDocument) string {
	for _, kv := range d.CustomMetadata {
		if kv.Key == "file_name" {
			return kv.StringValue
		}
	}
	return ""
}

func (m *StoreManager) awaitOperation(ctx context.Context, client *Client, op *operation) error {
	if op == nil || op.Done {
		return operationFailure(op)
	}

	deadline := time.Now().Add(operationPollTimeout)
	ticker := time.NewTicker(operationPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("operation %q still running after %s", op.Name, operationPollTimeout)
		}

		current, err := client.getOperation(ctx, op.Name)
		if err != nil {
			return err
		}
		if current.Done {
			return operationFailure(current)
		}
	}
}

func operationFailure(op *operation) error {
	if op == nil || op.Error == nil {
		return nil
	}
	return fmt.Errorf("backend import failed: %s (code %d)", op.Error.Message, op.Error.Code)
}

func buildMetadataPrompt(sample string) string {
	return `Analizza questo documento dell'Azienda ULSS 9 Scaligera ed estrai:
- "title": un titolo breve e descrittivo (max 10 parole, in italiano)
- "abstract": un riassunto di 1-2 frasi del contenuto (in italiano)

Documento:
` + sample
}

func titleFromFilename(filename string) string {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	base = strings.Join(strings.Fields(base), " ")
	if base == "" {
		return filename
	}
	return base
}
