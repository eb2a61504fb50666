package gemini

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tesfayh/ulss9-assistant/internal/core/domain"
)

const (
	defaultBaseURL       = "https://generativelanguage.googleapis.com/v1beta"
	defaultUploadBaseURL = "https://generativelanguage.googleapis.com/upload/v1beta"
	defaultModel         = "gemini-2.5-flash"
)

// Client is a thin REST client for the generativelanguage v1beta API:
// content generation plus the file search store surface.
type Client struct {
	baseURL       string
	uploadBaseURL string
	apiKey        string
	model         string
	httpClient    *http.Client
}

func NewClient(baseURL, apiKey, model string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	uploadBaseURL := defaultUploadBaseURL
	if baseURL != defaultBaseURL {
		// Test servers host both surfaces on one address.
		uploadBaseURL = baseURL
	}
	if model == "" {
		model = defaultModel
	}
	return &Client{
		baseURL:       baseURL,
		uploadBaseURL: uploadBaseURL,
		apiKey:        apiKey,
		model:         model,
		httpClient:    &http.Client{Timeout: 120 * time.Second},
	}
}

type generateOptions struct {
	systemInstruction string
	storeNames        []string
	temperature       float64
	jsonSchema        any
}

// generateContent issues one single-turn call and returns the first
// candidate with its grounding chunks.
func (c *Client) generateContent(ctx context.Context, message string, opts generateOptions) (string, []domain.GroundingChunk, error) {
	temp := opts.temperature
	reqBody := generateContentRequest{
		Contents: []content{{
			Role:  "user",
			Parts: []part{{Text: message}},
		}},
		GenerationConfig: &generationConfig{Temperature: &temp},
	}
	if opts.systemInstruction != "" {
		reqBody.SystemInstruction = &content{Parts: []part{{Text: opts.systemInstruction}}}
	}
	if opts.jsonSchema != nil {
		reqBody.GenerationConfig.ResponseMimeType = "application/json"
		reqBody.GenerationConfig.ResponseJSONSchema = opts.jsonSchema
	}
	if len(opts.storeNames) > 0 {
		reqBody.Tools = []tool{{FileSearch: &fileSearchTool{FileSearchStoreNames: opts.storeNames}}}
	}

	var resp generateContentResponse
	path := "/models/" + c.model + ":generateContent"
	if err := c.postJSON(ctx, path, reqBody, &resp, "generate"); err != nil {
		return "", nil, err
	}
	if len(resp.Candidates) == 0 {
		return "", nil, fmt.Errorf("generate: no candidates in response")
	}

	cand := resp.Candidates[0]
	var text strings.Builder
	if cand.Content != nil {
		for _, p := range cand.Content.Parts {
			text.WriteString(p.Text)
		}
	}
	return strings.TrimSpace(text.String()), mapGroundingChunks(cand.GroundingMetadata), nil
}

// mapGroundingChunks converts the wire grounding metadata into the domain
// shape: the retrieved context's title/uri go into the top-level bag and
// the document custom metadata becomes the structured entry list.
func mapGroundingChunks(meta *groundingMetadata) []domain.GroundingChunk {
	if meta == nil || len(meta.GroundingChunks) == 0 {
		return nil
	}

	chunks := make([]domain.GroundingChunk, 0, len(meta.GroundingChunks))
	for _, wc := range meta.GroundingChunks {
		rc := wc.RetrievedContext
		if rc == nil {
			continue
		}

		chunk := domain.GroundingChunk{Content: rc.Text}
		bag := map[string]string{}
		if rc.Title != "" {
			bag["title"] = rc.Title
		}
		if rc.URI != "" {
			bag["url"] = rc.URI
		}
		if len(bag) > 0 {
			chunk.Metadata = bag
		}
		if len(rc.CustomMetadata) > 0 {
			entries := make([]domain.MetadataEntry, 0, len(rc.CustomMetadata))
			for _, kv := range rc.CustomMetadata {
				value := kv.StringValue
				if value == "" && kv.NumericValue != nil {
					value = strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", *kv.NumericValue), "0"), ".")
				}
				entries = append(entries, domain.MetadataEntry{Key: kv.Key, Value: value})
			}
			chunk.Context = &domain.RetrievedContext{Entries: entries}
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}

func (c *Client) listStores(ctx context.Context) ([]fileSearchStore, error) {
	var stores []fileSearchStore
	pageToken := ""
	for {
		path := "/fileSearchStores?pageSize=100"
		if pageToken != "" {
			path += "&pageToken=" + url.QueryEscape(pageToken)
		}
		var resp listStoresResponse
		if err := c.getJSON(ctx, path, &resp, "list stores"); err != nil {
			return nil, err
		}
		stores = append(stores, resp.FileSearchStores...)
		if resp.NextPageToken == "" {
			return stores, nil
		}
		pageToken = resp.NextPageToken
	}
}

func (c *Client) createStore(ctx context.Context, displayName string) (*fileSearchStore, error) {
	var store fileSearchStore
	payload := map[string]string{"displayName": displayName}
	if err := c.postJSON(ctx, "/fileSearchStores", payload, &store, "create store"); err != nil {
		return nil, err
	}
	return &store, nil
}

// deleteStore removes the store and everything in it. The name is the
// backend resource name ("fileSearchStores/...").
func (c *Client) deleteStore(ctx context.Context, name string) error {
	return c.deleteJSON(ctx, "/"+name+"?force=true", "delete store")
}

func (c *Client) listDocuments(ctx context.Context, storeName string) ([]storeDocument, error) {
	var docs []storeDocument
	pageToken := ""
	for {
		path := "/" + storeName + "/documents?pageSize=100"
		if pageToken != "" {
			path += "&pageToken=" + url.QueryEscape(pageToken)
		}
		var resp listDocumentsResponse
		if err := c.getJSON(ctx, path, &resp, "list documents"); err != nil {
			return nil, err
		}
		docs = append(docs, resp.Documents...)
		if resp.NextPageToken == "" {
			return docs, nil
		}
		pageToken = resp.NextPageToken
	}
}

// deleteDocument removes one document by its full resource name
// ("fileSearchStores/.../documents/...").
func (c *Client) deleteDocument(ctx context.Context, documentName string) error {
	return c.deleteJSON(ctx, "/"+documentName, "delete document")
}

func (c *Client) uploadToStore(ctx context.Context, storeName string, meta uploadMetadata, filename string, file io.Reader) (*operation, error) {
	var op operation
	path := "/" + storeName + ":uploadToFileSearchStore"
	if err := c.uploadMultipart(ctx, path, meta, filename, file, &op, "upload document"); err != nil {
		return nil, err
	}
	return &op, nil
}

func (c *Client) getOperation(ctx context.Context, name string) (*operation, error) {
	var op operation
	if err := c.getJSON(ctx, "/"+name, &op, "poll operation"); err != nil {
		return nil, err
	}
	return &op, nil
}
