package gemini

// Wire types for the generativelanguage v1beta REST surface. Only the
// fields this service reads or writes are mapped.

type generateContentRequest struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
	Tools             []tool            `json:"tools,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text,omitempty"`
}

type generationConfig struct {
	Temperature        *float64 `json:"temperature,omitempty"`
	ResponseMimeType   string   `json:"responseMimeType,omitempty"`
	ResponseJSONSchema any      `json:"responseJsonSchema,omitempty"`
}

type tool struct {
	FileSearch *fileSearchTool `json:"fileSearch,omitempty"`
}

type fileSearchTool struct {
	FileSearchStoreNames []string `json:"fileSearchStoreNames"`
}

type generateContentResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content           *content           `json:"content,omitempty"`
	GroundingMetadata *groundingMetadata `json:"groundingMetadata,omitempty"`
}

type groundingMetadata struct {
	GroundingChunks []wireGroundingChunk `json:"groundingChunks"`
}

type wireGroundingChunk struct {
	RetrievedContext *wireRetrievedContext `json:"retrievedContext,omitempty"`
}

type wireRetrievedContext struct {
	Title          string              `json:"title,omitempty"`
	URI            string              `json:"uri,omitempty"`
	Text           string              `json:"text,omitempty"`
	CustomMetadata []customMetadataKV  `json:"customMetadata,omitempty"`
}

type customMetadataKV struct {
	Key          string   `json:"key"`
	StringValue  string   `json:"stringValue,omitempty"`
	NumericValue *float64 `json:"numericValue,omitempty"`
}

type fileSearchStore struct {
	Name                 string `json:"name"`
	DisplayName          string `json:"displayName,omitempty"`
	ActiveDocumentsCount string `json:"activeDocumentsCount,omitempty"`
}

type listStoresResponse struct {
	FileSearchStores []fileSearchStore `json:"fileSearchStores"`
	NextPageToken    string            `json:"nextPageToken,omitempty"`
}

type storeDocument struct {
	Name           string             `json:"name"`
	DisplayName    string             `json:"displayName,omitempty"`
	CustomMetadata []customMetadataKV `json:"customMetadata,omitempty"`
}

type listDocumentsResponse struct {
	Documents     []storeDocument `json:"documents"`
	NextPageToken string          `json:"nextPageToken,omitempty"`
}

type uploadMetadata struct {
	DisplayName    string             `json:"displayName,omitempty"`
	CustomMetadata []customMetadataKV `json:"customMetadata,omitempty"`
}

type operation struct {
	Name  string          `json:"name"`
	Done  bool            `json:"done"`
	Error *operationError `json:"error,omitempty"`
}

type operationError struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}
