package domain

// Source kinds. An explicit source_type metadata value wins over the
// url-presence heuristic.
const (
	SourceTypeWebsite    = "website"
	SourceTypeAttachment = "attachment"
)

// FallbackSourceTitle is used when a chunk carries neither title nor
// display_name metadata.
const FallbackSourceTitle = "Fonte"

// Source is the normalized form of one cited grounding chunk.
type Source struct {
	Title      string `json:"title"`
	URL        string `json:"url,omitempty"`
	Snippet    string `json:"snippet"`
	SourceType string `json:"source_type"`
}

// Link is a deduplicated, user-facing citation. At most five per response;
// never carries the snippet.
type Link struct {
	Title      string `json:"title"`
	SourceType string `json:"source_type"`
	URL        string `json:"url,omitempty"`
	DocumentID string `json:"document_id,omitempty"`
}

// MetadataEntry is one key/string-value pair attached to a retrieved chunk.
type MetadataEntry struct {
	Key   string
	Value string
}

// RetrievedContext is the structured sub-object a grounding chunk may carry.
// Its metadata entries take precedence over the chunk-level bag.
type RetrievedContext struct {
	Entries []MetadataEntry
}

// GroundingChunk is the explicit schema for the fields this system consumes
// from one grounding chunk; anything else the backend returns is ignorable.
type GroundingChunk struct {
	Content  string
	Metadata map[string]string
	Context  *RetrievedContext
}
