package usecase

import "github.com/tesfayh/ulss9-assistant/internal/core/domain"

const (
	snippetMaxLen = 200
	maxLinks      = 5
)

// NormalizeCitations converts grounding chunks into the source list and the
// deduplicated, size-bounded link list. Both preserve chunk traversal order;
// sources are appended unconditionally, links are deduplicated on the
// (url-or-document-id, title) pair with the first occurrence winning.
func NormalizeCitations(chunks []domain.GroundingChunk) ([]domain.Source, []domain.Link) {
	sources := make([]domain.Source, 0, len(chunks))
	links := make([]domain.Link, 0, maxLinks)
	seen := make(map[linkKey]struct{}, maxLinks)

	for _, chunk := range chunks {
		meta := mergeChunkMetadata(chunk)

		title := meta["title"]
		if title == "" {
			title = meta["display_name"]
		}
		if title == "" {
			title = domain.FallbackSourceTitle
		}
		url := meta["url"]
		docID := meta["document_id"]

		sourceType := meta["source_type"]
		if sourceType == "" {
			if url != "" {
				sourceType = domain.SourceTypeWebsite
			} else {
				sourceType = domain.SourceTypeAttachment
			}
		}

		sources = append(sources, domain.Source{
			Title:      title,
			URL:        url,
			Snippet:    truncateSnippet(chunk.Content),
			SourceType: sourceType,
		})

		key := linkKey{ref: url, title: title}
		if key.ref == "" {
			key.ref = docID
		}
		if _, dup := seen[key]; dup || len(links) >= maxLinks {
			continue
		}
		seen[key] = struct{}{}
		links = append(links, domain.Link{
			Title:      title,
			SourceType: sourceType,
			URL:        url,
			DocumentID: docID,
		})
	}

	return sources, links
}

type linkKey struct {
	ref   string
	title string
}

// mergeChunkMetadata flattens a chunk's metadata: the chunk-level bag first,
// then the retrieved-context entries on top. The structured sub-object must
// win on key collision or sources show stale titles.
func mergeChunkMetadata(chunk domain.GroundingChunk) map[string]string {
	meta := make(map[string]string, len(chunk.Metadata))
	for k, v := range chunk.Metadata {
		meta[k] = v
	}
	if chunk.Context != nil {
		for _, entry := range chunk.Context.Entries {
			meta[entry.Key] = entry.Value
		}
	}
	return meta
}

// truncateSnippet cuts content at exactly snippetMaxLen characters and marks
// the cut with an ellipsis; shorter content passes through unchanged. The
// cutoff is exact, with no word-boundary adjustment.
func truncateSnippet(content string) string {
	runes := []rune(content)
	if len(runes) > snippetMaxLen {
		return string(runes[:snippetMaxLen]) + "..."
	}
	return content
}
