package domain

// Response languages. Italian is the default; English is offered only when
// the deployment allows it.
const (
	LanguageItalian = "it"
	LanguageEnglish = "en"
)

// NormalizeLanguage clamps a requested language to the supported set,
// enforcing Italian when English is not globally allowed.
func NormalizeLanguage(lang string, allowEnglish bool) string {
	if lang == LanguageEnglish && allowEnglish {
		return LanguageEnglish
	}
	return LanguageItalian
}

// SelectionFallbackReason enumerates why store selection fell back to the
// default store instead of using the classifier result.
type SelectionFallbackReason string

const (
	SelectionFallbackNone          SelectionFallbackReason = ""
	SelectionFallbackNoClient      SelectionFallbackReason = "no_client"
	SelectionFallbackEmptyRegistry SelectionFallbackReason = "empty_registry"
	SelectionFallbackCallError     SelectionFallbackReason = "call_error"
	SelectionFallbackInvalidJSON   SelectionFallbackReason = "invalid_json"
	SelectionFallbackNoMatch       SelectionFallbackReason = "no_match"
)

// StoreSelection is the outcome of routing a query against the registry.
// StoreIDs is never empty: every fallback branch yields the default store.
type StoreSelection struct {
	StoreIDs       []string
	Reason         string
	FallbackReason SelectionFallbackReason
}

// Fallback reports whether the selection came from a fallback branch rather
// than the classifier.
func (s StoreSelection) Fallback() bool {
	return s.FallbackReason != SelectionFallbackNone
}

// ChatFallbackReason enumerates why a chat call returned the canned demo
// response instead of a grounded answer.
type ChatFallbackReason string

const (
	ChatFallbackNone        ChatFallbackReason = ""
	ChatFallbackNoClient    ChatFallbackReason = "no_client"
	ChatFallbackCallError   ChatFallbackReason = "call_error"
	ChatFallbackEmptyAnswer ChatFallbackReason = "empty_answer"
)

// ChatResult is the outcome of one retrieval-augmented chat turn. No
// conversation state survives the call.
type ChatResult struct {
	Response       string
	Sources        []Source
	Links          []Link
	StoresUsed     []string
	FallbackReason ChatFallbackReason
}

// Fallback reports whether the result is the demo response.
func (r ChatResult) Fallback() bool {
	return r.FallbackReason != ChatFallbackNone
}
