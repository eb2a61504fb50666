package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tesfayh/ulss9-assistant/internal/core/domain"
	"github.com/tesfayh/ulss9-assistant/internal/core/ports"
)

// Sampling temperature for the classification call. Kept low: routing
// should be as deterministic as a sampled call allows.
const selectionTemperature = 0.2

// storeSelectionSchema constrains the classifier output to
// {"stores": [...], "reason": "..."}.
var storeSelectionSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"stores": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
		"reason": map[string]any{"type": "string"},
	},
	"required": []any{"stores"},
}

type storeSelectionOutput struct {
	Stores []string `json:"stores"`
	Reason string   `json:"reason"`
}

// SelectStoresUseCase routes a user message to the registry stores most
// likely to contain the answer, via one schema-constrained classification
// call. Every failure branch resolves to the default store: this path never
// returns an error to its caller, and a failed call is not retried.
type SelectStoresUseCase struct {
	registry  ports.StoreRegistry
	generator ports.PromptGenerator
	logger    *slog.Logger
}

func NewSelectStoresUseCase(
	registry ports.StoreRegistry,
	generator ports.PromptGenerator,
	logger *slog.Logger,
) *SelectStoresUseCase {
	return &SelectStoresUseCase{
		registry:  registry,
		generator: generator,
		logger:    logger,
	}
}

func (uc *SelectStoresUseCase) SelectStores(ctx context.Context, message string) domain.StoreSelection {
	stores := uc.registry.Stores(ctx)
	if len(stores) == 0 {
		// Cannot happen while the seed registry is compiled in, but a
		// prompt listing zero options is never worth a remote call.
		return uc.fallback(domain.SelectionFallbackEmptyRegistry)
	}

	raw, err := uc.generator.GenerateJSONFromPrompt(ctx, buildSelectionPrompt(stores, message), storeSelectionSchema, selectionTemperature)
	if err != nil {
		if domain.IsKind(err, domain.ErrNotConfigured) {
			uc.logger.Warn("store selector: no client configured, using default store")
			return uc.fallback(domain.SelectionFallbackNoClient)
		}
		uc.logger.Error("store selector: classification call failed", "error", err)
		return uc.fallback(domain.SelectionFallbackCallError)
	}

	var parsed storeSelectionOutput
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		uc.logger.Warn("store selector: invalid classifier json", "error", err)
		return uc.fallback(domain.SelectionFallbackInvalidJSON)
	}

	valid := make(map[string]struct{}, len(stores))
	for _, s := range stores {
		valid[s.ID] = struct{}{}
	}

	// Drop hallucinated ids; keep classifier order.
	selected := make([]string, 0, len(parsed.Stores))
	for _, id := range parsed.Stores {
		if _, ok := valid[id]; ok {
			selected = append(selected, id)
		}
	}
	if len(selected) == 0 {
		uc.logger.Warn("store selector: no valid store in classifier output", "raw_stores", parsed.Stores)
		return uc.fallback(domain.SelectionFallbackNoMatch)
	}

	uc.logger.Info("store selection", "stores", selected, "reason", parsed.Reason)
	return domain.StoreSelection{StoreIDs: selected, Reason: parsed.Reason}
}

func (uc *SelectStoresUseCase) fallback(reason domain.SelectionFallbackReason) domain.StoreSelection {
	return domain.StoreSelection{
		StoreIDs:       []string{domain.DefaultStoreID},
		FallbackReason: reason,
	}
}

func buildSelectionPrompt(stores []domain.Store, message string) string {
	lines := make([]string, 0, len(stores))
	for _, s := range stores {
		lines = append(lines, fmt.Sprintf("- %s: %s", s.ID, s.Description))
	}

	return fmt.Sprintf(`Sei un assistente che classifica le domande degli utenti rispetto a categorie di informazioni del sito ULSS 9 Scaligera.

Elenco delle categorie (stores) disponibili:
%s

Domanda dell'utente: "%s"

Indica quali categorie sono rilevanti per rispondere alla domanda (puoi sceglierne una o più).
Rispondi SOLO con un JSON valido con chiavi: "stores" (array di id, es. ["hours", "locations"]) e "reason" (breve motivazione in italiano).`, strings.Join(lines, "\n"), message)
}
