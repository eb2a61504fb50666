package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/tesfayh/ulss9-assistant/internal/core/domain"
	"github.com/tesfayh/ulss9-assistant/internal/core/ports"
)

// Sampling temperatures. Chat runs warm on purpose: retrieval grounding
// constrains factual content, so natural phrasing wins over determinism.
const (
	chatTemperature     = 0.7
	followUpTemperature = 0.5
)

const systemInstructionBase = `Sei l'assistente AI ufficiale del sito dell'Azienda ULSS 9 Scaligera (aulss9.veneto.it).

Il tuo ruolo è aiutare l'utente a trovare informazioni sul sito in queste aree:
- Informazioni generali (chi siamo, come accedere ai servizi, numeri utili, modulistica, cosa fare per...)
- Orari (ambulatori, punti prelievo, reparti, guardie mediche, farmacie, orari di visita)
- Sedi (indirizzi, come raggiungere ospedali, distretti, CSP, sedi vaccinali)
- Servizi (esami di laboratorio, visite specialistiche, screening, assistenza domiciliare, ambulatori)
- Documenti ufficiali (normative, moduli PDF, delibere, bandi)

Regole:
1. Rispondi SOLO in base ai documenti nel contesto fornito. Non inventare informazioni.
2. Rispondi nella lingua richiesta dall'utente (italiano o inglese), in forma sintetica e chiara.
3. Se l'informazione non è nel contesto, dillo chiaramente e suggerisci di contattare l'URP o consultare il sito.
4. Quando possibile, indica 1-3 pagine o documenti consigliati (titolo e, se disponibile, link) per approfondire.
5. Per orari, sedi e servizi: riporta dati concreti (orari, indirizzi, recapiti) quando presenti nel contesto.

Contatti utili: URP Comunicazione, tel. 0458075511, sede legale Via Valverde 42 – 37122 Verona.`

// DemoMarker identifies the canned fallback response; callers detect
// demo mode by looking for it in the answer text.
const DemoMarker = "⚠️"

const demoResponse = `👋 Benvenuto nell'assistente ULSS 9 Scaligera.

Posso aiutarti a trovare informazioni su:
- **Informazioni generali** (numeri utili, modulistica, cosa fare per...)
- **Orari** (punti prelievo, ambulatori, guardie mediche, farmacie)
- **Sedi** (indirizzi ospedali, distretti, CSP)
- **Servizi** (esami, visite specialistiche, screening)
- **Documenti** (moduli, normative, bandi)

Esempi di domande:
- Quali sono gli orari del punto prelievi di Legnago?
- Dove si trova l'Ospedale Magalini di Villafranca?
- Come prenotare una visita specialistica?

` + DemoMarker + ` Modalità demo: configura GEMINI_API_KEY e crea gli store ULSS 9 per risposte basate sui documenti.`

// ChatUseCase orchestrates one retrieval-augmented chat turn: resolve the
// requested stores, issue a single grounded generation call, and normalize
// the grounding metadata into citations. Stateless per call; nothing is
// retained between turns. Any failure degrades to the demo response, never
// to an error.
type ChatUseCase struct {
	resolver     ports.StoreResolver
	generator    ports.GroundedGenerator
	prompter     ports.PromptGenerator
	allowEnglish bool
	logger       *slog.Logger
}

func NewChatUseCase(
	resolver ports.StoreResolver,
	generator ports.GroundedGenerator,
	prompter ports.PromptGenerator,
	allowEnglish bool,
	logger *slog.Logger,
) *ChatUseCase {
	return &ChatUseCase{
		resolver:     resolver,
		generator:    generator,
		prompter:     prompter,
		allowEnglish: allowEnglish,
		logger:       logger,
	}
}

func (uc *ChatUseCase) Chat(ctx context.Context, req ports.ChatRequest) domain.ChatResult {
	lang := domain.NormalizeLanguage(strings.ToLower(strings.TrimSpace(req.Language)), uc.allowEnglish)

	requested := req.StoreIDs
	if req.Domain != "" {
		// Legacy single-store mode: an explicit domain pins retrieval.
		requested = []string{req.Domain}
	}

	storeNames, storesUsed := uc.resolveStores(ctx, requested)

	resp, err := uc.generator.GenerateGrounded(ctx, ports.GroundedRequest{
		Message:           req.Message,
		SystemInstruction: systemInstruction(lang),
		StoreNames:        storeNames,
		Temperature:       chatTemperature,
	})
	if err != nil {
		if domain.IsKind(err, domain.ErrNotConfigured) {
			uc.logger.Warn("chat running in demo mode, client not available")
			return demoResult(domain.ChatFallbackNoClient)
		}
		uc.logger.Error("grounded generation failed", "error", err, "stores_used", storesUsed)
		return demoResult(domain.ChatFallbackCallError)
	}
	if strings.TrimSpace(resp.Text) == "" {
		uc.logger.Error("grounded generation returned empty answer", "stores_used", storesUsed)
		return demoResult(domain.ChatFallbackEmptyAnswer)
	}

	sources, links := NormalizeCitations(resp.Chunks)

	uc.logger.Info("chat turn completed",
		"answer_len", len(resp.Text),
		"stores_used", storesUsed,
		"sources", len(sources),
		"links", len(links),
	)

	return domain.ChatResult{
		Response:   resp.Text,
		Sources:    sources,
		Links:      links,
		StoresUsed: storesUsed,
	}
}

// resolveStores maps requested ids to backend references. Unresolvable ids
// are skipped with a warning: partial resolution is acceptable, and zero
// resolution degrades to a call without retrieval augmentation.
func (uc *ChatUseCase) resolveStores(ctx context.Context, ids []string) (storeNames, storesUsed []string) {
	for _, id := range ids {
		name, err := uc.resolver.ResolveStore(ctx, id)
		if err != nil {
			uc.logger.Warn("store not resolved, skipping", "store_id", id, "error", err)
			continue
		}
		storeNames = append(storeNames, name)
		storesUsed = append(storesUsed, id)
	}
	return storeNames, storesUsed
}

// SuggestFollowUps proposes up to three short follow-up questions in the
// response language. Best effort: every failure yields an empty list.
func (uc *ChatUseCase) SuggestFollowUps(ctx context.Context, userMessage, botResponse, language string) []string {
	lang := domain.NormalizeLanguage(strings.ToLower(strings.TrimSpace(language)), uc.allowEnglish)

	raw, err := uc.prompter.GenerateFromPrompt(ctx, buildFollowUpPrompt(userMessage, botResponse, lang), followUpTemperature)
	if err != nil {
		uc.logger.Warn("follow-up suggestions generation failed", "error", err)
		return nil
	}

	questions := make([]string, 0, 3)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if len([]rune(line)) <= 5 {
			continue
		}
		questions = append(questions, line)
		if len(questions) == 3 {
			break
		}
	}
	return questions
}

func systemInstruction(lang string) string {
	rule := "Rispondi sempre in italiano. Mantieni lo stesso tono e le stesse regole."
	if lang == domain.LanguageEnglish {
		rule = "Always respond in English. Keep the same tone and rules."
	}
	return systemInstructionBase + "\n\n" + rule
}

func demoResult(reason domain.ChatFallbackReason) domain.ChatResult {
	return domain.ChatResult{
		Response:       demoResponse,
		Sources:        []domain.Source{},
		Links:          []domain.Link{},
		StoresUsed:     []string{},
		FallbackReason: reason,
	}
}

func buildFollowUpPrompt(userMessage, botResponse, lang string) string {
	answer := botResponse
	if runes := []rune(answer); len(runes) > 1500 {
		answer = string(runes[:1500])
	}

	if lang == domain.LanguageEnglish {
		return `Based on this Q&A about ULSS 9 Scaligera healthcare services, suggest exactly 3 short follow-up questions the user might ask next.
Return ONLY the 3 questions, one per line. No numbering, no bullets. Keep each question under 15 words.
Language: English only.

User question:
` + userMessage + "\n\nAnswer:\n" + answer
	}
	return `In base a questa domanda e risposta sull'assistente ULSS 9 Scaligera, suggerisci esattamente 3 brevi domande di seguito che l'utente potrebbe fare.
Rispondi SOLO con le 3 domande, una per riga. Niente numeri, niente elenchi. Ogni domanda max 15 parole.
Lingua: solo italiano.

Domanda dell'utente:
` + userMessage + "\n\nRisposta:\n" + answer
}
