package domain

// Store is a named partition of indexed documents on the retrieval backend,
// addressed by its id (the "domain" in API payloads). The description is
// only consumed by the store selector's routing prompt.
type Store struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// StoreInfo describes a store as reported by the retrieval backend.
type StoreInfo struct {
	Name          string `json:"name"`
	DisplayName   string `json:"display_name"`
	Domain        string `json:"domain"`
	DocumentCount int    `json:"document_count"`
}

// DocumentInfo describes one document inside a store.
type DocumentInfo struct {
	Name        string            `json:"name"`
	DisplayName string            `json:"display_name"`
	Metadata    map[string]string `json:"metadata"`
}

// UploadResult reports a completed document upload.
type UploadResult struct {
	Filename   string `json:"filename"`
	Title      string `json:"title"`
	Domain     string `json:"domain"`
	SourceType string `json:"source_type"`
	DocumentID string `json:"document_id,omitempty"`
	URL        string `json:"url,omitempty"`
}

// DefaultStoreID is the selector fallback and the seed store every
// deployment is guaranteed to have.
const DefaultStoreID = "general_info"

// SeedStores are the four mandatory categories. They stay in the routing
// prompt even if the backing store was deleted externally: the ids are
// referenced by fixed identifier across the system.
func SeedStores() []Store {
	return []Store{
		{
			ID:          "general_info",
			Description: "Informazioni generali sull'Azienda ULSS 9 Scaligera: chi siamo, come accedere ai servizi, numeri utili, modulistica, cosa fare per...",
		},
		{
			ID:          "hours",
			Description: "Informazioni relative agli orari: ambulatori, punti prelievo, reparti, guardie mediche, farmacie, orari di visita.",
		},
		{
			ID:          "locations",
			Description: "Informazioni relative alle sedi: indirizzi, come raggiungere ospedali, distretti, CSP, sedi vaccinali, mappe.",
		},
		{
			ID:          "services",
			Description: "Informazioni relative ai servizi offerti presso le sedi: esami di laboratorio, visite specialistiche, screening, assistenza domiciliare, ambulatori.",
		},
	}
}

// IsSeedStore reports whether id is one of the four mandatory categories.
func IsSeedStore(id string) bool {
	for _, s := range SeedStores() {
		if s.ID == id {
			return true
		}
	}
	return false
}
