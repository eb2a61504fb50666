package usecase

import (
	"context"
	"log/slog"
	"sort"

	"github.com/tesfayh/ulss9-assistant/internal/core/domain"
	"github.com/tesfayh/ulss9-assistant/internal/core/ports"
)

// RegistryUseCase assembles the routing registry: the four seed stores
// followed by extra stores persisted via the admin API. Seed entries are
// always present, even if the backing store was deleted on the backend.
type RegistryUseCase struct {
	descriptions ports.DescriptionStore
	logger       *slog.Logger
}

func NewRegistryUseCase(descriptions ports.DescriptionStore, logger *slog.Logger) *RegistryUseCase {
	return &RegistryUseCase{
		descriptions: descriptions,
		logger:       logger,
	}
}

func (uc *RegistryUseCase) Stores(ctx context.Context) []domain.Store {
	stores := domain.SeedStores()
	seen := make(map[string]struct{}, len(stores))
	for _, s := range stores {
		seen[s.ID] = struct{}{}
	}

	extras, err := uc.descriptions.Descriptions(ctx)
	if err != nil {
		uc.logger.Warn("load extra store descriptions failed", "error", err)
		return stores
	}
	ids := make([]string, 0, len(extras))
	for id := range extras {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		stores = append(stores, domain.Store{ID: id, Description: extras[id]})
	}
	return stores
}
