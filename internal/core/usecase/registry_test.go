package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/tesfayh/ulss9-assistant/internal/core/domain"
	"github.com/tesfayh/ulss9-assistant/internal/observability/logging"
)

type descriptionStoreFake struct {
	descriptions map[string]string
	err          error
	saved        map[string]string
}

func (f *descriptionStoreFake) Descriptions(context.Context) (map[string]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.descriptions, nil
}

func (f *descriptionStoreFake) SetDescription(_ context.Context, id, description string) error {
	if f.err != nil {
		return f.err
	}
	if f.saved == nil {
		f.saved = map[string]string{}
	}
	f.saved[id] = description
	return nil
}

func TestRegistrySeedsFirstThenExtrasSorted(t *testing.T) {
	uc := NewRegistryUseCase(&descriptionStoreFake{descriptions: map[string]string{
		"vaccini":  "Campagne vaccinali",
		"concorsi": "Bandi e concorsi",
	}}, logging.NewJSONLogger("test", "error"))

	stores := uc.Stores(context.Background())
	if len(stores) != 6 {
		t.Fatalf("expected 4 seeds + 2 extras, got %d", len(stores))
	}
	seeds := domain.SeedStores()
	for i, seed := range seeds {
		if stores[i].ID != seed.ID {
			t.Fatalf("position %d: expected seed %q, got %q", i, seed.ID, stores[i].ID)
		}
	}
	if stores[4].ID != "concorsi" || stores[5].ID != "vaccini" {
		t.Fatalf("extras not sorted: %q, %q", stores[4].ID, stores[5].ID)
	}
}

func TestRegistrySeedDescriptionsNeverOverridden(t *testing.T) {
	uc := NewRegistryUseCase(&descriptionStoreFake{descriptions: map[string]string{
		"hours": "descrizione manomessa",
	}}, logging.NewJSONLogger("test", "error"))

	stores := uc.Stores(context.Background())
	if len(stores) != 4 {
		t.Fatalf("seed id in extras must not add an entry, got %d stores", len(stores))
	}
	for _, s := range stores {
		if s.ID == "hours" && s.Description == "descrizione manomessa" {
			t.Fatalf("seed description was overridden")
		}
	}
}

func TestRegistryDegradesToSeedsOnLoadError(t *testing.T) {
	uc := NewRegistryUseCase(&descriptionStoreFake{err: errors.New("disk gone")}, logging.NewJSONLogger("test", "error"))

	stores := uc.Stores(context.Background())
	if len(stores) != 4 {
		t.Fatalf("expected the 4 seeds, got %d", len(stores))
	}
	if stores[0].ID != domain.DefaultStoreID {
		t.Fatalf("expected %q first, got %q", domain.DefaultStoreID, stores[0].ID)
	}
}
