package catalog

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	domain "github.com/pawmart/petstore/internal/app/domain/catalog"
	"github.com/pawmart/petstore/internal/app/storage/memory"
	"github.com/pawmart/petstore/internal/errors"
)

func newService() (*Service, *memory.Store) {
	store := memory.New()
	return NewService(store, store, nil, nil), store
}

func TestCategoryLifecycle(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	c, err := svc.CreateCategory(ctx, domain.Category{Name: "Dogs"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Duplicate names are rejected case-insensitively.
	if _, err := svc.CreateCategory(ctx, domain.Category{Name: "dogs"}); !errors.IsConflict(err) {
		t.Fatalf("expected conflict for duplicate name, got %v", err)
	}

	renamed, err := svc.UpdateCategory(ctx, domain.Category{ID: c.ID, Name: "Cats"})
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if renamed.Name != "Cats" {
		t.Fatalf("rename not applied: %s", renamed.Name)
	}

	if err := svc.DeleteCategory(ctx, c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	// Re-delete is a clean not-found.
	if err := svc.DeleteCategory(ctx, c.ID); !errors.IsNotFound(err) {
		t.Fatalf("expected not-found on re-delete, got %v", err)
	}
}

func TestDeleteCategoryInUse(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	c, err := svc.CreateCategory(ctx, domain.Category{Name: "Dogs"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	for i := 0; i < 3; i++ {
		_, err := svc.CreatePet(ctx, domain.Pet{
			Name: "pup", CategoryID: c.ID, Price: decimal.NewFromInt(10),
		}, 1)
		if err != nil {
			t.Fatalf("create pet: %v", err)
		}
	}

	err = svc.DeleteCategory(ctx, c.ID)
	if !errors.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
	// The conflict names the category and the referencing pet count.
	if !strings.Contains(err.Error(), "Dogs") || !strings.Contains(err.Error(), "3") {
		t.Fatalf("conflict message missing category or count: %q", err.Error())
	}
}

func TestCreatePetRequiresCategory(t *testing.T) {
	svc, _ := newService()

	_, err := svc.CreatePet(context.Background(), domain.Pet{
		Name: "stray", CategoryID: 42, Price: decimal.NewFromInt(5),
	}, 1)
	if !errors.IsNotFound(err) {
		t.Fatalf("expected not-found for missing category, got %v", err)
	}
}

func TestSearchPets(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	dogs, err := svc.CreateCategory(ctx, domain.Category{Name: "Dogs"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	cats, err := svc.CreateCategory(ctx, domain.Category{Name: "Cats"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	names := []struct {
		name string
		cat  int64
	}{
		{"Rex", dogs.ID}, {"Rover", dogs.ID}, {"Whiskers", cats.ID},
	}
	for _, n := range names {
		if _, err := svc.CreatePet(ctx, domain.Pet{Name: n.name, CategoryID: n.cat, Price: decimal.NewFromInt(10)}, 1); err != nil {
			t.Fatalf("create pet %s: %v", n.name, err)
		}
	}

	page, err := svc.SearchPets(ctx, domain.Filter{CategoryID: dogs.ID}, 1, 20)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if page.TotalItems != 2 {
		t.Fatalf("expected 2 dogs, got %d", page.TotalItems)
	}

	page, err = svc.SearchPets(ctx, domain.Filter{Name: "ro"}, 1, 20)
	if err != nil {
		t.Fatalf("search by name: %v", err)
	}
	if page.TotalItems != 1 {
		t.Fatalf("expected 1 match for 'ro', got %d", page.TotalItems)
	}

	// Pagination caps and counts.
	page, err = svc.SearchPets(ctx, domain.Filter{}, 1, 2)
	if err != nil {
		t.Fatalf("paginated search: %v", err)
	}
	if len(page.Items) != 2 || page.TotalItems != 3 || page.TotalPages != 2 {
		t.Fatalf("pagination wrong: items=%d total=%d pages=%d", len(page.Items), page.TotalItems, page.TotalPages)
	}
}

func TestUpdatePetStatus(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	c, _ := svc.CreateCategory(ctx, domain.Category{Name: "Dogs"})
	p, err := svc.CreatePet(ctx, domain.Pet{Name: "Rex", CategoryID: c.ID, Price: decimal.NewFromInt(10)}, 1)
	if err != nil {
		t.Fatalf("create pet: %v", err)
	}
	if p.Status != domain.StatusAvailable {
		t.Fatalf("new pets default to AVAILABLE, got %s", p.Status)
	}

	updated, err := svc.UpdatePetStatus(ctx, p.ID, domain.StatusPending, 1)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.Status != domain.StatusPending {
		t.Fatalf("status not updated: %s", updated.Status)
	}

	if _, err := svc.UpdatePetStatus(ctx, p.ID, "LOST", 1); err == nil {
		t.Fatalf("expected unknown status to be rejected")
	}
}
