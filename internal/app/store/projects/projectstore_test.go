package projectstore_test

import (
	"errors"
	"testing"

	projectstore "github.com/dalemusser/taskhub/internal/app/store/projects"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"github.com/dalemusser/taskhub/internal/testutil"
)

func TestStore_CreateGetList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := projectstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}

	p, err := store.Create(ctx, models.Project{WorkspaceID: "ws1", Name: "Beta", Slug: "beta"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Create(ctx, models.Project{WorkspaceID: "ws1", Name: "Alpha", Slug: "alpha"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	// Same slug in another workspace is fine.
	if _, err := store.Create(ctx, models.Project{WorkspaceID: "ws2", Name: "Beta", Slug: "beta"}); err != nil {
		t.Fatalf("Create in other workspace failed: %v", err)
	}
	if _, err := store.Create(ctx, models.Project{WorkspaceID: "ws1", Name: "Beta 2", Slug: "beta"}); !errors.Is(err, projectstore.ErrDuplicateSlug) {
		t.Errorf("expected ErrDuplicateSlug, got %v", err)
	}

	got, err := store.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.WorkspaceID != "ws1" {
		t.Errorf("workspace: got %q, want %q", got.WorkspaceID, "ws1")
	}
	if _, err := store.GetByID(ctx, "missing"); !errors.Is(err, projectstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	list, err := store.ListByWorkspace(ctx, "ws1")
	if err != nil {
		t.Fatalf("ListByWorkspace failed: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Alpha" {
		t.Errorf("ListByWorkspace: got %+v", list)
	}
}
