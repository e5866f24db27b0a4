package homepage

import (
	"context"
	"testing"

	"github.com/MrSnakeDoc/bookaimark/internal/domain"
	"github.com/MrSnakeDoc/bookaimark/internal/logger"
	"github.com/MrSnakeDoc/bookaimark/internal/store"
	"github.com/MrSnakeDoc/bookaimark/internal/store/memory"
)

func TestImporterSkipsKnownURLs(t *testing.T) {
	mem := memory.New(
		domain.Bookmark{ID: "7", UserID: "dev-user-123", URL: "https://github.com/"},
		domain.Bookmark{ID: "9", UserID: "someone-else", URL: "https://reddit.com/"},
	)
	coll := store.NewCollection(mem)
	im := NewImporter(writeYAML(t, sampleBookmarks), "dev-user-123", logger.Nop())

	added, err := im.Import(context.Background(), coll)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if added != 1 {
		t.Fatalf("Import() added %d, want 1", added)
	}

	reddit, ok := mem.Get("10")
	if !ok || reddit.UserID != "dev-user-123" || reddit.URL != "https://reddit.com/" {
		t.Errorf("imported bookmark = %+v (found=%v)", reddit, ok)
	}

	added, err = im.Import(context.Background(), coll)
	if err != nil {
		t.Fatalf("second Import() error = %v", err)
	}
	if added != 0 {
		t.Errorf("second Import() added %d, want 0", added)
	}
	if mem.Saves() != 1 {
		t.Errorf("Saves() = %d, want 1", mem.Saves())
	}
}
