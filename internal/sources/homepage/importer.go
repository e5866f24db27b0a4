package homepage

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/bookaimark/internal/domain"
	"github.com/MrSnakeDoc/bookaimark/internal/logger"
	"github.com/MrSnakeDoc/bookaimark/internal/store"
)

// Importer merges a bookmarks.yaml file into the collection.
type Importer struct {
	loader *BookmarkLoader
	mapper *BookmarkMapper
	owner  string
	logger logger.Logger
}

func NewImporter(filePath, owner string, log logger.Logger) *Importer {
	return &Importer{
		loader: NewBookmarkLoader(filePath),
		mapper: NewBookmarkMapper(),
		owner:  owner,
		logger: log,
	}
}

// Import adds every bookmark whose URL the owner does not have yet, with
// fresh numeric IDs. Running it again is a no-op.
func (im *Importer) Import(ctx context.Context, coll *store.Collection) (int, error) {
	config, err := im.loader.Load()
	if err != nil {
		return 0, err
	}
	seeds, err := im.mapper.MapBookmarks(config, im.owner)
	if err != nil {
		return 0, fmt.Errorf("failed to map bookmarks: %w", err)
	}

	added := 0
	err = coll.Update(ctx, func(all []domain.Bookmark) ([]domain.Bookmark, bool, error) {
		known := make(map[string]bool)
		for i := range all {
			if all[i].OwnedBy(im.owner) {
				known[all[i].URL] = true
			}
		}

		for _, b := range seeds {
			if known[b.URL] {
				continue
			}
			b.ID = domain.NextNumericID(all)
			all = append(all, b)
			known[b.URL] = true
			added++
		}
		return all, added > 0, nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to import bookmarks: %w", err)
	}

	im.logger.Info("imported homepage bookmarks",
		logger.String("owner", im.owner),
		logger.Int("found", len(seeds)),
		logger.Int("added", added))
	return added, nil
}
