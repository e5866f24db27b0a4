package homepage

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/MrSnakeDoc/bookaimark/internal/domain"
)

// SourceTag marks bookmarks imported from Homepage.
const SourceTag = "homepage"

// BookmarkMapper converts Homepage bookmark config to domain bookmarks
type BookmarkMapper struct {
	now func() time.Time
}

// NewBookmarkMapper creates a new bookmark mapper
func NewBookmarkMapper() *BookmarkMapper {
	return &BookmarkMapper{now: time.Now}
}

// MapBookmarks converts config into bookmarks owned by owner, in file
// order (names within one YAML mapping are sorted). IDs are left empty;
// they are assigned when the bookmarks join a collection. Entries without
// an http(s) href are skipped.
func (m *BookmarkMapper) MapBookmarks(config BookmarksConfig, owner string) ([]domain.Bookmark, error) {
	bookmarks := make([]domain.Bookmark, 0)
	now := m.now().UTC()

	for _, category := range config {
		for _, categoryName := range sortedKeys(category) {
			for _, bookmarkMap := range category[categoryName] {
				for _, bookmarkName := range sortedKeys(bookmarkMap) {
					entryList := bookmarkMap[bookmarkName]
					if len(entryList) == 0 {
						continue
					}
					entry := entryList[0] // Take the first (and only) entry

					href := strings.TrimSpace(entry.Href)
					if !isWebURL(href) {
						continue
					}

					tags := []string{SourceTag}
					if abbr := strings.ToLower(strings.TrimSpace(entry.Abbr)); abbr != "" {
						tags = append(tags, abbr)
					}

					bookmarks = append(bookmarks, domain.Bookmark{
						UserID:      owner,
						Title:       bookmarkName,
						URL:         href,
						Description: entry.Description,
						Category:    categoryName,
						Tags:        tags,
						CreatedAt:   now,
						UpdatedAt:   now,
					})
				}
			}
		}
	}

	if len(bookmarks) == 0 {
		return nil, fmt.Errorf("no valid bookmarks found in config")
	}

	return bookmarks, nil
}

func isWebURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
