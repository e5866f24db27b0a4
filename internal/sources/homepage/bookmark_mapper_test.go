package homepage

import (
	"testing"
	"time"
)

func TestMapBookmarks(t *testing.T) {
	config, err := NewBookmarkLoader(writeYAML(t, sampleBookmarks)).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	m := &BookmarkMapper{now: func() time.Time { return now }}

	bookmarks, err := m.MapBookmarks(config, "dev-user-123")
	if err != nil {
		t.Fatalf("MapBookmarks() error = %v", err)
	}

	// The wiki entry has no usable href once its variable is stripped.
	if len(bookmarks) != 2 {
		t.Fatalf("MapBookmarks() returned %d bookmarks, want 2", len(bookmarks))
	}

	gh := bookmarks[0]
	if gh.Title != "Github" || gh.URL != "https://github.com/" || gh.Category != "Developer" {
		t.Errorf("first bookmark = %+v", gh)
	}
	if gh.UserID != "dev-user-123" || gh.ID != "" || !gh.CreatedAt.Equal(now) {
		t.Errorf("first bookmark owner/id/time = %q %q %v", gh.UserID, gh.ID, gh.CreatedAt)
	}
	if len(gh.Tags) != 2 || gh.Tags[0] != SourceTag || gh.Tags[1] != "gh" {
		t.Errorf("first bookmark tags = %v", gh.Tags)
	}

	reddit := bookmarks[1]
	if reddit.Description != "The front page of the internet" || len(reddit.Tags) != 1 {
		t.Errorf("second bookmark = %+v", reddit)
	}
}

func TestMapBookmarksEmpty(t *testing.T) {
	config := BookmarksConfig{
		{"Broken": {{"No link": {{Abbr: "NL"}}}, {"Not web": {{Href: "ftp://files.example"}}}}},
	}
	if _, err := NewBookmarkMapper().MapBookmarks(config, "u"); err == nil {
		t.Error("MapBookmarks() with no valid entries should return error")
	}
}
