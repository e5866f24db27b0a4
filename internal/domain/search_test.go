package domain

import "testing"

func TestScoreBookmark(t *testing.T) {
	tests := []struct {
		name           string
		text           string
		title          string
		url            string
		expectPositive bool
	}{
		{name: "exact title", text: "go blog", title: "Go Blog", url: "https://go.dev/blog", expectPositive: true},
		{name: "prefix title", text: "go", title: "Go Blog", url: "https://go.dev/blog", expectPositive: true},
		{name: "substring title", text: "blog", title: "Go Blog", url: "https://go.dev/blog", expectPositive: true},
		{name: "host match", text: "github", title: "Code", url: "https://github.com/", expectPositive: true},
		{name: "no match", text: "xyz", title: "Go Blog", url: "https://go.dev", expectPositive: false},
		{name: "empty text", text: "  ", title: "Go Blog", url: "https://go.dev", expectPositive: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Bookmark{ID: "1", Title: tt.title, URL: tt.url}
			score := ScoreBookmark(tt.text, b)
			if tt.expectPositive && score <= 0 {
				t.Errorf("Expected positive score, got %f", score)
			}
			if !tt.expectPositive && score > 0 {
				t.Errorf("Expected zero score, got %f", score)
			}
		})
	}
}

func TestSearchRanksAndFilters(t *testing.T) {
	bookmarks := []Bookmark{
		{ID: "1", Title: "Golang Weekly", URL: "https://golangweekly.com", SiteHealth: TierBroken},
		{ID: "2", Title: "Go", URL: "https://go.dev", SiteHealth: TierExcellent},
		{ID: "3", Title: "Rust Book", URL: "https://doc.rust-lang.org", SiteHealth: TierExcellent},
	}

	hits := Search(SearchQuery{Text: "go"}, bookmarks)
	if len(hits) != 2 {
		t.Fatalf("Search(go) returned %d hits, want 2", len(hits))
	}
	if hits[0].Bookmark.ID != "2" {
		t.Errorf("exact title match should rank first, got %v", hits[0].Bookmark.ID)
	}

	hits = Search(SearchQuery{Text: "go", Health: []HealthTier{TierBroken}}, bookmarks)
	if len(hits) != 1 || hits[0].Bookmark.ID != "1" {
		t.Errorf("health filter not applied: %+v", hits)
	}

	hits = Search(SearchQuery{Limit: 2}, bookmarks)
	if len(hits) != 2 || hits[0].Bookmark.ID != "1" {
		t.Errorf("empty query should list in collection order with limit: %+v", hits)
	}
}
