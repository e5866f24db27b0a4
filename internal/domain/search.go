package domain

import (
	"net/url"
	"sort"
	"strings"
)

const (
	// Search weights
	SearchExactTitle     = 300.0
	SearchPrefixTitle    = 75.0
	SearchSubstringTitle = 50.0
	SearchHostMatch      = 40.0
	SearchTagMatch       = 30.0
	SearchFuzzyMatch     = 25.0

	// Earlier substring matches get up to this much extra.
	SearchPositionBonus = 10.0
)

// SearchQuery filters and ranks a user's bookmarks.
type SearchQuery struct {
	Text   string       // free text, matched against title, host and tags
	Health []HealthTier // keep only these tiers (empty = any)
	Limit  int          // 0 = no limit
}

// SearchHit is a bookmark with its relevance score.
type SearchHit struct {
	Bookmark Bookmark `json:"bookmark"`
	Score    float64  `json:"score"`
}

// ScoreBookmark calculates how well a bookmark matches the query text.
func ScoreBookmark(text string, b *Bookmark) float64 {
	if b == nil {
		return 0.0
	}
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return 0.0
	}

	title := strings.ToLower(b.Title)
	var score float64

	switch {
	case title == text:
		score = SearchExactTitle
	case strings.HasPrefix(title, text):
		score = SearchPrefixTitle
	case strings.Contains(title, text):
		index := strings.Index(title, text)
		score = SearchSubstringTitle + SearchPositionBonus*(1.0-float64(index)/float64(len(title)))
	default:
		// all words present, in any order
		words := strings.Fields(text)
		if len(words) > 1 && containsAll(title, words) {
			score = SearchFuzzyMatch
		} else if sim := similarity(text, title); sim > 0.5 {
			score = SearchFuzzyMatch * sim
		}
	}

	if host := hostOf(b.URL); host != "" && strings.Contains(host, text) {
		score += SearchHostMatch
	}

	for _, tag := range b.Tags {
		if strings.EqualFold(tag, text) {
			score += SearchTagMatch
			break
		}
	}

	return score
}

// Search ranks bookmarks by score (descending). Ties keep collection order.
// An empty query text matches every bookmark with score 0.
func Search(q SearchQuery, bookmarks []Bookmark) []SearchHit {
	hits := make([]SearchHit, 0, len(bookmarks))
	text := strings.TrimSpace(q.Text)

	for i := range bookmarks {
		b := &bookmarks[i]
		if !tierAllowed(b.SiteHealth, q.Health) {
			continue
		}

		score := 0.0
		if text != "" {
			score = ScoreBookmark(text, b)
			if score == 0.0 {
				continue
			}
		}

		hits = append(hits, SearchHit{Bookmark: *b, Score: score})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if q.Limit > 0 && len(hits) > q.Limit {
		hits = hits[:q.Limit]
	}
	return hits
}

func tierAllowed(t HealthTier, allowed []HealthTier) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == t {
			return true
		}
	}
	return false
}

func containsAll(s string, words []string) bool {
	for _, w := range words {
		if !strings.Contains(s, w) {
			return false
		}
	}
	return true
}

// similarity is the ratio of characters of s1 present in s2.
func similarity(s1, s2 string) float64 {
	if s1 == "" || s2 == "" {
		return 0.0
	}
	matches := 0
	for _, c := range s1 {
		if strings.ContainsRune(s2, c) {
			matches++
		}
	}
	return float64(matches) / float64(len(s1))
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
