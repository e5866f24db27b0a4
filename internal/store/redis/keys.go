package redis

import "fmt"

const (
	// KeyPrefixBookmark is the prefix for bookmark keys
	KeyPrefixBookmark = "bookaimark:bookmark:"
	// KeyBookmarkOrder is the list of bookmark IDs in collection order
	KeyBookmarkOrder = "bookaimark:bookmarks:order"
)

// BookmarkKey returns the Redis key for a bookmark
func BookmarkKey(id string) string {
	return KeyPrefixBookmark + id
}

// OrderKey returns the Redis key for the ordered ID list
func OrderKey() string {
	return KeyBookmarkOrder
}

// ExtractBookmarkID extracts the bookmark ID from a Redis key
func ExtractBookmarkID(key string) (string, error) {
	if len(key) <= len(KeyPrefixBookmark) {
		return "", fmt.Errorf("invalid bookmark key: %s", key)
	}
	return key[len(KeyPrefixBookmark):], nil
}
