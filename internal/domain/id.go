package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidBookmarkID is returned when a JSON value is neither a string nor a number.
var ErrInvalidBookmarkID = errors.New("bookmark id must be a string or a number")

// BookmarkID identifies a bookmark. Records written by different producers
// use either numeric or string IDs, so both JSON forms are accepted and two
// IDs are equal when their text is equal (1 and "1" match).
type BookmarkID string

func (id *BookmarkID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ErrInvalidBookmarkID
	}

	switch c := data[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidBookmarkID, err)
		}
		*id = BookmarkID(s)
		return nil
	case c == '-' || (c >= '0' && c <= '9'):
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidBookmarkID, err)
		}
		*id = BookmarkID(n.String())
		return nil
	default:
		return fmt.Errorf("%w: got %s", ErrInvalidBookmarkID, data)
	}
}

// MarshalJSON emits integer IDs as JSON numbers and everything else as strings.
func (id BookmarkID) MarshalJSON() ([]byte, error) {
	if id.IsNumeric() {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// IsNumeric reports whether the ID is a canonical base-10 integer.
func (id BookmarkID) IsNumeric() bool {
	n, err := strconv.ParseInt(string(id), 10, 64)
	return err == nil && strconv.FormatInt(n, 10) == string(id)
}

func (id BookmarkID) String() string { return string(id) }

// NextNumericID returns max(numeric ids)+1, ignoring non-numeric IDs.
func NextNumericID(bookmarks []Bookmark) BookmarkID {
	var maxID int64
	for i := range bookmarks {
		if !bookmarks[i].ID.IsNumeric() {
			continue
		}
		n, _ := strconv.ParseInt(string(bookmarks[i].ID), 10, 64)
		if n > maxID {
			maxID = n
		}
	}
	return BookmarkID(strconv.FormatInt(maxID+1, 10))
}
