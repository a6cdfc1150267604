// Package filter resolves the visible bookmark subset for a multi-tag
// selection. The engine is stateless: every call operates on the
// collection and selection it is handed.
package filter

import "github.com/stashspark/stashspark/internal/domain"

// ByTags returns the bookmarks whose tag set intersects selectedTagIDs.
//
// An empty selection applies no filter and returns the input
// unchanged; it never means "show nothing". Selection uses OR
// semantics across tags, so adding tags to the selection can only grow
// the result. A bookmark with no tags is excluded as soon as any
// filter is active.
//
// Membership is tested against a set so the cost stays O(bookmarks ×
// tags-per-bookmark) even with a large tag vocabulary.
func ByTags(bookmarks []domain.Bookmark, selectedTagIDs []int64) []domain.Bookmark {
	if len(selectedTagIDs) == 0 {
		return bookmarks
	}

	selected := make(map[int64]struct{}, len(selectedTagIDs))
	for _, id := range selectedTagIDs {
		selected[id] = struct{}{}
	}

	matched := make([]domain.Bookmark, 0, len(bookmarks))
	for _, b := range bookmarks {
		if hasAny(b.TagIDs, selected) {
			matched = append(matched, b)
		}
	}
	return matched
}

func hasAny(tagIDs []int64, selected map[int64]struct{}) bool {
	for _, id := range tagIDs {
		if _, ok := selected[id]; ok {
			return true
		}
	}
	return false
}
