package vfs

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// List returns the entries of the current folder that match the filter,
// folders first, each kind ordered by the active sort state.
func (s *Service) List() ([]*Entry, error) {
	s.mu.RLock()
	folderID := s.stack[len(s.stack)-1].ID
	filter := s.filter
	state := SortState{By: s.sortBy, Ascending: s.sortAsc}
	s.mu.RUnlock()

	entries, err := s.store.ListByParent(folderID)
	if err != nil {
		return nil, err
	}

	entries = filterByName(entries, filter)
	sortEntries(entries, state)

	s.logger.Debug("folder listed", "folder", folderID, "count", len(entries))
	return entries, nil
}

// filterByName keeps entries whose name contains text, ignoring case.
func filterByName(entries []*Entry, text string) []*Entry {
	if text == "" {
		return entries
	}
	q := strings.ToLower(text)
	return slices.DeleteFunc(entries, func(e *Entry) bool {
		return !strings.Contains(strings.ToLower(e.Name), q)
	})
}

// sortEntries orders folders before files regardless of state, then compares
// within each kind by the sort key. Descending negates the comparison, so it
// exactly reverses the ascending order apart from ties.
func sortEntries(entries []*Entry, state SortState) {
	col := collate.New(language.Und)

	slices.SortStableFunc(entries, func(a, b *Entry) int {
		if a.Kind != b.Kind {
			if a.IsFolder() {
				return -1
			}
			return 1
		}

		var c int
		switch state.By {
		case SortByDate:
			c = a.ModifiedAt.Compare(b.ModifiedAt)
		case SortBySize:
			c = cmp.Compare(a.Size, b.Size)
		default:
			c = col.CompareString(a.Name, b.Name)
		}
		if !state.Ascending {
			c = -c
		}
		return c
	})
}
