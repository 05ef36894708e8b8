package vfs

import "fmt"

// SortKey selects the field List orders entries by within each kind.
type SortKey string

const (
	SortByName SortKey = "name"
	SortByDate SortKey = "date"
	SortBySize SortKey = "size"
)

// ParseSortKey converts user input into a SortKey.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(s); k {
	case SortByName, SortByDate, SortBySize:
		return k, nil
	default:
		return "", fmt.Errorf("unknown sort key: %q", s)
	}
}

// ViewMode is the presentational layout preference. The service stores it
// for its consumers and never acts on it.
type ViewMode string

const (
	ViewGrid ViewMode = "grid"
	ViewList ViewMode = "list"
)

// ParseViewMode converts user input into a ViewMode.
func ParseViewMode(s string) (ViewMode, error) {
	switch v := ViewMode(s); v {
	case ViewGrid, ViewList:
		return v, nil
	default:
		return "", fmt.Errorf("unknown view mode: %q", s)
	}
}

// SortState is the active ordering of List.
type SortState struct {
	By        SortKey
	Ascending bool
}

// CurrentFolder returns the top of the navigation stack.
func (s *Service) CurrentFolder() Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stack[len(s.stack)-1]
}

// Stack returns a copy of the navigation stack, root first.
func (s *Service) Stack() []Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Frame(nil), s.stack...)
}

// NavigateInto pushes a folder onto the navigation stack. The id is not
// validated; callers only navigate into entries they listed as folders.
func (s *Service) NavigateInto(id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stack = append(s.stack, Frame{ID: id, Name: name})
}

// NavigateToDepth truncates the stack to index+1 frames, as a breadcrumb jump.
// Out-of-range indexes are clamped.
func (s *Service) NavigateToDepth(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 {
		index = 0
	}
	if index >= len(s.stack) {
		index = len(s.stack) - 1
	}
	s.stack = s.stack[:index+1]
}

// SetSortBy selects key ascending, or toggles the direction if key is already active.
func (s *Service) SetSortBy(key SortKey) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sortBy == key {
		s.sortAsc = !s.sortAsc
		return
	}
	s.sortBy = key
	s.sortAsc = true
}

// SetSort sets the sort key and direction explicitly.
func (s *Service) SetSort(key SortKey, ascending bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sortBy = key
	s.sortAsc = ascending
}

func (s *Service) SortState() SortState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SortState{By: s.sortBy, Ascending: s.sortAsc}
}

// SetFilter sets the case-insensitive name filter applied by List. Empty disables it.
func (s *Service) SetFilter(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = text
}

func (s *Service) Filter() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

func (s *Service) SetView(mode ViewMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = mode
}

func (s *Service) View() ViewMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}
