package vfs

import "fmt"

// deleteFrame is a node on the delete work stack. A folder frame is visited
// twice: once to push its children, once (expanded) to remove it.
type deleteFrame struct {
	entry    *Entry
	expanded bool
}

// Delete removes an entry. A folder is removed after all of its descendants,
// deepest first, so no remaining entry ever points at a deleted parent.
// Deleting an id that does not exist is a no-op.
//
// The traversal uses an explicit stack, so depth is bounded by memory rather
// than the goroutine stack. If the tree loops back on an entry already being
// deleted, Delete stops with ErrCycle instead of running forever; entries
// removed before that point stay removed.
func (s *Service) Delete(id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	root, err := s.store.GetEntry(id)
	if err != nil {
		return err
	}
	if root == nil {
		return nil
	}

	visited := map[string]bool{root.ID: true}
	stack := []*deleteFrame{{entry: root}}
	removed := 0

	for len(stack) > 0 {
		top := stack[len(stack)-1]

		if top.entry.IsFolder() && !top.expanded {
			top.expanded = true
			children, err := s.store.ListByParent(top.entry.ID)
			if err != nil {
				return err
			}
			for _, child := range children {
				if visited[child.ID] {
					return fmt.Errorf("deleting %s: %w at %s", id, ErrCycle, child.ID)
				}
				visited[child.ID] = true
				stack = append(stack, &deleteFrame{entry: child})
			}
			continue
		}

		stack = stack[:len(stack)-1]
		if err := s.removeOne(top.entry); err != nil {
			return err
		}
		removed++
	}

	s.logger.Info("entry deleted", "id", id, "removed", removed)
	return nil
}

// removeOne deletes a single node whose descendants are already gone.
func (s *Service) removeOne(entry *Entry) error {
	if entry.IsFolder() {
		return s.store.DeleteEntry(entry.ID)
	}
	return s.store.DeleteEntryAndContent(entry.ID)
}
