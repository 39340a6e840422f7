package memory

// Clear drops every document of collection.
func (s *Store) Clear(collection string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, collection)
}
