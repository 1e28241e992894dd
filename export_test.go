package hostreq

// ListenerCount returns how many listeners are subscribed to s.
func ListenerCount(s *CancelSource) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}
