package worker

import "sync"

// sessionLocks hands out one mutex per state directory so the start and stop
// halves of a session never run concurrently against the same directory.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (s *sessionLocks) lock(stateDir string) func() {
	s.mu.Lock()
	if s.locks == nil {
		s.locks = make(map[string]*sync.Mutex)
	}
	l, ok := s.locks[stateDir]
	if !ok {
		l = &sync.Mutex{}
		s.locks[stateDir] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}
