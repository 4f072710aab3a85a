package memory

import (
	"sync"
)

// Sessions maps session ids to short-term buffers. Buffers are created
// lazily on first access.
type Sessions struct {
	mu         sync.Mutex
	buffers    map[string]*Buffer
	tokenLimit int
	estimator  TokenEstimator
}

func NewSessions(tokenLimit int, estimator TokenEstimator) *Sessions {
	return &Sessions{
		buffers:    make(map[string]*Buffer),
		tokenLimit: tokenLimit,
		estimator:  estimator,
	}
}

func (s *Sessions) Get(sessionID string) *Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf, ok := s.buffers[sessionID]
	if !ok {
		buf = NewBuffer(s.tokenLimit, s.estimator)
		s.buffers[sessionID] = buf
	}
	return buf
}

// Clear empties the session's buffer without discarding it.
func (s *Sessions) Clear(sessionID string) {
	s.mu.Lock()
	buf, ok := s.buffers[sessionID]
	s.mu.Unlock()
	if ok {
		buf.Clear()
	}
}
