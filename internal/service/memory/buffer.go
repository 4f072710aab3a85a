package memory

import (
	"sync"

	"github.com/recall-agent/recall/internal/core"
)

const DefaultTokenLimit = 4000

// Buffer is the short-term, in-session message window. It evicts oldest
// messages once the token estimate exceeds the limit, always protecting a
// leading system message. Clear is the only other removal path.
type Buffer struct {
	mu         sync.Mutex
	messages   []core.Message
	tokenCount int
	limit      int
	estimator  TokenEstimator
}

func NewBuffer(limit int, estimator TokenEstimator) *Buffer {
	if limit <= 0 {
		limit = DefaultTokenLimit
	}
	if estimator == nil {
		estimator = HeuristicEstimator{}
	}
	return &Buffer{limit: limit, estimator: estimator}
}

func (b *Buffer) Add(msg core.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.messages = append(b.messages, msg)
	b.tokenCount += b.estimator.Estimate(msg.Content)
	b.enforceLimit()
}

// enforceLimit evicts oldest messages until the estimate fits. A system
// message at index 0 survives eviction; the second-oldest goes instead.
func (b *Buffer) enforceLimit() {
	for b.tokenCount > b.limit && len(b.messages) > 1 {
		idx := 0
		if b.messages[0].Role == core.RoleSystem {
			idx = 1
		}
		removed := b.messages[idx]
		b.messages = append(b.messages[:idx], b.messages[idx+1:]...)
		b.tokenCount -= b.estimator.Estimate(removed.Content)
	}
}

// Messages returns a copy of the current window, oldest first.
func (b *Buffer) Messages() []core.Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]core.Message, len(b.messages))
	copy(out, b.messages)
	return out
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.messages)
}

func (b *Buffer) TokenCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tokenCount
}

func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = nil
	b.tokenCount = 0
}
