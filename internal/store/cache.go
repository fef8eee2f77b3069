package store

import (
	"context"
	"sync"
)

// HistoryCache wraps a Store and keeps the most recent broadcast messages
// in memory so connect-time replay never waits on the underlying medium.
// The window is backfilled from the inner store on the first replay read.
type HistoryCache struct {
	Store

	mu     sync.RWMutex
	recent []*Message
	warm   bool
	window int
}

// NewHistoryCache wraps inner with an in-memory replay window.
func NewHistoryCache(inner Store, window int) *HistoryCache {
	if window <= 0 {
		window = 100
	}
	return &HistoryCache{Store: inner, window: window}
}

// AppendMessage persists through the inner store and, on success, records
// broadcast messages in the replay window. Whispers are persisted for audit
// only and never cached for replay.
func (c *HistoryCache) AppendMessage(ctx context.Context, msg *Message) error {
	if err := c.Store.AppendMessage(ctx, msg); err != nil {
		return err
	}

	if msg.Whisper() {
		return nil
	}

	clone := *msg
	c.mu.Lock()
	c.recent = append(c.recent, &clone)
	if len(c.recent) > c.window {
		c.recent = c.recent[len(c.recent)-c.window:]
	}
	c.mu.Unlock()
	return nil
}

// RecentMessages serves replay from memory, backfilling older entries from
// the inner store on the first read.
func (c *HistoryCache) RecentMessages(ctx context.Context, limit int) ([]*Message, error) {
	c.mu.RLock()
	warm := c.warm
	c.mu.RUnlock()

	if !warm {
		older, err := c.Store.RecentMessages(ctx, c.window)
		if err != nil {
			return nil, err
		}
		c.backfill(older)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.copyRecent(limit), nil
}

// backfill prepends inner-store messages that predate the buffered window.
func (c *HistoryCache) backfill(older []*Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.warm {
		return
	}

	merged := make([]*Message, 0, len(older)+len(c.recent))
	for _, msg := range older {
		if len(c.recent) > 0 && msg.ID >= c.recent[0].ID {
			break
		}
		merged = append(merged, msg)
	}
	merged = append(merged, c.recent...)
	if len(merged) > c.window {
		merged = merged[len(merged)-c.window:]
	}

	c.recent = merged
	c.warm = true
}

func (c *HistoryCache) copyRecent(limit int) []*Message {
	msgs := c.recent
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	result := make([]*Message, len(msgs))
	copy(result, msgs)
	return result
}
