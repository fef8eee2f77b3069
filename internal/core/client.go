package core

import (
	"sync"
	"time"
)

// Client is one live connection as seen by the core layer. A client is
// bound to at most one username, assigned exactly once at registration.
type Client struct {
	ID       string
	Name     string
	OriginIP string
	JoinedAt time.Time

	// Events is drained by the transport's write loop.
	Events chan *Event

	done      chan struct{}
	closeOnce sync.Once
}

// NewClient constructs an unbound client with an initialized event channel.
func NewClient(id, originIP string) *Client {
	return &Client{
		ID:       id,
		OriginIP: originIP,
		JoinedAt: time.Now(),
		Events:   make(chan *Event, 32),
		done:     make(chan struct{}),
	}
}

// Done is closed when the server force-disconnects this client. The
// transport must stop serving the connection once it fires.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// close marks the client as force-disconnected. Safe to call more than once.
func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// deliver hands an event to the connection without blocking. A slow
// consumer loses events rather than stalling other recipients.
func (c *Client) deliver(ev *Event) {
	select {
	case c.Events <- ev:
	default:
	}
}
