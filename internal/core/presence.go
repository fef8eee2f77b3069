package core

import (
	"fmt"
	"sync"
)

// Registry is the single source of truth for who is online. It maps each
// username to exactly one live client and preserves registration order for
// presence snapshots. All membership changes are broadcast-visible: joins,
// leaves, and forced disconnects emit a system notice plus a fresh presence
// snapshot to every remaining connection.
type Registry struct {
	mu      sync.Mutex
	clients map[string]*Client
	order   []string
}

// NewRegistry constructs an empty presence registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]*Client)}
}

// Register binds username to client. A second login for an already
// registered username displaces the prior connection: the old client is
// told to close and removed before the new one is added. Everyone else is
// told about the join and receives a fresh snapshot.
func (r *Registry) Register(username string, client *Client) {
	r.mu.Lock()

	prev, displaced := r.clients[username]
	if displaced {
		prev.deliver(&Event{Kind: EventForceClose, Reason: "signed in from another connection"})
		prev.close()
		r.removeLocked(username)
	}

	r.clients[username] = client
	r.order = append(r.order, username)

	if !displaced {
		joined := systemEvent(fmt.Sprintf("%s joined the chat", username))
		for name, c := range r.clients {
			if name != username {
				c.deliver(joined)
			}
		}
	}

	r.deliverSnapshotLocked()
	r.mu.Unlock()
}

// Unregister removes the mapping if it still points at client, emitting a
// left notice and a fresh snapshot to the remaining connections. Removal of
// an absent or already displaced username is a no-op. Returns whether an
// entry was removed.
func (r *Registry) Unregister(username string, client *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.clients[username]
	if !ok || current != client {
		return false
	}
	r.removeLocked(username)

	left := systemEvent(fmt.Sprintf("%s left the chat", username))
	for _, c := range r.clients {
		c.deliver(left)
	}
	r.deliverSnapshotLocked()
	return true
}

// Lookup returns the live client for a username, if any.
func (r *Registry) Lookup(username string) (*Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[username]
	return c, ok
}

// Snapshot returns the online usernames in registration order.
func (r *Registry) Snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Clients returns a copy of the live connection set, for broadcasting
// outside the registry lock.
func (r *Registry) Clients() []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	clients := make([]*Client, 0, len(r.clients))
	for _, name := range r.order {
		clients = append(clients, r.clients[name])
	}
	return clients
}

// ForceDisconnect tells the user's connection to drop, then unregisters it.
// Returns whether a live connection was found.
func (r *Registry) ForceDisconnect(username, reason string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	client, ok := r.clients[username]
	if !ok {
		return false
	}

	client.deliver(&Event{Kind: EventKickNotice, Reason: reason})
	client.close()
	r.removeLocked(username)

	r.deliverSnapshotLocked()
	return true
}

func (r *Registry) removeLocked(username string) {
	delete(r.clients, username)
	for i, name := range r.order {
		if name == username {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *Registry) snapshotLocked() []string {
	snapshot := make([]string, len(r.order))
	copy(snapshot, r.order)
	return snapshot
}

func (r *Registry) deliverSnapshotLocked() {
	snapshot := r.snapshotLocked()
	ev := &Event{Kind: EventPresence, Users: snapshot}
	for _, c := range r.clients {
		c.deliver(ev)
	}
}
