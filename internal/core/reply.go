package core

import "sync"

// replyTable remembers, per username, who whispered them most recently.
// `/r` resolves its target from here. Entries live for the process lifetime
// so a reply still works after the sender reconnects.
type replyTable struct {
	mu       sync.Mutex
	lastFrom map[string]string
}

func newReplyTable() *replyTable {
	return &replyTable{lastFrom: make(map[string]string)}
}

// record notes that sender whispered recipient.
func (t *replyTable) record(recipient, sender string) {
	t.mu.Lock()
	t.lastFrom[recipient] = sender
	t.mu.Unlock()
}

// lastSender returns who most recently whispered the user.
func (t *replyTable) lastSender(username string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	sender, ok := t.lastFrom[username]
	return sender, ok
}
